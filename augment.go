package whoknows

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/knnymrls/whoknows/pkg/types"
)

// augmentedPostScore ranks augmentation-fetched posts below direct hits.
const augmentedPostScore = 0.5

// augment executes each data request against the store and merges what it
// finds into the mutable result set. Per-entity fetches within one
// request run concurrently; they are independent reads.
func (c *Client) augment(ctx context.Context, results *types.SearchResults, requests []types.DataRequest) error {
	for _, req := range requests {
		c.logger.Debug("executing data request", "type", req.Type, "reason", req.Reason)

		var err error
		switch req.Type {
		case types.RequestExperienceDetails:
			err = c.fetchExperiences(ctx, results, stringSlice(req.Parameters["profile_ids"]))
		case types.RequestProjectDetails:
			err = c.fetchContributions(ctx, results, stringSlice(req.Parameters["project_ids"]))
		case types.RequestRecentActivity:
			err = c.fetchRecentActivity(ctx, results, stringSlice(req.Parameters["profile_ids"]), intValue(req.Parameters["days"]))
		case types.RequestSkillVerification:
			err = c.fetchSkills(ctx, results, stringSlice(req.Parameters["profile_ids"]))
		case types.RequestSpecificPerson:
			err = c.fetchPerson(ctx, results, stringValue(req.Parameters["name"]))
		default:
			c.logger.Warn("unknown data request type", "type", req.Type)
		}
		if err != nil {
			return fmt.Errorf("executing %s request: %w", req.Type, err)
		}
	}
	return nil
}

// fetchExperiences loads work history for each profile and attaches it in
// place, marking the profiles as fully loaded.
func (c *Client) fetchExperiences(ctx context.Context, results *types.SearchResults, profileIDs []string) error {
	return c.forEachProfile(ctx, results, profileIDs, func(ctx context.Context, profile *types.Profile) error {
		experiences, err := c.store.ExperiencesForProfile(ctx, profile.ID)
		if err != nil {
			return err
		}
		profile.Experiences = experiences
		profile.HasExperiences = true
		return nil
	})
}

func (c *Client) fetchSkills(ctx context.Context, results *types.SearchResults, profileIDs []string) error {
	return c.forEachProfile(ctx, results, profileIDs, func(ctx context.Context, profile *types.Profile) error {
		skills, err := c.store.SkillsForProfile(ctx, profile.ID)
		if err != nil {
			return err
		}
		profile.Skills = skills
		return nil
	})
}

// fetchContributions loads contributor data for each project in place.
func (c *Client) fetchContributions(ctx context.Context, results *types.SearchResults, projectIDs []string) error {
	wanted := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = struct{}{}
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for i := range results.Projects {
		project, ok := results.Projects[i].Data.(*types.Project)
		if !ok {
			continue
		}
		if _, want := wanted[project.ID]; !want {
			continue
		}
		wg.Add(1)
		go func(project *types.Project) {
			defer wg.Done()
			contributions, err := c.store.ContributionsForProject(ctx, project.ID)
			if err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
				return
			}
			project.Contributions = contributions
			project.HasContributions = true
		}(project)
	}
	wg.Wait()
	return first
}

// fetchRecentActivity pulls recent posts by the given authors into the
// posts bucket, skipping posts already present.
func (c *Client) fetchRecentActivity(ctx context.Context, results *types.SearchResults, profileIDs []string, days int) error {
	if len(profileIDs) == 0 {
		return nil
	}
	if days <= 0 {
		days = 30
	}

	since := time.Now().AddDate(0, 0, -days)
	posts, err := c.store.RecentPostsByAuthors(ctx, profileIDs, since, len(profileIDs)*5)
	if err != nil {
		return err
	}

	existing := make(map[string]struct{}, len(results.Posts))
	for _, r := range results.Posts {
		existing[r.ID] = struct{}{}
	}

	for i := range posts {
		post := posts[i]
		if _, dup := existing[post.ID]; dup {
			continue
		}
		results.Posts = append(results.Posts, types.SearchResult{
			Type:           types.ResultPost,
			ID:             post.ID,
			Data:           &post,
			RelevanceScore: augmentedPostScore,
			MatchReason:    "Recent activity by matched person",
		})
	}
	return nil
}

// fetchPerson looks up a named person directly and adds them to the
// profiles bucket if absent.
func (c *Client) fetchPerson(ctx context.Context, results *types.SearchResults, name string) error {
	if name == "" {
		return nil
	}

	profiles, err := c.store.FindProfilesMatching(ctx, []string{name})
	if err != nil {
		return err
	}

	existing := make(map[string]struct{}, len(results.Profiles))
	for _, r := range results.Profiles {
		existing[r.ID] = struct{}{}
	}

	for i := range profiles {
		profile := profiles[i]
		if _, dup := existing[profile.ID]; dup {
			continue
		}
		results.Profiles = append(results.Profiles, types.SearchResult{
			Type:           types.ResultProfile,
			ID:             profile.ID,
			Data:           &profile,
			RelevanceScore: 0.9,
			MatchReason:    "Named in the question",
		})
	}
	return nil
}

// forEachProfile runs fn concurrently over the result-set profiles whose
// ids appear in profileIDs.
func (c *Client) forEachProfile(ctx context.Context, results *types.SearchResults, profileIDs []string, fn func(context.Context, *types.Profile) error) error {
	wanted := make(map[string]struct{}, len(profileIDs))
	for _, id := range profileIDs {
		wanted[id] = struct{}{}
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for i := range results.Profiles {
		profile, ok := results.Profiles[i].Data.(*types.Profile)
		if !ok {
			continue
		}
		if _, want := wanted[profile.ID]; !want {
			continue
		}
		wg.Add(1)
		go func(profile *types.Profile) {
			defer wg.Done()
			if err := fn(ctx, profile); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
			}
		}(profile)
	}
	wg.Wait()
	return first
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
