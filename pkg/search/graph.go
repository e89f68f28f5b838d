package search

import (
	"context"
	"fmt"

	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/types"
)

// Relationship-derived scores. Graph hits rank below direct matches by
// construction: the further the hop from a seed, the lower the score.
const (
	scoreDirectProject    = 0.8
	scoreContributor      = 0.75
	scoreAuthoredPost     = 0.7
	scorePostAuthor       = 0.7
	scoreMentionedProfile = 0.65
	scoreMentionPost      = 0.6

	// maxPostsPerNode caps how many posts a single profile or project
	// node pulls during traversal, so a prolific author cannot flood the
	// result set.
	maxPostsPerNode = 5
)

// GraphStrategy walks entity relationships outward from seed nodes:
// profile -> authored posts and contributed projects, project ->
// contributors and mentioning posts, post -> author and mentions. Each
// node is visited at most once per execution regardless of how many paths
// reach it.
type GraphStrategy struct {
	relations store.RelationFetcher
}

// NewGraphStrategy builds a graph traversal strategy over the given
// relation fetcher.
func NewGraphStrategy(relations store.RelationFetcher) *GraphStrategy {
	return &GraphStrategy{relations: relations}
}

func (s *GraphStrategy) Name() string { return "graph" }

type traversal struct {
	visited map[string]bool
	results []types.SearchResult
}

func (t *traversal) add(resultType types.ResultType, id string, data types.Payload, score float64, reason string) {
	t.results = append(t.results, types.SearchResult{
		Type:           resultType,
		ID:             id,
		Data:           data,
		RelevanceScore: score,
		MatchReason:    reason,
	})
}

// Execute traverses from each seed up to params.Depth hops. The query
// text is unused; seeds alone drive the walk.
func (s *GraphStrategy) Execute(ctx context.Context, _ string, params *Params) ([]types.SearchResult, error) {
	if params == nil || len(params.Seeds) == 0 {
		return nil, nil
	}
	depth := params.Depth
	if depth <= 0 {
		depth = 1
	}

	t := &traversal{visited: make(map[string]bool)}
	for _, seed := range params.Seeds {
		if err := s.visit(ctx, seed, depth, t); err != nil {
			return nil, err
		}
	}
	return t.results, nil
}

// visit expands one node. The visited check happens before any fetch, so
// cyclic mention chains (post mentions profile, profile authored post)
// terminate even within the depth budget.
func (s *GraphStrategy) visit(ctx context.Context, node Seed, depth int, t *traversal) error {
	if depth <= 0 {
		return nil
	}
	key := string(node.Type) + ":" + node.ID
	if t.visited[key] {
		return nil
	}
	t.visited[key] = true

	switch node.Type {
	case types.ResultProfile:
		return s.visitProfile(ctx, node.ID, depth, t)
	case types.ResultProject:
		return s.visitProject(ctx, node.ID, depth, t)
	case types.ResultPost:
		return s.visitPost(ctx, node.ID, depth, t)
	default:
		// Experiences, educations and project requests are leaves.
		return nil
	}
}

func (s *GraphStrategy) visitProfile(ctx context.Context, profileID string, depth int, t *traversal) error {
	posts, err := s.relations.PostsByAuthor(ctx, profileID, maxPostsPerNode)
	if err != nil {
		return fmt.Errorf("fetching posts by author %s: %w", profileID, err)
	}
	for i := range posts {
		post := posts[i]
		t.add(types.ResultPost, post.ID, &post, scoreAuthoredPost, "Posted by related person")
	}

	projects, err := s.relations.ProjectsForProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("fetching projects for profile %s: %w", profileID, err)
	}
	for i := range projects {
		project := projects[i]
		t.add(types.ResultProject, project.ID, &project, scoreDirectProject, "Project by related person")
	}

	if depth > 1 {
		for i := range posts {
			if err := s.traverseMentions(ctx, posts[i].ID, depth-1, t); err != nil {
				return err
			}
		}
		for i := range projects {
			if err := s.visit(ctx, Seed{Type: types.ResultProject, ID: projects[i].ID}, depth-1, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *GraphStrategy) visitProject(ctx context.Context, projectID string, depth int, t *traversal) error {
	project, err := s.relations.ProjectByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("fetching project %s: %w", projectID, err)
	}
	if project == nil {
		return nil
	}

	contributions, err := s.relations.ContributionsForProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("fetching contributions for project %s: %w", projectID, err)
	}
	project.Contributions = contributions
	project.HasContributions = true
	t.add(types.ResultProject, project.ID, project, scoreDirectProject, "Directly related project")

	for _, c := range contributions {
		if c.Contributor == nil {
			continue
		}
		contributor := *c.Contributor
		skills, err := s.relations.SkillsForProfile(ctx, contributor.ID)
		if err != nil {
			return fmt.Errorf("fetching skills for contributor %s: %w", contributor.ID, err)
		}
		contributor.Skills = skills
		t.add(types.ResultProfile, contributor.ID, &contributor, scoreContributor, "Contributor to related project")
	}

	posts, err := s.relations.PostsMentioningProject(ctx, projectID, maxPostsPerNode)
	if err != nil {
		return fmt.Errorf("fetching posts mentioning project %s: %w", projectID, err)
	}
	for i := range posts {
		post := posts[i]
		t.add(types.ResultPost, post.ID, &post, scoreMentionPost, "Post about related project")
	}

	if depth > 1 {
		for _, c := range contributions {
			if c.Contributor == nil {
				continue
			}
			if err := s.visit(ctx, Seed{Type: types.ResultProfile, ID: c.Contributor.ID}, depth-1, t); err != nil {
				return err
			}
		}
		for i := range posts {
			if err := s.traverseMentions(ctx, posts[i].ID, depth-1, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *GraphStrategy) visitPost(ctx context.Context, postID string, depth int, t *traversal) error {
	post, err := s.relations.PostByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("fetching post %s: %w", postID, err)
	}
	if post == nil {
		return nil
	}

	if post.AuthorID != "" {
		author, err := s.relations.ProfileByID(ctx, post.AuthorID)
		if err != nil {
			return fmt.Errorf("fetching author %s: %w", post.AuthorID, err)
		}
		if author != nil {
			t.add(types.ResultProfile, author.ID, author, scorePostAuthor, "Author of related post")
			if depth > 1 {
				if err := s.visit(ctx, Seed{Type: types.ResultProfile, ID: author.ID}, depth-1, t); err != nil {
					return err
				}
			}
		}
	}

	return s.traverseMentions(ctx, postID, depth, t)
}

// traverseMentions resolves a post's mentions and adds the mentioned
// entities as results, recursing into them while depth remains.
func (s *GraphStrategy) traverseMentions(ctx context.Context, postID string, depth int, t *traversal) error {
	profileIDs, projectIDs, err := s.relations.MentionsForPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("fetching mentions for post %s: %w", postID, err)
	}

	for _, id := range profileIDs {
		profile, err := s.relations.ProfileByID(ctx, id)
		if err != nil {
			return fmt.Errorf("fetching mentioned profile %s: %w", id, err)
		}
		if profile == nil {
			continue
		}
		t.add(types.ResultProfile, profile.ID, profile, scoreMentionedProfile, "Mentioned in related post")
		if depth > 1 {
			if err := s.visit(ctx, Seed{Type: types.ResultProfile, ID: id}, depth-1, t); err != nil {
				return err
			}
		}
	}

	for _, id := range projectIDs {
		if depth > 1 {
			if err := s.visit(ctx, Seed{Type: types.ResultProject, ID: id}, depth-1, t); err != nil {
				return err
			}
			continue
		}
		project, err := s.relations.ProjectByID(ctx, id)
		if err != nil {
			return fmt.Errorf("fetching mentioned project %s: %w", id, err)
		}
		if project == nil {
			continue
		}
		t.add(types.ResultProject, project.ID, project, scoreMentionPost, "Project mentioned in related post")
	}

	return nil
}
