package search

import (
	"context"
	"fmt"

	"github.com/knnymrls/whoknows/pkg/embedder"
	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	defaultProfileLimit        = 20
	defaultPostLimit           = 30
	defaultProjectLimit        = 20
	defaultProjectRequestLimit = 20
)

// SemanticStrategy ranks entities by embedding similarity to the query.
// The query is embedded exactly once per execution; the four entity
// searches reuse the same vector.
type SemanticStrategy struct {
	vectors   store.VectorSearcher
	relations store.RelationFetcher
	embedder  embedder.Client

	// minSimilarity drops matches below this cosine similarity. Zero
	// disables the cutoff and top-N ordering alone decides.
	minSimilarity float64
}

// NewSemanticStrategy builds a semantic strategy over the given vector
// searcher, relation fetcher and embedding client.
func NewSemanticStrategy(vectors store.VectorSearcher, relations store.RelationFetcher, emb embedder.Client) *SemanticStrategy {
	return &SemanticStrategy{
		vectors:   vectors,
		relations: relations,
		embedder:  emb,
	}
}

func (s *SemanticStrategy) Name() string { return "semantic" }

// Execute embeds the query and runs similarity searches over profiles,
// posts, projects and project requests, enriching each hit with the
// child records downstream scoring depends on.
func (s *SemanticStrategy) Execute(ctx context.Context, query string, params *Params) ([]types.SearchResult, error) {
	embedding, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	limit := func(def int) int {
		if params != nil && params.Limit > 0 {
			return params.Limit
		}
		return def
	}

	var results []types.SearchResult

	profiles, err := s.searchProfiles(ctx, embedding, limit(defaultProfileLimit))
	if err != nil {
		return nil, err
	}
	results = append(results, profiles...)

	posts, err := s.searchPosts(ctx, embedding, limit(defaultPostLimit))
	if err != nil {
		return nil, err
	}
	results = append(results, posts...)

	projects, err := s.searchProjects(ctx, embedding, limit(defaultProjectLimit))
	if err != nil {
		return nil, err
	}
	results = append(results, projects...)

	requests, err := s.searchProjectRequests(ctx, embedding, limit(defaultProjectRequestLimit))
	if err != nil {
		return nil, err
	}
	results = append(results, requests...)

	return results, nil
}

func (s *SemanticStrategy) searchProfiles(ctx context.Context, embedding []float32, limit int) ([]types.SearchResult, error) {
	matches, err := s.vectors.MatchProfilesByEmbedding(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("matching profiles: %w", err)
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		if s.minSimilarity > 0 && m.Similarity < s.minSimilarity {
			continue
		}
		profile := m.Profile
		if err := s.enrichProfile(ctx, &profile); err != nil {
			return nil, err
		}
		results = append(results, types.SearchResult{
			Type:           types.ResultProfile,
			ID:             profile.ID,
			Data:           &profile,
			RelevanceScore: m.Similarity,
			MatchReason:    "Profile semantically similar to query",
		})
	}
	return results, nil
}

func (s *SemanticStrategy) searchPosts(ctx context.Context, embedding []float32, limit int) ([]types.SearchResult, error) {
	matches, err := s.vectors.MatchPostsByEmbedding(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("matching posts: %w", err)
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		if s.minSimilarity > 0 && m.Similarity < s.minSimilarity {
			continue
		}
		post := m.Post
		results = append(results, types.SearchResult{
			Type:           types.ResultPost,
			ID:             post.ID,
			Data:           &post,
			RelevanceScore: m.Similarity,
			MatchReason:    "Post semantically similar to query",
		})
	}
	return results, nil
}

func (s *SemanticStrategy) searchProjects(ctx context.Context, embedding []float32, limit int) ([]types.SearchResult, error) {
	matches, err := s.vectors.MatchProjectsByEmbedding(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("matching projects: %w", err)
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		if s.minSimilarity > 0 && m.Similarity < s.minSimilarity {
			continue
		}
		project := m.Project
		contributions, err := s.relations.ContributionsForProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching contributions for project %s: %w", project.ID, err)
		}
		project.Contributions = contributions
		project.HasContributions = true
		results = append(results, types.SearchResult{
			Type:           types.ResultProject,
			ID:             project.ID,
			Data:           &project,
			RelevanceScore: m.Similarity,
			MatchReason:    "Project semantically similar to query",
		})
	}
	return results, nil
}

func (s *SemanticStrategy) searchProjectRequests(ctx context.Context, embedding []float32, limit int) ([]types.SearchResult, error) {
	matches, err := s.vectors.MatchProjectRequestsByEmbedding(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("matching project requests: %w", err)
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		if s.minSimilarity > 0 && m.Similarity < s.minSimilarity {
			continue
		}
		request := m.Request
		if request.CreatorID != "" {
			creator, err := s.relations.ProfileByID(ctx, request.CreatorID)
			if err != nil {
				return nil, fmt.Errorf("fetching creator for project request %s: %w", request.ID, err)
			}
			request.Creator = creator
		}
		results = append(results, types.SearchResult{
			Type:           types.ResultProjectRequest,
			ID:             request.ID,
			Data:           &request,
			RelevanceScore: m.Similarity,
			MatchReason:    "Project opportunity semantically similar to query",
		})
	}
	return results, nil
}

// enrichProfile attaches the child records gap detection and context
// building read: skills, experiences and educations. HasExperiences
// records that the experience fetch actually ran, so an empty slice
// means "none" rather than "not loaded".
func (s *SemanticStrategy) enrichProfile(ctx context.Context, profile *types.Profile) error {
	skills, err := s.relations.SkillsForProfile(ctx, profile.ID)
	if err != nil {
		return fmt.Errorf("fetching skills for profile %s: %w", profile.ID, err)
	}
	profile.Skills = skills

	experiences, err := s.relations.ExperiencesForProfile(ctx, profile.ID)
	if err != nil {
		return fmt.Errorf("fetching experiences for profile %s: %w", profile.ID, err)
	}
	profile.Experiences = experiences
	profile.HasExperiences = true

	educations, err := s.relations.EducationsForProfile(ctx, profile.ID)
	if err != nil {
		return fmt.Errorf("fetching educations for profile %s: %w", profile.ID, err)
	}
	profile.Educations = educations

	return nil
}
