package respond

import (
	"sort"

	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	// maxSourcesPerType caps how many hits per bucket become citations.
	maxSourcesPerType = 10

	// maxAttachedSources caps how many citations travel with the answer.
	maxAttachedSources = 3

	// postPreviewLength truncates post content in citations.
	postPreviewLength = 100
)

// Unscored hits fall back to per-type base scores. The asymmetry is
// deliberate: when scores tie, people outrank projects outrank posts,
// since people-finding is the primary use case.
const (
	baseScoreProfile        = 0.8
	baseScoreProjectRequest = 0.7
	baseScoreProject        = 0.6
	baseScorePost           = 0.4
)

// extractSources flattens the organized results into ranked citations.
func extractSources(results *types.SearchResults) []types.Source {
	var sources []types.Source

	for _, r := range capped(results.Profiles) {
		profile, ok := r.Data.(*types.Profile)
		if !ok {
			continue
		}
		sources = append(sources, types.Source{
			Type:           types.ResultProfile,
			ID:             profile.ID,
			Name:           profile.Name,
			Description:    profile.Title,
			RelevanceScore: scoreOr(r.RelevanceScore, baseScoreProfile),
		})
	}

	for _, r := range capped(results.Projects) {
		project, ok := r.Data.(*types.Project)
		if !ok {
			continue
		}
		sources = append(sources, types.Source{
			Type:           types.ResultProject,
			ID:             project.ID,
			Name:           project.Title,
			Description:    truncate(project.Description, postPreviewLength),
			RelevanceScore: scoreOr(r.RelevanceScore, baseScoreProject),
		})
	}

	authors := authorIndex(results.Profiles)
	for _, r := range capped(results.Posts) {
		post, ok := r.Data.(*types.Post)
		if !ok {
			continue
		}
		author := ""
		if post.Author != nil {
			author = post.Author.Name
		}
		if author == "" {
			author = authors[post.AuthorID]
		}
		sources = append(sources, types.Source{
			Type:           types.ResultPost,
			ID:             post.ID,
			Name:           "Post",
			Description:    truncate(post.Content, postPreviewLength),
			Author:         author,
			RelevanceScore: scoreOr(r.RelevanceScore, baseScorePost),
		})
	}

	for _, r := range capped(results.ProjectRequests) {
		request, ok := r.Data.(*types.ProjectRequest)
		if !ok {
			continue
		}
		sources = append(sources, types.Source{
			Type:           types.ResultProjectRequest,
			ID:             request.ID,
			Name:           request.Title,
			Description:    truncate(request.Description, postPreviewLength),
			RelevanceScore: scoreOr(r.RelevanceScore, baseScoreProjectRequest),
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].RelevanceScore > sources[j].RelevanceScore
	})
	return sources
}

func capped(results []types.SearchResult) []types.SearchResult {
	if len(results) > maxSourcesPerType {
		return results[:maxSourcesPerType]
	}
	return results
}

func scoreOr(score, base float64) float64 {
	if score > 0 {
		return score
	}
	return base
}

// authorIndex maps profile id to name across the profiles bucket, used to
// resolve post authors that were not joined at fetch time.
func authorIndex(profiles []types.SearchResult) map[string]string {
	index := make(map[string]string, len(profiles))
	for _, r := range profiles {
		if profile, ok := r.Data.(*types.Profile); ok {
			index[profile.ID] = profile.Name
		}
	}
	return index
}
