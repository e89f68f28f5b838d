package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/knnymrls/whoknows/pkg/query"
	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	// skillMatchScore is the fixed score for a profile surfaced through a
	// direct skill-table hit; a declared skill is the strongest keyword
	// signal the strategy sees.
	skillMatchScore = 0.9

	// experienceMatchScore is the fixed score for experience-table hits.
	experienceMatchScore = 0.8
)

// KeywordStrategy matches query keywords against text columns across the
// entity tables. Scoring is fraction-of-keywords-matched except for skill
// and experience hits, which carry fixed scores.
type KeywordStrategy struct {
	patterns  store.PatternSearcher
	relations store.RelationFetcher
	expander  *query.Expander
}

// NewKeywordStrategy builds a keyword strategy. expander may be nil, in
// which case Expand requests are ignored.
func NewKeywordStrategy(patterns store.PatternSearcher, relations store.RelationFetcher, expander *query.Expander) *KeywordStrategy {
	return &KeywordStrategy{patterns: patterns, relations: relations, expander: expander}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

// Execute tokenizes the query (unless params supply keywords), optionally
// expands the terms, and searches profiles, experiences, skills, posts and
// projects.
func (s *KeywordStrategy) Execute(ctx context.Context, q string, params *Params) ([]types.SearchResult, error) {
	keywords := query.Keywords(q)
	if params != nil && len(params.Keywords) > 0 {
		keywords = params.Keywords
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	terms := keywords
	if params != nil && params.Expand && s.expander != nil {
		terms = s.expander.ExpandAll(keywords)
	}

	var results []types.SearchResult

	profiles, err := s.searchProfiles(ctx, terms, keywords)
	if err != nil {
		return nil, err
	}
	results = append(results, profiles...)

	experiences, err := s.searchExperiences(ctx, terms)
	if err != nil {
		return nil, err
	}
	results = append(results, experiences...)

	skills, err := s.searchSkills(ctx, terms)
	if err != nil {
		return nil, err
	}
	results = append(results, skills...)

	posts, err := s.searchPosts(ctx, terms, keywords)
	if err != nil {
		return nil, err
	}
	results = append(results, posts...)

	projects, err := s.searchProjects(ctx, terms, keywords)
	if err != nil {
		return nil, err
	}
	results = append(results, projects...)

	return results, nil
}

func (s *KeywordStrategy) searchProfiles(ctx context.Context, terms, keywords []string) ([]types.SearchResult, error) {
	profiles, err := s.patterns.FindProfilesMatching(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("searching profiles by keyword: %w", err)
	}

	results := make([]types.SearchResult, 0, len(profiles))
	for i := range profiles {
		profile := profiles[i]
		haystack := strings.ToLower(profile.Name + " " + profile.Title + " " + profile.Bio)
		matched := matchedTerms(haystack, keywords)
		results = append(results, types.SearchResult{
			Type:           types.ResultProfile,
			ID:             profile.ID,
			Data:           &profile,
			RelevanceScore: fractionMatched(matched, keywords),
			MatchReason:    "Matched keywords: " + strings.Join(matched, ", "),
		})
	}
	return results, nil
}

// searchExperiences surfaces experience rows as standalone results so the
// responder can cite role and company directly.
func (s *KeywordStrategy) searchExperiences(ctx context.Context, terms []string) ([]types.SearchResult, error) {
	experiences, err := s.patterns.FindExperiencesMatching(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("searching experiences by keyword: %w", err)
	}

	results := make([]types.SearchResult, 0, len(experiences))
	for i := range experiences {
		exp := experiences[i]
		results = append(results, types.SearchResult{
			Type:           types.ResultExperience,
			ID:             exp.ID,
			Data:           &exp,
			RelevanceScore: experienceMatchScore,
			MatchReason:    fmt.Sprintf("Experience matches: %s at %s", exp.Role, exp.Company),
		})
	}
	return results, nil
}

// searchSkills groups skill-table hits back into per-profile results: the
// person holding the skill is what the caller wants, not the skill row.
func (s *KeywordStrategy) searchSkills(ctx context.Context, terms []string) ([]types.SearchResult, error) {
	skills, err := s.patterns.FindSkillsMatching(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("searching skills by keyword: %w", err)
	}

	byProfile := make(map[string][]string)
	order := make([]string, 0, len(skills))
	for _, skill := range skills {
		if _, seen := byProfile[skill.ProfileID]; !seen {
			order = append(order, skill.ProfileID)
		}
		byProfile[skill.ProfileID] = append(byProfile[skill.ProfileID], skill.Name)
	}

	results := make([]types.SearchResult, 0, len(order))
	for _, profileID := range order {
		profile, err := s.relations.ProfileByID(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("fetching profile %s for skill match: %w", profileID, err)
		}
		if profile == nil {
			continue
		}
		results = append(results, types.SearchResult{
			Type:           types.ResultProfile,
			ID:             profile.ID,
			Data:           profile,
			RelevanceScore: skillMatchScore,
			MatchReason:    "Has skill: " + strings.Join(byProfile[profileID], ", "),
		})
	}
	return results, nil
}

func (s *KeywordStrategy) searchPosts(ctx context.Context, terms, keywords []string) ([]types.SearchResult, error) {
	posts, err := s.patterns.FindPostsMatching(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("searching posts by keyword: %w", err)
	}

	results := make([]types.SearchResult, 0, len(posts))
	for i := range posts {
		post := posts[i]
		matched := matchedTerms(strings.ToLower(post.Content), keywords)
		results = append(results, types.SearchResult{
			Type:           types.ResultPost,
			ID:             post.ID,
			Data:           &post,
			RelevanceScore: fractionMatched(matched, keywords),
			MatchReason:    "Post mentions: " + strings.Join(matched, ", "),
		})
	}
	return results, nil
}

func (s *KeywordStrategy) searchProjects(ctx context.Context, terms, keywords []string) ([]types.SearchResult, error) {
	projects, err := s.patterns.FindProjectsMatching(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("searching projects by keyword: %w", err)
	}

	results := make([]types.SearchResult, 0, len(projects))
	for i := range projects {
		project := projects[i]
		matched := matchedTerms(strings.ToLower(project.Title+" "+project.Description), keywords)
		results = append(results, types.SearchResult{
			Type:           types.ResultProject,
			ID:             project.ID,
			Data:           &project,
			RelevanceScore: fractionMatched(matched, keywords),
			MatchReason:    "Project mentions: " + strings.Join(matched, ", "),
		})
	}
	return results, nil
}

func matchedTerms(haystack string, keywords []string) []string {
	matched := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func fractionMatched(matched, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	return float64(len(matched)) / float64(len(keywords))
}
