package search

import (
	"github.com/knnymrls/whoknows/pkg/types"
)

// TemporalFilter keeps results that fall inside the resolved time window
// and annotates their match reason with the time qualifier. Filtering is
// best-effort: entity types without a meaningful timestamp (profiles,
// educations, project requests) pass through untouched, and an unresolved
// constraint leaves the input unchanged.
func TemporalFilter(results []types.SearchResult, tc *types.TimeConstraint) []types.SearchResult {
	if tc == nil || !tc.Resolved() {
		return results
	}

	qualifier := " (within " + tc.Relative + ")"
	if tc.Relative == "" {
		qualifier = " (within time window)"
	}

	filtered := make([]types.SearchResult, 0, len(results))
	for _, r := range results {
		keep, dated := inWindow(r.Data, tc)
		if !dated {
			filtered = append(filtered, r)
			continue
		}
		if !keep {
			continue
		}
		r.MatchReason += qualifier
		filtered = append(filtered, r)
	}
	return filtered
}

// inWindow reports whether the payload falls inside the constraint window
// and whether it carries a timestamp the filter can judge at all.
func inWindow(data types.Payload, tc *types.TimeConstraint) (keep, dated bool) {
	switch v := data.(type) {
	case *types.Post:
		return !v.CreatedAt.Before(*tc.Start) && !v.CreatedAt.After(*tc.End), true
	case *types.Project:
		return !v.CreatedAt.Before(*tc.Start) && !v.CreatedAt.After(*tc.End), true
	case *types.Experience:
		// An experience overlaps the window when it started before the
		// window closed and had not ended before the window opened.
		if v.StartDate.After(*tc.End) {
			return false, true
		}
		if v.EndDate != nil && v.EndDate.Before(*tc.Start) {
			return false, true
		}
		return true, true
	default:
		return false, false
	}
}
