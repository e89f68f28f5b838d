package respond

import (
	"time"

	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	// sufficiencyGapTrigger: scores below this enter gap detection.
	sufficiencyGapTrigger = 0.3

	// recentActivityWindow bounds what counts as "recent" for activity
	// scoring and lookback requests.
	recentActivityWindow = 30 * 24 * time.Hour
)

// evaluateSufficiency scores how well the organized results can answer
// the query's intent, 0 to 1. Each intent carries its own weighted
// checklist; intents without one use the result-volume default.
func evaluateSufficiency(results *types.SearchResults, intent types.Intent, now time.Time) float64 {
	if results.Total() == 0 {
		return 0
	}

	var score float64
	switch intent {
	case types.IntentFindPeople:
		if len(results.Profiles) > 0 {
			score += 0.5
		}
		if anyProfileWithEvidence(results.Profiles) {
			score += 0.3
		}
		if len(results.Experiences) > 0 {
			score += 0.2
		}

	case types.IntentFindProjects:
		if len(results.Projects) > 0 {
			score += 0.7
		}
		if len(results.Posts) > 0 {
			score += 0.2
		}

	case types.IntentFindActivity:
		if len(results.Posts) > 0 {
			score += 0.6
		}
		if anyPostWithin(results.Posts, now.Add(-recentActivityWindow)) {
			score += 0.3
		}

	case types.IntentFindKnowledge:
		if len(results.Profiles) > 0 {
			score += 0.4
		}
		if len(results.Posts) > 0 {
			score += 0.3
		}
		if len(results.Projects) > 0 {
			score += 0.3
		}

	case types.IntentFindRelationships:
		if len(results.Relationships) > 0 {
			score += 0.5
		}
		if len(results.Profiles) > 0 {
			score += 0.3
		}
		if len(results.Projects) > 0 {
			score += 0.2
		}

	case types.IntentTemporal:
		if len(results.Posts) > 0 {
			score += 0.6
		}
		if anyPostWithin(results.Posts, now.Add(-recentActivityWindow)) {
			score += 0.2
		}
		if len(results.Projects) > 0 {
			score += 0.2
		}

	default:
		if results.Total() > 5 {
			score = 0.7
		} else {
			score = 0.4
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// anyProfileWithEvidence reports whether any profile hit carries skills
// or experiences backing up the match.
func anyProfileWithEvidence(profiles []types.SearchResult) bool {
	for _, r := range profiles {
		profile, ok := r.Data.(*types.Profile)
		if !ok {
			continue
		}
		if len(profile.Skills) > 0 || len(profile.Experiences) > 0 {
			return true
		}
	}
	return false
}

func anyPostWithin(posts []types.SearchResult, since time.Time) bool {
	for _, r := range posts {
		post, ok := r.Data.(*types.Post)
		if !ok {
			continue
		}
		if post.CreatedAt.After(since) {
			return true
		}
	}
	return false
}
