package respond

import (
	"github.com/knnymrls/whoknows/pkg/types"
)

// lookbackDays is the recent-activity window handed to augmentation
// requests.
const lookbackDays = 30

// detectGaps inspects the shape of the organized results for missing
// evidence the current intent would need. Only called when sufficiency
// fell below the trigger.
func detectGaps(results *types.SearchResults, intent types.Intent) []types.DataGap {
	var gaps []types.DataGap

	switch intent {
	case types.IntentFindPeople:
		if len(results.Profiles) > 0 && len(results.Posts) == 0 {
			gaps = append(gaps, types.DataGap{
				Type:        string(types.RequestRecentActivity),
				Description: "found people but no recent posts from them",
				Importance:  types.GapMedium,
			})
		}
		if profilesMissingExperiences(results.Profiles) != nil {
			gaps = append(gaps, types.DataGap{
				Type:        string(types.RequestExperienceDetails),
				Description: "some matched people have no work experience loaded",
				Importance:  types.GapHigh,
			})
		}

	case types.IntentFindProjects:
		if projectsMissingContributions(results.Projects) != nil {
			gaps = append(gaps, types.DataGap{
				Type:        string(types.RequestProjectDetails),
				Description: "some matched projects have no contributor data loaded",
				Importance:  types.GapHigh,
			})
		}

	case types.IntentFindActivity:
		if len(results.Posts) == 0 && len(results.Profiles) > 0 {
			gaps = append(gaps, types.DataGap{
				Type:        string(types.RequestRecentActivity),
				Description: "activity was asked for but no posts were retrieved",
				Importance:  types.GapHigh,
			})
		}
	}

	return gaps
}

// buildDataRequests converts high-importance gaps into targeted store
// fetches. Medium and low gaps are noted but never block synthesis.
func buildDataRequests(gaps []types.DataGap, results *types.SearchResults) []types.DataRequest {
	var requests []types.DataRequest

	for _, gap := range gaps {
		if gap.Importance != types.GapHigh {
			continue
		}

		switch types.RequestType(gap.Type) {
		case types.RequestExperienceDetails:
			ids := profilesMissingExperiences(results.Profiles)
			requests = append(requests, types.DataRequest{
				Type:       types.RequestExperienceDetails,
				Parameters: map[string]any{"profile_ids": ids},
				Reason:     "Work experience details are needed to answer confidently about these people",
			})

		case types.RequestProjectDetails:
			ids := projectsMissingContributions(results.Projects)
			requests = append(requests, types.DataRequest{
				Type:       types.RequestProjectDetails,
				Parameters: map[string]any{"project_ids": ids},
				Reason:     "Contributor details are needed to describe these projects",
			})

		case types.RequestRecentActivity:
			ids := profileIDs(results.Profiles)
			requests = append(requests, types.DataRequest{
				Type:       types.RequestRecentActivity,
				Parameters: map[string]any{"profile_ids": ids, "days": lookbackDays},
				Reason:     "Recent posts are needed to describe what these people have been working on",
			})
		}
	}

	return requests
}

func profilesMissingExperiences(profiles []types.SearchResult) []string {
	var ids []string
	for _, r := range profiles {
		profile, ok := r.Data.(*types.Profile)
		if !ok {
			continue
		}
		if !profile.HasExperiences {
			ids = append(ids, profile.ID)
		}
	}
	return ids
}

func projectsMissingContributions(projects []types.SearchResult) []string {
	var ids []string
	for _, r := range projects {
		project, ok := r.Data.(*types.Project)
		if !ok {
			continue
		}
		if !project.HasContributions {
			ids = append(ids, project.ID)
		}
	}
	return ids
}

func profileIDs(profiles []types.SearchResult) []string {
	ids := make([]string, 0, len(profiles))
	for _, r := range profiles {
		ids = append(ids, r.ID)
	}
	return ids
}
