package respond

import (
	"fmt"
	"strings"

	"github.com/knnymrls/whoknows/pkg/types"
)

// Per-section caps on how many items reach the prompt.
const (
	maxProfilesInContext        = 10
	maxProjectsInContext        = 10
	maxPostsInContext           = 15
	maxExperiencesInContext     = 10
	maxProjectRequestsInContext = 10
)

// buildContext renders the organized results as the dense per-type prompt
// sections the model synthesizes from. Empty sections are omitted; an
// entirely empty result set yields "".
func buildContext(results *types.SearchResults) string {
	var sections []string

	if section := renderSection("=== PEOPLE ===", results.Profiles, maxProfilesInContext, renderProfile); section != "" {
		sections = append(sections, section)
	}
	if section := renderSection("=== PROJECTS ===", results.Projects, maxProjectsInContext, renderProject); section != "" {
		sections = append(sections, section)
	}
	if section := renderSection("=== RECENT ACTIVITY ===", results.Posts, maxPostsInContext, renderPost); section != "" {
		sections = append(sections, section)
	}
	if section := renderSection("=== WORK EXPERIENCE ===", results.Experiences, maxExperiencesInContext, renderExperience); section != "" {
		sections = append(sections, section)
	}
	if section := renderSection("=== PROJECT OPPORTUNITIES ===", results.ProjectRequests, maxProjectRequestsInContext, renderProjectRequest); section != "" {
		sections = append(sections, section)
	}

	return strings.Join(sections, "\n\n")
}

func renderSection(header string, results []types.SearchResult, limit int, render func(types.SearchResult) string) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) > limit {
		results = results[:limit]
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, header)
	for _, r := range results {
		line := render(r)
		if line == "" {
			continue
		}
		if r.MatchReason != "" {
			line += " [" + r.MatchReason + "]"
		}
		lines = append(lines, line)
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func renderProfile(r types.SearchResult) string {
	profile, ok := r.Data.(*types.Profile)
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString("- " + profile.Name)
	if profile.Title != "" {
		b.WriteString(" (" + profile.Title + ")")
	}
	if profile.Location != "" {
		b.WriteString(", " + profile.Location)
	}
	if len(profile.Skills) > 0 {
		names := make([]string, 0, len(profile.Skills))
		for _, s := range profile.Skills {
			names = append(names, s.Name)
		}
		b.WriteString("; skills: " + strings.Join(names, ", "))
	}
	if len(profile.Experiences) > 0 {
		latest := profile.Experiences[0]
		b.WriteString(fmt.Sprintf("; latest role: %s at %s", latest.Role, latest.Company))
	}
	if profile.Bio != "" {
		b.WriteString("; " + truncate(profile.Bio, 120))
	}
	return b.String()
}

func renderProject(r types.SearchResult) string {
	project, ok := r.Data.(*types.Project)
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString("- " + project.Title)
	if project.Status != "" {
		b.WriteString(" (" + project.Status + ")")
	}
	if project.Description != "" {
		b.WriteString(": " + truncate(project.Description, 120))
	}
	if len(project.Contributions) > 0 {
		names := make([]string, 0, len(project.Contributions))
		for _, c := range project.Contributions {
			if c.Contributor != nil {
				names = append(names, c.Contributor.Name)
			}
		}
		if len(names) > 0 {
			b.WriteString("; contributors: " + strings.Join(names, ", "))
		}
	}
	return b.String()
}

func renderPost(r types.SearchResult) string {
	post, ok := r.Data.(*types.Post)
	if !ok {
		return ""
	}

	author := "Someone"
	if post.Author != nil && post.Author.Name != "" {
		author = post.Author.Name
	}
	return fmt.Sprintf("- %s posted on %s: %s",
		author, post.CreatedAt.Format("2006-01-02"), truncate(post.Content, 150))
}

func renderExperience(r types.SearchResult) string {
	exp, ok := r.Data.(*types.Experience)
	if !ok {
		return ""
	}

	span := exp.StartDate.Format("Jan 2006") + " - present"
	if exp.EndDate != nil {
		span = exp.StartDate.Format("Jan 2006") + " - " + exp.EndDate.Format("Jan 2006")
	}
	return fmt.Sprintf("- %s at %s (%s)", exp.Role, exp.Company, span)
}

func renderProjectRequest(r types.SearchResult) string {
	request, ok := r.Data.(*types.ProjectRequest)
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString("- " + request.Title)
	if len(request.SkillsNeeded) > 0 {
		b.WriteString("; looking for: " + strings.Join(request.SkillsNeeded, ", "))
	}
	if request.Creator != nil && request.Creator.Name != "" {
		b.WriteString("; posted by " + request.Creator.Name)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
