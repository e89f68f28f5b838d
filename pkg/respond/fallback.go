package respond

import (
	"strings"

	"github.com/knnymrls/whoknows/pkg/types"
)

// maxFollowUps caps the suggested questions appended to a fallback
// answer.
const maxFollowUps = 3

// buildFallbackResponse produces a query-aware answer without calling the
// model: acknowledge what was searched for, hint at what usually helps
// for this intent, and suggest follow-up questions in priority order.
func buildFallbackResponse(parsed *types.ParsedQuery) string {
	var b strings.Builder

	b.WriteString("I couldn't find anything matching ")
	b.WriteString(describeTarget(parsed))
	b.WriteString(". ")
	b.WriteString(intentHint(parsed.Intent))

	questions := followUpQuestions(parsed)
	if len(questions) > 0 {
		b.WriteString("\n\nA few things we could try:\n")
		for _, q := range questions {
			b.WriteString("- " + q + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// describeTarget re-describes the parsed query in plain words so the user
// sees what was actually searched.
func describeTarget(parsed *types.ParsedQuery) string {
	var parts []string

	if skills := parsed.EntityValues(types.EntitySkill); len(skills) > 0 {
		parts = append(parts, "people or work involving "+strings.Join(skills, ", "))
	}
	if roles := parsed.EntityValues(types.EntityRole); len(roles) > 0 {
		parts = append(parts, strings.Join(roles, ", ")+" roles")
	}
	if people := parsed.EntityValues(types.EntityPerson); len(people) > 0 {
		parts = append(parts, strings.Join(people, ", "))
	}
	if projects := parsed.EntityValues(types.EntityProject); len(projects) > 0 {
		parts = append(parts, "the "+strings.Join(projects, ", ")+" project")
	}

	target := "your search"
	if len(parts) > 0 {
		target = strings.Join(parts, " and ")
	}

	if parsed.Time != nil && parsed.Time.Relative != "" {
		target += " from " + parsed.Time.Relative
	}
	return target
}

func intentHint(intent types.Intent) string {
	switch intent {
	case types.IntentFindPeople:
		return "People show up here through their profile, skills, and what they post about."
	case types.IntentFindProjects:
		return "Projects show up here once someone creates them or posts about them."
	case types.IntentFindActivity:
		return "Activity comes from posts, so quiet teams can look emptier than they are."
	case types.IntentFindKnowledge:
		return "Knowledge surfaces through posts and project work more than titles."
	case types.IntentFindRelationships:
		return "Connections are built from co-authored projects and mentions."
	default:
		return "It may just not be captured here yet."
	}
}

// followUpQuestions picks up to three suggestions by priority: relax the
// time window first, broaden skills second, then an intent-specific
// alternative, then the generic prompt.
func followUpQuestions(parsed *types.ParsedQuery) []string {
	var questions []string
	seen := make(map[string]struct{})
	add := func(q string) {
		if len(questions) >= maxFollowUps {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		questions = append(questions, q)
	}

	if parsed.Time != nil {
		add("Want me to search without the time window?")
	}
	if skills := parsed.EntityValues(types.EntitySkill); len(skills) > 0 {
		add("Should I broaden the search to skills related to " + strings.Join(skills, ", ") + "?")
	}

	switch parsed.Intent {
	case types.IntentFindPeople:
		add("Would projects using these skills help, even without a named person?")
	case types.IntentFindProjects:
		add("Want me to look for people with relevant skills instead?")
	case types.IntentFindActivity:
		add("Should I look further back than the recent window?")
	}

	add("Could you tell me a bit more about what you're looking for?")
	return questions
}
