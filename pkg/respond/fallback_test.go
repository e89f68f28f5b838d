package respond

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/knnymrls/whoknows/pkg/types"
)

func TestBuildFallbackResponseDescribesTarget(t *testing.T) {
	parsed := &types.ParsedQuery{
		Original: "Who knows rust and kafka?",
		Intent:   types.IntentFindPeople,
		Entities: []types.ExtractedEntity{
			{Type: types.EntitySkill, Value: "rust", Confidence: 0.9},
			{Type: types.EntitySkill, Value: "kafka", Confidence: 0.9},
		},
	}

	answer := buildFallbackResponse(parsed)
	assert.Contains(t, answer, "I couldn't find anything matching")
	assert.Contains(t, answer, "rust, kafka")
	assert.Contains(t, answer, "profile, skills")
}

func TestBuildFallbackResponseMentionsTimeWindow(t *testing.T) {
	start := time.Now().AddDate(0, 0, -7)
	end := time.Now()
	parsed := &types.ParsedQuery{
		Original: "What happened last week?",
		Intent:   types.IntentFindActivity,
		Time:     &types.TimeConstraint{Start: &start, End: &end, Relative: "last week"},
	}

	answer := buildFallbackResponse(parsed)
	assert.Contains(t, answer, "from last week")
	// Relaxing the time window is the first suggestion.
	assert.Contains(t, answer, "Want me to search without the time window?")
}

func TestBuildFallbackResponseGenericTarget(t *testing.T) {
	parsed := &types.ParsedQuery{Original: "hmm", Intent: types.IntentGeneral}

	answer := buildFallbackResponse(parsed)
	assert.Contains(t, answer, "your search")
	assert.Contains(t, answer, "Could you tell me a bit more")
}

func TestFollowUpQuestionsCappedAndOrdered(t *testing.T) {
	start := time.Now().AddDate(0, 0, -7)
	end := time.Now()
	parsed := &types.ParsedQuery{
		Original: "Which golang people posted last week?",
		Intent:   types.IntentFindPeople,
		Entities: []types.ExtractedEntity{
			{Type: types.EntitySkill, Value: "golang", Confidence: 0.9},
		},
		Time: &types.TimeConstraint{Start: &start, End: &end, Relative: "last week"},
	}

	questions := followUpQuestions(parsed)
	assert.Len(t, questions, maxFollowUps)
	assert.True(t, strings.Contains(questions[0], "time window"))
	assert.True(t, strings.Contains(questions[1], "golang"))
}
