package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupeKey(t *testing.T) {
	r := SearchResult{Type: ResultProfile, ID: "p1"}
	assert.Equal(t, "profile:p1", r.DedupeKey())
}

func TestSearchResultsAppendAndTotal(t *testing.T) {
	results := &SearchResults{}
	assert.Equal(t, 0, results.Total())

	results.Append(SearchResult{Type: ResultProfile, ID: "p1"})
	results.Append(SearchResult{Type: ResultPost, ID: "post1"})
	results.Append(SearchResult{Type: ResultProject, ID: "proj1"})
	results.Relationships = append(results.Relationships, Relationship{
		Source: "p1", Target: "post1", Type: RelationAuthored,
	})

	assert.Len(t, results.Profiles, 1)
	assert.Len(t, results.Posts, 1)
	assert.Len(t, results.Projects, 1)
	assert.Equal(t, 3, results.Total(), "relationships are not counted")
}

func TestBucket(t *testing.T) {
	results := &SearchResults{
		Experiences: []SearchResult{{Type: ResultExperience, ID: "e1"}},
	}

	assert.Equal(t, results.Experiences, results.Bucket(ResultExperience))
	assert.Nil(t, results.Bucket(ResultType("unknown")))
}

func TestSortBuckets(t *testing.T) {
	results := &SearchResults{
		Profiles: []SearchResult{
			{Type: ResultProfile, ID: "low", RelevanceScore: 0.3},
			{Type: ResultProfile, ID: "high", RelevanceScore: 0.9},
			{Type: ResultProfile, ID: "mid", RelevanceScore: 0.6},
		},
		Posts: []SearchResult{
			{Type: ResultPost, ID: "b", RelevanceScore: 0.4},
			{Type: ResultPost, ID: "a", RelevanceScore: 0.8},
		},
	}

	results.SortBuckets()

	assert.Equal(t, []string{"high", "mid", "low"}, resultIDs(results.Profiles))
	assert.Equal(t, []string{"a", "b"}, resultIDs(results.Posts))
}

func TestEntityValues(t *testing.T) {
	q := &ParsedQuery{Entities: []ExtractedEntity{
		{Type: EntitySkill, Value: "golang"},
		{Type: EntityRole, Value: "engineer"},
		{Type: EntitySkill, Value: "kafka"},
		{Type: EntityPerson, Value: "Sarah Chen"},
	}}

	assert.Equal(t, []string{"golang", "kafka"}, q.EntityValues(EntitySkill))
	assert.Equal(t, []string{"golang", "engineer", "kafka"}, q.EntityValues(EntitySkill, EntityRole))
	assert.Len(t, q.EntityValues(), 4, "no types means every entity")
	assert.Empty(t, q.EntityValues(EntityProject))
}

func TestTimeConstraintResolved(t *testing.T) {
	now := time.Now()

	var nilConstraint *TimeConstraint
	assert.False(t, nilConstraint.Resolved())
	assert.False(t, (&TimeConstraint{Relative: "since 2023"}).Resolved())
	assert.False(t, (&TimeConstraint{Start: &now}).Resolved())
	assert.True(t, (&TimeConstraint{Start: &now, End: &now}).Resolved())
}

func resultIDs(results []SearchResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}
