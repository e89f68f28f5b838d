package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyMessage = errors.New("message cannot be empty")
	ErrEmptyUserID  = errors.New("user_id cannot be empty")
	ErrEmptyQuery   = errors.New("query cannot be empty")
)

// Intent classifies what a query is asking for. Classification is an
// ordered decision list: the first matching pattern group wins.
type Intent string

const (
	IntentFindPeople        Intent = "find_people"
	IntentFindProjects      Intent = "find_projects"
	IntentFindActivity      Intent = "find_activity"
	IntentFindKnowledge     Intent = "find_knowledge"
	IntentFindRelationships Intent = "find_relationships"
	IntentAnalytical        Intent = "analytical"
	IntentTemporal          Intent = "temporal"
	IntentExploratory       Intent = "exploratory"
	IntentSpecific          Intent = "specific"
	IntentGeneral           Intent = "general"
)

// EntityType is the kind of an entity extracted from query text.
type EntityType string

const (
	EntityPerson    EntityType = "person"
	EntityProject   EntityType = "project"
	EntitySkill     EntityType = "skill"
	EntityTimeframe EntityType = "timeframe"
	EntityLocation  EntityType = "location"
	EntityRole      EntityType = "role"
)

// ExtractedEntity is a term pulled out of the query text. Confidence
// reflects pattern-match certainty, not verified existence in the store.
type ExtractedEntity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
}

// TimeConstraint bounds a query to a time window. When only Relative is
// set (the positional-pattern fallback path), Start and End are nil and
// callers must treat the constraint as unresolved: temporal filtering is
// best-effort and skips constraints without concrete bounds.
type TimeConstraint struct {
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Relative string     `json:"relative,omitempty"`
}

// Resolved reports whether the constraint carries concrete bounds.
func (tc *TimeConstraint) Resolved() bool {
	return tc != nil && tc.Start != nil && tc.End != nil
}

// Mentions holds explicit @-style references found in the query.
type Mentions struct {
	People   []string `json:"people"`
	Projects []string `json:"projects"`
}

// ParsedQuery is the structured form of a free-text query. It is created
// once per query by the parser, is immutable after creation, and is
// consumed by every downstream component.
type ParsedQuery struct {
	Original string            `json:"original_query"`
	Intent   Intent            `json:"intent"`
	Entities []ExtractedEntity `json:"entities"`
	Keywords []string          `json:"keywords"`
	Time     *TimeConstraint   `json:"time_constraints,omitempty"`
	Mentions Mentions          `json:"mentions"`
}

// EntityValues returns the raw values of entities matching any of the
// given types. With no types it returns every entity value.
func (p *ParsedQuery) EntityValues(entityTypes ...EntityType) []string {
	values := make([]string, 0, len(p.Entities))
	for _, e := range p.Entities {
		if len(entityTypes) == 0 {
			values = append(values, e.Value)
			continue
		}
		for _, t := range entityTypes {
			if e.Type == t {
				values = append(values, e.Value)
				break
			}
		}
	}
	return values
}

// GapImportance ranks how much a detected data gap matters. Only
// high-importance gaps are converted into follow-up data requests.
type GapImportance string

const (
	GapHigh   GapImportance = "high"
	GapMedium GapImportance = "medium"
	GapLow    GapImportance = "low"
)

// DataGap describes missing evidence detected from the shape of organized
// search results.
type DataGap struct {
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Importance  GapImportance `json:"importance"`
}

// RequestType names a targeted follow-up fetch issued to close a data gap.
type RequestType string

const (
	RequestRecentActivity    RequestType = "recent_activity"
	RequestExperienceDetails RequestType = "experience_details"
	RequestProjectDetails    RequestType = "project_details"
	RequestSkillVerification RequestType = "skill_verification"
	RequestSpecificPerson    RequestType = "specific_person"
)

// DataRequest is a concrete follow-up fetch derived from a high-importance
// gap. Parameters are request-type specific (entity ids, lookback windows,
// name patterns).
type DataRequest struct {
	Type       RequestType    `json:"type"`
	Parameters map[string]any `json:"parameters"`
	Reason     string         `json:"reason"`
}

// Source is a citation surfaced to the end user alongside the answer.
type Source struct {
	Type           ResultType `json:"type"`
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Author         string     `json:"author,omitempty"`
	RelevanceScore float64    `json:"relevance_score"`
}

// ProgressPhase identifies a pipeline phase for advisory status events.
type ProgressPhase string

const (
	PhaseAnalyzing      ProgressPhase = "analyzing"
	PhaseSearching      ProgressPhase = "searching"
	PhaseExploring      ProgressPhase = "exploring"
	PhaseSynthesizing   ProgressPhase = "synthesizing"
	PhaseRequestingMore ProgressPhase = "requesting_more"
)

// ProgressUpdate is a fire-and-forget status event. Progress is advisory:
// a caller with no progress sink gets identical results.
type ProgressUpdate struct {
	Phase   ProgressPhase `json:"type"`
	Message string        `json:"message"`
	Emoji   string        `json:"emoji"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn exchanged with the language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is a completed language model reply.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}
