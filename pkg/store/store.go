// Package store defines the datastore capability consumed by the search
// strategies and the orchestration layer, and provides a Postgres/pgvector
// implementation.
//
// The contract is split into focused interfaces so strategies depend on the
// smallest surface they need: similarity search, OR-pattern search,
// foreign-key fetches, and conversation logging.
package store

import (
	"context"
	"time"

	"github.com/knnymrls/whoknows/pkg/types"
)

// ProfileMatch is a similarity hit on the profiles table.
type ProfileMatch struct {
	Profile    types.Profile
	Similarity float64
}

// PostMatch is a similarity hit on the posts table.
type PostMatch struct {
	Post       types.Post
	Similarity float64
}

// ProjectMatch is a similarity hit on the projects table.
type ProjectMatch struct {
	Project    types.Project
	Similarity float64
}

// ProjectRequestMatch is a similarity hit on the project_requests table.
type ProjectRequestMatch struct {
	Request    types.ProjectRequest
	Similarity float64
}

// VectorSearcher performs embedding similarity search per entity table.
// Rows come back ordered by similarity descending, capped at limit.
type VectorSearcher interface {
	MatchProfilesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ProfileMatch, error)
	MatchPostsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]PostMatch, error)
	MatchProjectsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ProjectMatch, error)
	MatchProjectRequestsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ProjectRequestMatch, error)
}

// PatternSearcher performs case-insensitive OR-pattern substring search.
// Terms are raw keywords; implementations wrap them for matching.
type PatternSearcher interface {
	FindProfilesMatching(ctx context.Context, terms []string) ([]types.Profile, error)
	FindExperiencesMatching(ctx context.Context, terms []string) ([]types.Experience, error)
	FindSkillsMatching(ctx context.Context, terms []string) ([]types.Skill, error)
	FindPostsMatching(ctx context.Context, terms []string) ([]types.Post, error)
	FindProjectsMatching(ctx context.Context, terms []string) ([]types.Project, error)
}

// RelationFetcher resolves foreign-key relations between entities. Used by
// the graph traversal strategy, semantic enrichment, and data-gap
// augmentation.
type RelationFetcher interface {
	ProfileByID(ctx context.Context, id string) (*types.Profile, error)
	ProjectByID(ctx context.Context, id string) (*types.Project, error)
	PostByID(ctx context.Context, id string) (*types.Post, error)

	SkillsForProfile(ctx context.Context, profileID string) ([]types.Skill, error)
	ExperiencesForProfile(ctx context.Context, profileID string) ([]types.Experience, error)
	EducationsForProfile(ctx context.Context, profileID string) ([]types.Education, error)
	ContributionsForProject(ctx context.Context, projectID string) ([]types.Contribution, error)
	ProjectsForProfile(ctx context.Context, profileID string) ([]types.Project, error)

	PostsByAuthor(ctx context.Context, profileID string, limit int) ([]types.Post, error)
	PostsMentioningProject(ctx context.Context, projectID string, limit int) ([]types.Post, error)
	MentionsForPost(ctx context.Context, postID string) (profileIDs, projectIDs []string, err error)
	RecentPostsByAuthors(ctx context.Context, profileIDs []string, since time.Time, limit int) ([]types.Post, error)
}

// ConversationStore persists chat sessions and turns. Outside the core
// pipeline; used by the orchestration layer to log user/assistant turns.
type ConversationStore interface {
	CreateSession(ctx context.Context, userID, title string) (string, error)
	TouchSession(ctx context.Context, sessionID string) error
	LogMessage(ctx context.Context, sessionID string, role types.Role, content string) error
}

// Store composes the full datastore capability.
type Store interface {
	VectorSearcher
	PatternSearcher
	RelationFetcher
	ConversationStore

	Ping(ctx context.Context) error
	Close() error
}
