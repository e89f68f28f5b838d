// Package session tracks short-lived conversational context so follow-up
// queries ("what about her?", "more like that") can be grounded in the
// previous turn. Two backends are provided: an in-process map with a
// time-based eviction sweep, and a Badger-backed store for deployments
// that restart often.
package session

import (
	"time"

	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	// TTL is how long an untouched session survives before eviction.
	TTL = 24 * time.Hour

	// maxHistoryTurns caps the user/assistant messages kept per session.
	// Older turns fall off the front.
	maxHistoryTurns = 10
)

// Context is everything remembered about one conversation.
type Context struct {
	SessionID    string                  `json:"session_id"`
	UserID       string                  `json:"user_id"`
	LastQuery    string                  `json:"last_query"`
	LastEntities []types.ExtractedEntity `json:"last_entities"`
	LastMentions types.Mentions          `json:"last_mentions"`
	History      []types.Message         `json:"history"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// Remember records a completed turn: the parsed query state plus the
// user/assistant message pair, trimming history to the cap.
func (c *Context) Remember(query string, entities []types.ExtractedEntity, mentions types.Mentions, userMsg, assistantMsg types.Message) {
	c.LastQuery = query
	c.LastEntities = entities
	c.LastMentions = mentions
	c.History = append(c.History, userMsg, assistantMsg)
	if len(c.History) > maxHistoryTurns*2 {
		c.History = c.History[len(c.History)-maxHistoryTurns*2:]
	}
}

// Store persists session contexts keyed by session id.
type Store interface {
	// Get returns the stored context, or nil when the session is unknown
	// or expired.
	Get(sessionID string) (*Context, error)
	Put(sessionID string, sc *Context) error
	Delete(sessionID string) error

	// EvictOlderThan drops sessions last touched before cutoff. Backends
	// with native expiry may treat this as a hint.
	EvictOlderThan(cutoff time.Time) error
	Close() error
}
