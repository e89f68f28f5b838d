package whoknows

import (
	"context"

	"github.com/knnymrls/whoknows/pkg/types"
)

// MentionType classifies an explicit inbound mention.
type MentionType string

const (
	MentionPerson  MentionType = "person"
	MentionProject MentionType = "project"
)

// Mention is an explicit entity reference attached to the request by the
// caller's UI, with the character span it occupies in the message.
type Mention struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Type  MentionType `json:"type"`
	Start int         `json:"start"`
	End   int         `json:"end"`
}

// AskRequest is one inbound chat message. Message and UserID are
// required.
type AskRequest struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId"`
	Mentions  []Mention `json:"mentions,omitempty"`
}

// Validate checks the required fields.
func (r *AskRequest) Validate() error {
	if r.Message == "" {
		return types.ErrEmptyMessage
	}
	if r.UserID == "" {
		return types.ErrEmptyUserID
	}
	return nil
}

// AskResponse is the non-streaming result of one chat turn.
type AskResponse struct {
	Answer    string         `json:"answer"`
	Sources   []types.Source `json:"sources"`
	SessionID string         `json:"sessionId"`
}

// Asker answers chat messages. It is the capability the HTTP server and
// CLI depend on.
type Asker interface {
	// Ask runs the full pipeline and returns the complete answer.
	Ask(ctx context.Context, req *AskRequest) (*AskResponse, error)

	// AskStream runs the pipeline delivering events through sink in
	// order: status* -> token* -> sources -> done. A failure at any stage
	// surfaces as a single error event.
	AskStream(ctx context.Context, req *AskRequest, sink EventSink) error
}
