package whoknows

import "github.com/knnymrls/whoknows/pkg/types"

// EventType discriminates streamed events.
type EventType string

const (
	EventStatus  EventType = "status"
	EventToken   EventType = "token"
	EventSources EventType = "sources"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// StreamEvent is one event on the streaming path. Events arrive in order:
// zero or more status events, then token events as the answer streams,
// then one sources event, then a terminal done (or a single error at any
// point).
type StreamEvent struct {
	Type      EventType      `json:"type"`
	Message   string         `json:"message,omitempty"`
	Content   string         `json:"content,omitempty"`
	Sources   []types.Source `json:"sources,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
}

// EventSink consumes stream events. Returning an error abandons the
// stream; no further events are delivered.
type EventSink func(StreamEvent) error
