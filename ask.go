package whoknows

import (
	"context"
	"time"

	"github.com/knnymrls/whoknows/pkg/respond"
	"github.com/knnymrls/whoknows/pkg/retrieval"
	"github.com/knnymrls/whoknows/pkg/session"
	"github.com/knnymrls/whoknows/pkg/telemetry"
	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	// maxSynthesisAttempts bounds the synthesize/augment loop. The final
	// attempt always produces an answer, even if gaps remain.
	maxSynthesisAttempts = 2

	// maxHistoryMessages caps the chat history handed to synthesis:
	// ten turns, user plus assistant each.
	maxHistoryMessages = 20

	// sessionTitleLength truncates the first message into a session
	// title.
	sessionTitleLength = 50
)

// Ask runs the full pipeline for one message and returns the complete
// answer.
func (c *Client) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	return c.run(ctx, req, nil)
}

// AskStream runs the pipeline delivering events through sink. A failure
// at any stage emits a single error event; partial token output is not
// retracted.
func (c *Client) AskStream(ctx context.Context, req *AskRequest, sink EventSink) error {
	_, err := c.run(ctx, req, sink)
	if err != nil && sink != nil {
		// Best effort; the sink may already be gone.
		_ = sink(StreamEvent{Type: EventError, Message: err.Error()})
	}
	return err
}

func (c *Client) run(ctx context.Context, req *AskRequest, sink EventSink) (*AskResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	sessionID, sctx, err := c.resumeSession(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.store.LogMessage(ctx, sessionID, types.RoleUser, req.Message); err != nil {
		c.logger.Warn("logging user message failed", "session_id", sessionID, "error", err)
	}

	progress := func(update types.ProgressUpdate) {
		emitStatus(sink, update.Emoji+" "+update.Message)
	}

	parsed, results, err := c.retriever.Retrieve(ctx, req.Message, retrieval.ProgressFunc(progress))
	if err != nil {
		c.recordTurn(req, sessionID, nil, nil, 0, 0, sink != nil, start, err)
		return nil, err
	}

	history := sctx.History
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	emitStatus(sink, "✍️ Putting together an answer...")

	var (
		result   *respond.Result
		attempts int
	)
	for attempt := 1; attempt <= maxSynthesisAttempts; attempt++ {
		attempts = attempt
		opts := &respond.SynthesisOptions{Final: attempt == maxSynthesisAttempts}
		if sink != nil {
			opts.OnToken = func(token string) error {
				return sink(StreamEvent{Type: EventToken, Content: token})
			}
		}

		result, err = c.responder.Synthesize(ctx, parsed, results, history, opts)
		if err != nil {
			sufficiency := 0.0
			if result != nil {
				sufficiency = result.Sufficiency
			}
			c.recordTurn(req, sessionID, parsed, results, attempts, sufficiency, sink != nil, start, err)
			return nil, err
		}
		if !result.NeedsMoreData {
			break
		}

		emitStatus(sink, "📡 Gathering a bit more detail...")
		if err := c.augment(ctx, results, result.DataRequests); err != nil {
			c.recordTurn(req, sessionID, parsed, results, attempts, result.Sufficiency, sink != nil, start, err)
			return nil, err
		}
	}

	c.rememberTurn(sessionID, req, parsed, result.Answer)

	if err := c.store.LogMessage(ctx, sessionID, types.RoleAssistant, result.Answer); err != nil {
		c.logger.Warn("logging assistant message failed", "session_id", sessionID, "error", err)
	}

	c.recordTurn(req, sessionID, parsed, results, attempts, result.Sufficiency, sink != nil, start, nil)

	if sink != nil {
		if err := sink(StreamEvent{Type: EventSources, Sources: result.Sources}); err != nil {
			return nil, err
		}
		if err := sink(StreamEvent{Type: EventDone, SessionID: sessionID}); err != nil {
			return nil, err
		}
	}

	return &AskResponse{
		Answer:    result.Answer,
		Sources:   result.Sources,
		SessionID: sessionID,
	}, nil
}

// resumeSession creates or touches the persistent session row and loads
// the in-process conversational context.
func (c *Client) resumeSession(ctx context.Context, req *AskRequest) (string, *session.Context, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		title := req.Message
		if len(title) > sessionTitleLength {
			title = title[:sessionTitleLength]
		}
		created, err := c.store.CreateSession(ctx, req.UserID, title)
		if err != nil {
			return "", nil, err
		}
		sessionID = created
	} else if err := c.store.TouchSession(ctx, sessionID); err != nil {
		c.logger.Warn("touching session failed", "session_id", sessionID, "error", err)
	}

	sctx, err := c.sessions.Get(sessionID)
	if err != nil {
		c.logger.Warn("loading session context failed", "session_id", sessionID, "error", err)
	}
	if sctx == nil {
		sctx = &session.Context{SessionID: sessionID, UserID: req.UserID}
	}
	return sessionID, sctx, nil
}

// rememberTurn updates the in-process conversational context. Best
// effort: a failed write costs follow-up resolution, not the answer.
func (c *Client) rememberTurn(sessionID string, req *AskRequest, parsed *types.ParsedQuery, answer string) {
	sctx, err := c.sessions.Get(sessionID)
	if err != nil || sctx == nil {
		sctx = &session.Context{SessionID: sessionID, UserID: req.UserID}
	}
	sctx.Remember(req.Message, parsed.Entities, parsed.Mentions,
		types.Message{Role: types.RoleUser, Content: req.Message},
		types.Message{Role: types.RoleAssistant, Content: answer},
	)
	if err := c.sessions.Put(sessionID, sctx); err != nil {
		c.logger.Warn("saving session context failed", "session_id", sessionID, "error", err)
	}
}

func (c *Client) recordTurn(req *AskRequest, sessionID string, parsed *types.ParsedQuery, results *types.SearchResults, attempts int, sufficiency float64, streamed bool, start time.Time, turnErr error) {
	if c.telemetry == nil {
		return
	}

	record := telemetry.TurnRecord{
		SessionID:   sessionID,
		UserID:      req.UserID,
		Query:       req.Message,
		Attempts:    attempts,
		Sufficiency: sufficiency,
		Streamed:    streamed,
		DurationMS:  time.Since(start).Milliseconds(),
	}
	if parsed != nil {
		record.Intent = string(parsed.Intent)
	}
	if results != nil {
		record.ResultCount = results.Total()
	}
	if turnErr != nil {
		record.ErrorMessage = turnErr.Error()
	}
	if err := c.telemetry.Record(record); err != nil {
		c.logger.Warn("recording turn telemetry failed", "error", err)
	}
}

func emitStatus(sink EventSink, message string) {
	if sink == nil {
		return
	}
	_ = sink(StreamEvent{Type: EventStatus, Message: message})
}
