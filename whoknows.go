package whoknows

import (
	"log/slog"

	"github.com/knnymrls/whoknows/pkg/respond"
	"github.com/knnymrls/whoknows/pkg/retrieval"
	"github.com/knnymrls/whoknows/pkg/session"
	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/telemetry"
)

// Client is the root pipeline: retrieval, synthesis, session memory and
// conversation logging behind the Asker contract.
type Client struct {
	store     store.Store
	sessions  session.Store
	retriever *retrieval.Agent
	responder *respond.Agent
	telemetry *telemetry.Recorder
	logger    *slog.Logger
}

var _ Asker = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTelemetry enables per-turn telemetry recording.
func WithTelemetry(recorder *telemetry.Recorder) Option {
	return func(c *Client) { c.telemetry = recorder }
}

// New assembles a Client from its collaborators.
func New(st store.Store, sessions session.Store, retriever *retrieval.Agent, responder *respond.Agent, opts ...Option) *Client {
	c := &Client{
		store:     st,
		sessions:  sessions,
		retriever: retriever,
		responder: responder,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close flushes telemetry and releases the session store. The datastore
// is owned by the caller that opened it.
func (c *Client) Close() error {
	if c.telemetry != nil {
		if err := c.telemetry.Close(); err != nil {
			c.logger.Warn("flushing telemetry failed", "error", err)
		}
	}
	return c.sessions.Close()
}
