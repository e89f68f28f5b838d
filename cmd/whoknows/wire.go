package whoknows

import (
	"fmt"
	"log/slog"

	root "github.com/knnymrls/whoknows"
	"github.com/knnymrls/whoknows/pkg/config"
	"github.com/knnymrls/whoknows/pkg/embedder"
	"github.com/knnymrls/whoknows/pkg/llm"
	"github.com/knnymrls/whoknows/pkg/logger"
	"github.com/knnymrls/whoknows/pkg/query"
	"github.com/knnymrls/whoknows/pkg/respond"
	"github.com/knnymrls/whoknows/pkg/retrieval"
	"github.com/knnymrls/whoknows/pkg/search"
	"github.com/knnymrls/whoknows/pkg/session"
	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/telemetry"
)

// pipeline holds everything a command needs to run queries and shut down
// cleanly.
type pipeline struct {
	client *root.Client
	store  store.Store
	logger *slog.Logger
}

// close releases the pipeline's resources in reverse build order.
func (p *pipeline) close() {
	if err := p.client.Close(); err != nil {
		p.logger.Warn("closing client failed", "error", err)
	}
	if err := p.store.Close(); err != nil {
		p.logger.Warn("closing store failed", "error", err)
	}
}

// buildPipeline assembles the full query pipeline from configuration.
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))
	slog.SetDefault(log)

	st, err := store.NewPostgresStore(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	emb := embedder.NewOpenAIEmbedder(embedder.Config{
		Model:   cfg.Embedding.Model,
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
	})

	llmClient := llm.WithCircuitBreaker(
		llm.NewOpenAIClient(llm.Config{
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		llm.BreakerConfig{
			Enabled:          cfg.CircuitBreaker.Enabled,
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
		},
		log,
	)

	sessions, err := buildSessionStore(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	retriever := retrieval.NewAgent(
		query.NewParser(),
		search.NewSemanticStrategy(st, st, emb),
		search.NewKeywordStrategy(st, st, query.NewExpander()),
		search.NewGraphStrategy(st),
		log,
	)
	responder := respond.NewAgent(llmClient, log)

	opts := []root.Option{root.WithLogger(log)}
	if cfg.Telemetry.Enabled {
		recorder, err := telemetry.NewRecorder(cfg.Telemetry.ParquetPath)
		if err != nil {
			st.Close()
			sessions.Close()
			return nil, fmt.Errorf("initializing telemetry: %w", err)
		}
		opts = append(opts, root.WithTelemetry(recorder))
	}

	client := root.New(st, sessions, retriever, responder, opts...)
	return &pipeline{client: client, store: st, logger: log}, nil
}

func buildSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "badger":
		return session.NewBadgerStore(cfg.Session.Path)
	default:
		return session.NewMemoryStore(), nil
	}
}
