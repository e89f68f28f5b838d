// Package respond turns organized search results into an answer: score
// sufficiency against the query's intent, detect data gaps worth a
// follow-up fetch, build the prompt context, and synthesize through the
// language model (or a query-aware fallback when there is nothing to
// synthesize from).
package respond

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/knnymrls/whoknows/pkg/llm"
	"github.com/knnymrls/whoknows/pkg/types"
)

// Result is one synthesis outcome. When NeedsMoreData is set the answer
// is empty and DataRequests tell the caller what to fetch before trying
// again.
type Result struct {
	Answer        string              `json:"answer"`
	NeedsMoreData bool                `json:"needs_more_data"`
	DataRequests  []types.DataRequest `json:"data_requests,omitempty"`
	Sources       []types.Source      `json:"sources,omitempty"`

	// Sufficiency is the 0-1 score that drove the decision, kept for
	// telemetry.
	Sufficiency float64 `json:"-"`
}

// Agent synthesizes responses from organized search results.
type Agent struct {
	llm    llm.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewAgent wires a response agent over the given model client.
func NewAgent(client llm.Client, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{llm: client, logger: logger, now: time.Now}
}

// SynthesisOptions tunes one synthesis attempt. OnToken, when set,
// streams answer tokens as they arrive (the fallback path emits its
// canned answer as a single token). Final suppresses gap deferral so the
// attempt always produces an answer.
type SynthesisOptions struct {
	OnToken llm.TokenFunc
	Final   bool
}

// Synthesize produces an answer, or defers with data requests when the
// results are too thin to answer from and opts allow it.
func (a *Agent) Synthesize(ctx context.Context, parsed *types.ParsedQuery, results *types.SearchResults, history []types.Message, opts *SynthesisOptions) (*Result, error) {
	if opts == nil {
		opts = &SynthesisOptions{}
	}
	onToken := opts.OnToken

	score := evaluateSufficiency(results, parsed.Intent, a.now())
	a.logger.Debug("sufficiency evaluated", "intent", parsed.Intent, "score", score, "total", results.Total())

	if score < sufficiencyGapTrigger && !opts.Final {
		gaps := detectGaps(results, parsed.Intent)
		if requests := buildDataRequests(gaps, results); len(requests) > 0 {
			a.logger.Debug("deferring synthesis for augmentation", "requests", len(requests))
			return &Result{NeedsMoreData: true, DataRequests: requests, Sufficiency: score}, nil
		}
	}

	promptContext := buildContext(results)
	if promptContext == "" {
		// Nothing to synthesize from; skip the model call entirely.
		answer := buildFallbackResponse(parsed)
		if onToken != nil {
			if err := onToken(answer); err != nil {
				return nil, err
			}
		}
		return &Result{Answer: answer, Sufficiency: score}, nil
	}

	sources := extractSources(results)
	messages := a.buildMessages(parsed, promptContext, history)

	var (
		response *types.Response
		err      error
	)
	if onToken != nil {
		response, err = a.llm.ChatStream(ctx, messages, onToken)
	} else {
		response, err = a.llm.Chat(ctx, messages)
	}
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}

	if len(sources) > maxAttachedSources {
		sources = sources[:maxAttachedSources]
	}
	return &Result{Answer: response.Content, Sources: sources, Sufficiency: score}, nil
}

// buildMessages assembles system prompt, verbatim history, then the new
// user turn carrying the question and the rendered context.
func (a *Agent) buildMessages(parsed *types.ParsedQuery, promptContext string, history []types.Message) []types.Message {
	messages := make([]types.Message, 0, len(history)+2)
	messages = append(messages, llm.NewSystemMessage(buildSystemPrompt(parsed.Intent)))
	messages = append(messages, history...)
	messages = append(messages, llm.NewUserMessage(fmt.Sprintf("Question: %s\n\nContext:\n%s", parsed.Original, promptContext)))
	return messages
}
