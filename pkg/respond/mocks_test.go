package respond

import (
	"context"
	"strings"

	"github.com/knnymrls/whoknows/pkg/llm"
	"github.com/knnymrls/whoknows/pkg/types"
)

// mockLLM is a canned-answer model client that counts invocations.
type mockLLM struct {
	response     string
	err          error
	chatCalls    int
	streamCalls  int
	lastMessages []types.Message
}

func (m *mockLLM) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	m.chatCalls++
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &types.Response{Content: m.response}, nil
}

func (m *mockLLM) ChatStream(ctx context.Context, messages []types.Message, onToken llm.TokenFunc) (*types.Response, error) {
	m.streamCalls++
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	for _, word := range strings.SplitAfter(m.response, " ") {
		if err := onToken(word); err != nil {
			return nil, err
		}
	}
	return &types.Response{Content: m.response}, nil
}

func (m *mockLLM) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, out any) error {
	return nil
}

func (m *mockLLM) Close() error { return nil }

func profileHit(id, name string, hasExperiences bool, score float64) types.SearchResult {
	return types.SearchResult{
		Type: types.ResultProfile,
		ID:   id,
		Data: &types.Profile{
			ID:             id,
			Name:           name,
			HasExperiences: hasExperiences,
		},
		RelevanceScore: score,
		MatchReason:    "Has skill: golang",
	}
}
