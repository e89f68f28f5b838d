package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knnymrls/whoknows/pkg/types"
)

// flakyClient fails until told otherwise.
type flakyClient struct {
	failing bool
	calls   int
}

func (f *flakyClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	f.calls++
	if f.failing {
		return nil, errors.New("upstream unavailable")
	}
	return &types.Response{Content: "ok"}, nil
}

func (f *flakyClient) ChatStream(ctx context.Context, messages []types.Message, onToken TokenFunc) (*types.Response, error) {
	return f.Chat(ctx, messages)
}

func (f *flakyClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, out any) error {
	_, err := f.Chat(ctx, messages)
	return err
}

func (f *flakyClient) Close() error { return nil }

func TestWithCircuitBreakerDisabledReturnsClientUnchanged(t *testing.T) {
	inner := &flakyClient{}
	wrapped := WithCircuitBreaker(inner, BreakerConfig{Enabled: false}, nil)
	assert.Same(t, Client(inner), wrapped)
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	inner := &flakyClient{}
	wrapped := WithCircuitBreaker(inner, BreakerConfig{
		Enabled:          true,
		Timeout:          60,
		ReadyToTripRatio: 0.6,
	}, nil)

	resp, err := wrapped.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 1, inner.calls)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	inner := &flakyClient{failing: true}
	wrapped := WithCircuitBreaker(inner, BreakerConfig{
		Enabled:          true,
		Timeout:          60,
		ReadyToTripRatio: 0.6,
	}, nil)

	// Three consecutive failures trip the breaker.
	for i := 0; i < 3; i++ {
		_, err := wrapped.Chat(context.Background(), nil)
		require.Error(t, err)
	}
	callsWhenTripped := inner.calls

	// Open breaker fails fast without reaching the upstream.
	_, err := wrapped.Chat(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsWhenTripped, inner.calls)
}

func TestCircuitBreakerWrapsAllOperations(t *testing.T) {
	inner := &flakyClient{}
	wrapped := WithCircuitBreaker(inner, BreakerConfig{
		Enabled:          true,
		Timeout:          60,
		ReadyToTripRatio: 0.6,
	}, nil)

	_, err := wrapped.ChatStream(context.Background(), nil, func(string) error { return nil })
	require.NoError(t, err)

	require.NoError(t, wrapped.ChatWithStructuredOutput(context.Background(), nil, nil))
	require.NoError(t, wrapped.Close())
	assert.Equal(t, 3, inner.calls)
}
