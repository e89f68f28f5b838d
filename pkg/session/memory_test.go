package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knnymrls/whoknows/pkg/types"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	err := s.Put("sess1", &Context{SessionID: "sess1", UserID: "u1", LastQuery: "who knows go"})
	require.NoError(t, err)

	got, err := s.Get("sess1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "who knows go", got.LastQuery)
	assert.False(t, got.UpdatedAt.IsZero(), "Put stamps UpdatedAt")
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	got, err := s.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put("sess1", &Context{SessionID: "sess1", LastQuery: "original"}))

	first, err := s.Get("sess1")
	require.NoError(t, err)
	first.LastQuery = "mutated"

	second, err := s.Get("sess1")
	require.NoError(t, err)
	assert.Equal(t, "original", second.LastQuery)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put("sess1", &Context{SessionID: "sess1"}))
	require.NoError(t, s.Delete("sess1"))

	got, err := s.Get("sess1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	s.ttl = 10 * time.Millisecond

	require.NoError(t, s.Put("sess1", &Context{SessionID: "sess1"}))
	time.Sleep(25 * time.Millisecond)

	// Expired sessions read as missing even before the janitor sweeps.
	got, err := s.Get("sess1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreEvictOlderThan(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put("old", &Context{SessionID: "old"}))
	require.NoError(t, s.Put("new", &Context{SessionID: "new"}))

	// Backdate one session past the cutoff.
	s.mu.Lock()
	s.sessions["old"].UpdatedAt = time.Now().Add(-48 * time.Hour)
	s.mu.Unlock()

	require.NoError(t, s.EvictOlderThan(time.Now().Add(-TTL)))

	old, err := s.Get("old")
	require.NoError(t, err)
	assert.Nil(t, old)

	kept, err := s.Get("new")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestMemoryStoreCloseTwice(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestContextRemember(t *testing.T) {
	c := &Context{SessionID: "sess1"}

	entities := []types.ExtractedEntity{{Type: types.EntitySkill, Value: "golang", Confidence: 0.9}}
	mentions := types.Mentions{People: []string{"alice"}}

	c.Remember("who knows go", entities, mentions,
		types.Message{Role: types.RoleUser, Content: "who knows go"},
		types.Message{Role: types.RoleAssistant, Content: "Ada does."},
	)

	assert.Equal(t, "who knows go", c.LastQuery)
	assert.Equal(t, entities, c.LastEntities)
	assert.Equal(t, mentions, c.LastMentions)
	require.Len(t, c.History, 2)
	assert.Equal(t, types.RoleUser, c.History[0].Role)
	assert.Equal(t, types.RoleAssistant, c.History[1].Role)
}

func TestContextRememberTrimsHistory(t *testing.T) {
	c := &Context{}

	for i := 0; i < maxHistoryTurns+5; i++ {
		c.Remember("q", nil, types.Mentions{},
			types.Message{Role: types.RoleUser, Content: fmt.Sprintf("q%d", i)},
			types.Message{Role: types.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
	}

	require.Len(t, c.History, maxHistoryTurns*2)

	// Oldest turns fall off the front; the most recent pair survives.
	assert.Equal(t, fmt.Sprintf("q%d", 5), c.History[0].Content)
	assert.Equal(t, fmt.Sprintf("a%d", maxHistoryTurns+4), c.History[len(c.History)-1].Content)
}
