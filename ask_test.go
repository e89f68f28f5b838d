package whoknows

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knnymrls/whoknows/pkg/llm"
	"github.com/knnymrls/whoknows/pkg/query"
	"github.com/knnymrls/whoknows/pkg/respond"
	"github.com/knnymrls/whoknows/pkg/retrieval"
	"github.com/knnymrls/whoknows/pkg/search"
	"github.com/knnymrls/whoknows/pkg/session"
	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/types"
)

// loggedMessage is one conversation row captured by the mock store.
type loggedMessage struct {
	sessionID string
	role      types.Role
	content   string
}

// mockStore implements store.Store with canned data and call counters.
type mockStore struct {
	mu sync.Mutex

	createCalls int
	touchCalls  int
	logged      []loggedMessage

	recentPosts []types.Post
	recentCalls int
	lastAuthors []string

	experiences map[string][]types.Experience
}

func newMockStore() *mockStore {
	return &mockStore{experiences: make(map[string][]types.Experience)}
}

func (m *mockStore) MatchProfilesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.ProfileMatch, error) {
	return nil, nil
}

func (m *mockStore) MatchPostsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.PostMatch, error) {
	return nil, nil
}

func (m *mockStore) MatchProjectsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.ProjectMatch, error) {
	return nil, nil
}

func (m *mockStore) MatchProjectRequestsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.ProjectRequestMatch, error) {
	return nil, nil
}

func (m *mockStore) FindProfilesMatching(ctx context.Context, terms []string) ([]types.Profile, error) {
	return nil, nil
}

func (m *mockStore) FindExperiencesMatching(ctx context.Context, terms []string) ([]types.Experience, error) {
	return nil, nil
}

func (m *mockStore) FindSkillsMatching(ctx context.Context, terms []string) ([]types.Skill, error) {
	return nil, nil
}

func (m *mockStore) FindPostsMatching(ctx context.Context, terms []string) ([]types.Post, error) {
	return nil, nil
}

func (m *mockStore) FindProjectsMatching(ctx context.Context, terms []string) ([]types.Project, error) {
	return nil, nil
}

func (m *mockStore) ProfileByID(ctx context.Context, id string) (*types.Profile, error) {
	return nil, nil
}

func (m *mockStore) ProjectByID(ctx context.Context, id string) (*types.Project, error) {
	return nil, nil
}

func (m *mockStore) PostByID(ctx context.Context, id string) (*types.Post, error) { return nil, nil }

func (m *mockStore) SkillsForProfile(ctx context.Context, profileID string) ([]types.Skill, error) {
	return nil, nil
}

func (m *mockStore) ExperiencesForProfile(ctx context.Context, profileID string) ([]types.Experience, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.experiences[profileID], nil
}

func (m *mockStore) EducationsForProfile(ctx context.Context, profileID string) ([]types.Education, error) {
	return nil, nil
}

func (m *mockStore) ContributionsForProject(ctx context.Context, projectID string) ([]types.Contribution, error) {
	return nil, nil
}

func (m *mockStore) ProjectsForProfile(ctx context.Context, profileID string) ([]types.Project, error) {
	return nil, nil
}

func (m *mockStore) PostsByAuthor(ctx context.Context, profileID string, limit int) ([]types.Post, error) {
	return nil, nil
}

func (m *mockStore) PostsMentioningProject(ctx context.Context, projectID string, limit int) ([]types.Post, error) {
	return nil, nil
}

func (m *mockStore) MentionsForPost(ctx context.Context, postID string) ([]string, []string, error) {
	return nil, nil, nil
}

func (m *mockStore) RecentPostsByAuthors(ctx context.Context, profileIDs []string, since time.Time, limit int) ([]types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recentCalls++
	m.lastAuthors = profileIDs
	return m.recentPosts, nil
}

func (m *mockStore) CreateSession(ctx context.Context, userID, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	return "sess-1", nil
}

func (m *mockStore) TouchSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touchCalls++
	return nil
}

func (m *mockStore) LogMessage(ctx context.Context, sessionID string, role types.Role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logged = append(m.logged, loggedMessage{sessionID: sessionID, role: role, content: content})
	return nil
}

func (m *mockStore) Ping(ctx context.Context) error { return nil }
func (m *mockStore) Close() error                   { return nil }

// stubStrategy is a canned search strategy.
type stubStrategy struct {
	results []types.SearchResult
	err     error
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Execute(ctx context.Context, q string, params *search.Params) ([]types.SearchResult, error) {
	return s.results, s.err
}

// mockLLM counts invocations and returns a canned answer.
type mockLLM struct {
	mu           sync.Mutex
	response     string
	err          error
	chatCalls    int
	streamCalls  int
	lastMessages []types.Message
}

func (m *mockLLM) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatCalls++
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &types.Response{Content: m.response}, nil
}

func (m *mockLLM) ChatStream(ctx context.Context, messages []types.Message, onToken llm.TokenFunc) (*types.Response, error) {
	m.mu.Lock()
	m.streamCalls++
	m.lastMessages = messages
	m.mu.Unlock()
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

func skilledProfileResult(id, name string) types.SearchResult {
	return types.SearchResult{
		Type: types.ResultProfile,
		ID:   id,
		Data: &types.Profile{
			ID:             id,
			Name:           name,
			Skills:         []types.Skill{{ID: "s1", ProfileID: id, Name: "golang"}},
			HasExperiences: true,
		},
		RelevanceScore: 0.9,
		MatchReason:    "Has skill: golang",
	}
}

// bareProfileResult is a profile with nothing loaded, for gap scenarios.
func bareProfileResult(id, name string) types.SearchResult {
	return types.SearchResult{
		Type:           types.ResultProfile,
		ID:             id,
		Data:           &types.Profile{ID: id, Name: name},
		RelevanceScore: 0.9,
		MatchReason:    "stub",
	}
}

type testPipeline struct {
	client   *Client
	store    *mockStore
	llm      *mockLLM
	sessions *session.MemoryStore
}

func newTestPipeline(t *testing.T, semantic *stubStrategy, answer string) *testPipeline {
	t.Helper()

	st := newMockStore()
	model := &mockLLM{response: answer}
	sessions := session.NewMemoryStore()
	t.Cleanup(func() { _ = sessions.Close() })

	retriever := retrieval.NewAgent(
		query.NewParser(),
		semantic,
		&stubStrategy{},
		&stubStrategy{},
		nil,
	)
	responder := respond.NewAgent(model, nil)

	return &testPipeline{
		client:   New(st, sessions, retriever, responder),
		store:    st,
		llm:      model,
		sessions: sessions,
	}
}

func TestAskValidation(t *testing.T) {
	p := newTestPipeline(t, &stubStrategy{}, "answer")

	_, err := p.client.Ask(context.Background(), &AskRequest{UserID: "u1"})
	assert.ErrorIs(t, err, types.ErrEmptyMessage)

	_, err = p.client.Ask(context.Background(), &AskRequest{Message: "hi"})
	assert.ErrorIs(t, err, types.ErrEmptyUserID)
}

func TestAskAnswers(t *testing.T) {
	semantic := &stubStrategy{results: []types.SearchResult{skilledProfileResult("p1", "Ada")}}
	p := newTestPipeline(t, semantic, "Ada is your Go person.")

	resp, err := p.client.Ask(context.Background(), &AskRequest{Message: "Who knows golang?", UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, "Ada is your Go person.", resp.Answer)
	assert.Equal(t, "sess-1", resp.SessionID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Ada", resp.Sources[0].Name)

	assert.Equal(t, 1, p.store.createCalls)
	assert.Equal(t, 1, p.llm.chatCalls)
	assert.Zero(t, p.llm.streamCalls)

	// Both turns were logged against the session.
	require.Len(t, p.store.logged, 2)
	assert.Equal(t, types.RoleUser, p.store.logged[0].role)
	assert.Equal(t, types.RoleAssistant, p.store.logged[1].role)
}

func TestAskResumesSession(t *testing.T) {
	semantic := &stubStrategy{results: []types.SearchResult{skilledProfileResult("p1", "Ada")}}
	p := newTestPipeline(t, semantic, "Ada again.")

	first, err := p.client.Ask(context.Background(), &AskRequest{Message: "Who knows golang?", UserID: "u1"})
	require.NoError(t, err)

	_, err = p.client.Ask(context.Background(), &AskRequest{
		Message:   "What has she shipped?",
		UserID:    "u1",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, p.store.createCalls, "existing session is not recreated")
	assert.Equal(t, 1, p.store.touchCalls)

	// The second synthesis sees the first turn as history.
	var sawHistory bool
	for _, msg := range p.llm.lastMessages {
		if msg.Content == "Who knows golang?" {
			sawHistory = true
		}
	}
	assert.True(t, sawHistory)
}

func TestAskAugmentsThenAnswers(t *testing.T) {
	// Activity question that retrieves only people: attempt one defers
	// with a recent-activity request, augmentation pulls their posts, and
	// the final attempt answers.
	semantic := &stubStrategy{results: []types.SearchResult{bareProfileResult("p1", "Ada")}}
	p := newTestPipeline(t, semantic, "Ada shipped the kafka rollout this week.")
	p.store.recentPosts = []types.Post{
		{ID: "post1", AuthorID: "p1", Content: "kafka rollout done", CreatedAt: time.Now().AddDate(0, 0, -2)},
	}

	resp, err := p.client.Ask(context.Background(), &AskRequest{
		Message: "What's new from the data team?",
		UserID:  "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada shipped the kafka rollout this week.", resp.Answer)
	assert.Equal(t, 1, p.store.recentCalls)
	assert.Equal(t, []string{"p1"}, p.store.lastAuthors)
	assert.Equal(t, 1, p.llm.chatCalls, "only the post-augmentation attempt reaches the model")

	// The fetched post appears in the prompt context.
	last := p.llm.lastMessages[len(p.llm.lastMessages)-1]
	assert.Contains(t, last.Content, "kafka rollout done")
}

func TestAskAugmentationIsBounded(t *testing.T) {
	// Augmentation finds nothing, so the gap persists. The final attempt
	// must still answer rather than loop.
	semantic := &stubStrategy{results: []types.SearchResult{bareProfileResult("p1", "Ada")}}
	p := newTestPipeline(t, semantic, "Nothing recent from Ada.")

	resp, err := p.client.Ask(context.Background(), &AskRequest{
		Message: "What's new from the data team?",
		UserID:  "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nothing recent from Ada.", resp.Answer)
	assert.Equal(t, 1, p.store.recentCalls)
	assert.Equal(t, 1, p.llm.chatCalls)
}

func TestAskStreamEventOrdering(t *testing.T) {
	semantic := &stubStrategy{results: []types.SearchResult{skilledProfileResult("p1", "Ada")}}
	p := newTestPipeline(t, semantic, "Ada is your Go person.")

	var events []StreamEvent
	err := p.client.AskStream(context.Background(), &AskRequest{
		Message: "Who knows golang?",
		UserID:  "u1",
	}, func(e StreamEvent) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	// status* -> token* -> sources -> done, with no interleaving.
	var answer strings.Builder
	stage := 0
	for _, e := range events {
		switch e.Type {
		case EventStatus:
			assert.Equal(t, 0, stage, "status after tokens started")
		case EventToken:
			stage = 1
			answer.WriteString(e.Content)
		case EventSources:
			assert.Equal(t, 1, stage)
			stage = 2
			require.Len(t, e.Sources, 1)
		case EventDone:
			assert.Equal(t, 2, stage)
			stage = 3
			assert.Equal(t, "sess-1", e.SessionID)
		case EventError:
			t.Fatalf("unexpected error event: %s", e.Message)
		}
	}
	assert.Equal(t, 3, stage, "stream must end with done")
	assert.Equal(t, "Ada is your Go person.", answer.String())
	assert.Equal(t, 1, p.llm.streamCalls)
	assert.Zero(t, p.llm.chatCalls)
}

func TestAskStreamEmitsErrorEvent(t *testing.T) {
	semantic := &stubStrategy{err: context.DeadlineExceeded}
	p := newTestPipeline(t, semantic, "unused")

	var events []StreamEvent
	err := p.client.AskStream(context.Background(), &AskRequest{
		Message: "Who knows golang?",
		UserID:  "u1",
	}, func(e StreamEvent) error {
		events = append(events, e)
		return nil
	})
	require.Error(t, err)

	var errorEvents int
	for _, e := range events {
		if e.Type == EventError {
			errorEvents++
			assert.NotEmpty(t, e.Message)
		}
	}
	assert.Equal(t, 1, errorEvents)
	assert.NotEqual(t, EventDone, events[len(events)-1].Type, "no done after failure")
}

func TestAskSessionContextRemembered(t *testing.T) {
	semantic := &stubStrategy{results: []types.SearchResult{skilledProfileResult("p1", "Ada")}}
	p := newTestPipeline(t, semantic, "Ada is your Go person.")

	resp, err := p.client.Ask(context.Background(), &AskRequest{Message: "Who knows golang?", UserID: "u1"})
	require.NoError(t, err)

	sctx, err := p.sessions.Get(resp.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sctx)

	assert.Equal(t, "Who knows golang?", sctx.LastQuery)
	require.Len(t, sctx.History, 2)
	assert.Equal(t, "Ada is your Go person.", sctx.History[1].Content)
	assert.Contains(t, sctx.LastEntities, types.ExtractedEntity{
		Type: types.EntitySkill, Value: "golang", Confidence: 0.9,
	})
}
