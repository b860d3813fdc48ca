package openrouter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"eventsImporter/internal/config"
	"eventsImporter/internal/models/domain"

	"github.com/google/uuid"
	openrouter "github.com/revrost/go-openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
	last    openrouter.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.last = req
	if i < len(f.errs) && f.errs[i] != nil {
		return openrouter.ChatCompletionResponse{}, f.errs[i]
	}
	text := ""
	if i < len(f.replies) {
		text = f.replies[i]
	}
	return openrouter.ChatCompletionResponse{
		Choices: []openrouter.ChatCompletionChoice{
			{Message: openrouter.ChatCompletionMessage{Content: openrouter.Content{Text: text}}},
		},
	}, nil
}

type fakeRepo struct {
	mu      sync.Mutex
	updates map[uuid.UUID]string
	err     error
}

func (r *fakeRepo) UpdateEventGenre(_ context.Context, id uuid.UUID, genre string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.updates[id] = genre
	return nil
}

func testConfig() *config.Config {
	return &config.Config{BotConfig: config.BotConfig{AI: config.AIConfig{
		Timeout:          time.Second,
		ModelName:        "test/model",
		SystemRolePrompt: "classify",
		JobBufferSize:    2,
		WorkersCount:     1,
	}}}
}

func newTestClient(c Completer, repo Repository) *Openrouter {
	s := newWithCompleter(discardLogger(), testConfig(), c, repo)
	s.retryDelay = time.Millisecond
	return s
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"genre":["jazz"]}`, want: `{"genre":["jazz"]}`},
		{name: "markdown fence", in: "```json\n{\"genre\":\"rock\"}\n```", want: `{"genre":"rock"}`},
		{name: "bare fence", in: "```\n{\"genre\":\"rock\"}\n```", want: `{"genre":"rock"}`},
		{name: "trailing text", in: `{"genre":"techno"} hope this helps`, want: `{"genre":"techno"}`},
		{name: "brace inside string", in: `{"genre":"a}b"} tail`, want: `{"genre":"a}b"}`},
		{name: "escaped quote", in: `{"genre":"a\"}"} tail`, want: `{"genre":"a\"}"}`},
		{name: "no object", in: `no json here`, want: `no json here`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.in))
		})
	}
}

func TestClassifyGenre(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"```json\n{\"genre\":[\"Jazz\",\"jazz\",\"Soul\"]}\n```"}}
	s := newTestClient(fc, &fakeRepo{updates: map[uuid.UUID]string{}})

	resp, err := s.ClassifyGenre(context.Background(), discardLogger(), uuid.New(), domain.Event{Title: "Jazz Night", VenueName: "Smalls"})
	require.NoError(t, err)
	assert.Equal(t, "jazz, soul", resp.String())

	require.NotNil(t, fc.last.ResponseFormat)
	assert.Equal(t, "test/model", fc.last.Model)
	require.Len(t, fc.last.Messages, 2)
}

func TestClassifyGenre_RetriesOnRateLimit(t *testing.T) {
	fc := &fakeCompleter{
		errs:    []error{errors.New("status 429: too many requests"), errors.New("unexpected EOF"), nil},
		replies: []string{"", "", `{"genre":"house"}`},
	}
	s := newTestClient(fc, &fakeRepo{updates: map[uuid.UUID]string{}})

	resp, err := s.ClassifyGenre(context.Background(), discardLogger(), uuid.New(), domain.Event{Title: "Deep"})
	require.NoError(t, err)
	assert.Equal(t, "house", resp.String())
	assert.Equal(t, 3, fc.calls)
}

func TestClassifyGenre_Errors(t *testing.T) {
	tests := []struct {
		name string
		fc   *fakeCompleter
	}{
		{name: "non retryable", fc: &fakeCompleter{errs: []error{errors.New("401 unauthorized")}}},
		{name: "bad json", fc: &fakeCompleter{replies: []string{"not json"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestClient(tt.fc, &fakeRepo{updates: map[uuid.UUID]string{}})
			_, err := s.ClassifyGenre(context.Background(), discardLogger(), uuid.New(), domain.Event{Title: "x"})
			require.Error(t, err)
			assert.Equal(t, 1, tt.fc.calls)
		})
	}
}

func TestOpenrouter_EnrichesEvent(t *testing.T) {
	fc := &fakeCompleter{replies: []string{`{"genre":"jazz"}`}}
	repo := &fakeRepo{updates: map[uuid.UUID]string{}}
	s := newTestClient(fc, repo)
	go s.Start()
	defer s.Shutdown(context.Background())

	ev := domain.Event{ID: uuid.New(), Title: "Jazz Night"}
	done, err := s.AddJob(uuid.New(), ev)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, "jazz", repo.updates[ev.ID])
}

func TestOpenrouter_SkipsEventWithGenre(t *testing.T) {
	fc := &fakeCompleter{}
	repo := &fakeRepo{updates: map[uuid.UUID]string{}}
	s := newTestClient(fc, repo)
	go s.Start()
	defer s.Shutdown(context.Background())

	done, err := s.AddJob(uuid.New(), domain.Event{ID: uuid.New(), Genre: "rock"})
	require.NoError(t, err)
	<-done

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Zero(t, fc.calls)
	assert.Empty(t, repo.updates)
}

func TestOpenrouter_AddJobAfterShutdown(t *testing.T) {
	s := newTestClient(&fakeCompleter{}, &fakeRepo{updates: map[uuid.UUID]string{}})

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))

	_, err := s.AddJob(uuid.New(), domain.Event{})
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestOpenrouter_BufferFull(t *testing.T) {
	s := newTestClient(&fakeCompleter{}, &fakeRepo{updates: map[uuid.UUID]string{}})

	for range 2 {
		_, err := s.AddJob(uuid.New(), domain.Event{})
		require.NoError(t, err)
	}
	_, err := s.AddJob(uuid.New(), domain.Event{})
	assert.ErrorIs(t, err, ErrBufferFull)
}
