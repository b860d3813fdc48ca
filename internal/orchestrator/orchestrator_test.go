package orchestrator

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeScraper struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (f *fakeScraper) AddJob(_ uuid.UUID, url string) (chan struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.urls = append(f.urls, url)
	done := make(chan struct{})
	close(done)
	return done, nil
}

func (f *fakeScraper) queued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

type fakeAI struct {
	events chan domain.Event
}

func (f *fakeAI) AddJob(_ uuid.UUID, event domain.Event) (chan struct{}, error) {
	f.events <- event
	return make(chan struct{}), nil
}

type fakeNotifier struct {
	events chan domain.Event
	err    error
}

func (f *fakeNotifier) SendEvent(_ context.Context, event domain.Event) error {
	f.events <- event
	return f.err
}

func testConfig(sites ...string) *config.Config {
	cfg := &config.Config{}
	for _, s := range sites {
		cfg.ScraperConfig.Sites = append(cfg.ScraperConfig.Sites, config.SiteConfig{Name: s, URL: s})
	}
	return cfg
}

func receive(t *testing.T, ch chan domain.Event) domain.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
		return domain.Event{}
	}
}

func TestOrchestrator_PublishesCompletedEvents(t *testing.T) {
	completed := make(chan domain.Event, 1)
	ai := &fakeAI{events: make(chan domain.Event, 1)}
	notifier := &fakeNotifier{events: make(chan domain.Event, 1)}

	o := New(discardLogger(), testConfig(), &fakeScraper{}, ai, notifier, completed)
	o.Start()
	defer o.Shutdown(context.Background())

	completed <- domain.Event{Slug: "jazz-night"}

	assert.Equal(t, "jazz-night", receive(t, ai.events).Slug)
	assert.Equal(t, "jazz-night", receive(t, notifier.events).Slug)
}

func TestOrchestrator_PublishWithoutOptionalServices(t *testing.T) {
	o := New(discardLogger(), testConfig(), &fakeScraper{}, nil, nil, make(chan domain.Event))

	assert.NotPanics(t, func() { o.Publish(domain.Event{Slug: "x"}) })
	require.NoError(t, o.Shutdown(context.Background()))
}

func TestOrchestrator_PublishAfterShutdown(t *testing.T) {
	notifier := &fakeNotifier{events: make(chan domain.Event, 1)}
	o := New(discardLogger(), testConfig(), &fakeScraper{}, nil, notifier, make(chan domain.Event))
	require.NoError(t, o.Shutdown(context.Background()))

	o.Publish(domain.Event{Slug: "late"})

	select {
	case <-notifier.events:
		t.Fatal("event published after shutdown")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOrchestrator_NotifierErrorIsLogged(t *testing.T) {
	notifier := &fakeNotifier{events: make(chan domain.Event, 1), err: errors.New("telegram down")}
	o := New(discardLogger(), testConfig(), &fakeScraper{}, nil, notifier, make(chan domain.Event))

	o.Publish(domain.Event{Slug: "x"})
	receive(t, notifier.events)
	require.NoError(t, o.Shutdown(context.Background()))
}

func TestOrchestrator_QueuesConfiguredSites(t *testing.T) {
	sc := &fakeScraper{}
	o := New(discardLogger(), testConfig("https://www.facebook.com/events/1", "https://www.facebook.com/events/2"), sc, nil, nil, make(chan domain.Event))
	o.Start()
	defer o.Shutdown(context.Background())

	assert.Equal(t, []string{"https://www.facebook.com/events/1", "https://www.facebook.com/events/2"}, sc.queued())
	o.WaitAll()
}

func TestOrchestrator_AddJobError(t *testing.T) {
	sc := &fakeScraper{err: errors.New("buffer full")}
	o := New(discardLogger(), testConfig("https://www.facebook.com/events/1"), sc, nil, nil, make(chan domain.Event))

	assert.Error(t, o.AddJob("https://www.facebook.com/events/1"))
	assert.Zero(t, o.QueueSites())
}

func TestOrchestrator_Schedule(t *testing.T) {
	o := New(discardLogger(), testConfig(), &fakeScraper{}, nil, nil, make(chan domain.Event))
	defer o.Shutdown(context.Background())

	assert.Error(t, o.Schedule("not a schedule"))
	assert.NoError(t, o.Schedule("@every 1h"))
}

func TestOrchestrator_AddJobDropsFinishedJobs(t *testing.T) {
	o := New(discardLogger(), testConfig(), &fakeScraper{}, nil, nil, make(chan domain.Event))

	for i := 0; i < 1000; i++ {
		require.NoError(t, o.AddJob("https://www.facebook.com/events/1"))
	}

	o.mu.Lock()
	retained := len(o.doneChans)
	o.mu.Unlock()

	assert.LessOrEqual(t, retained, 1)
}

func TestPruneDone(t *testing.T) {
	finished := make(chan struct{})
	close(finished)
	running := make(chan struct{})

	pending := pruneDone([]chan struct{}{finished, running, finished})
	assert.Equal(t, []chan struct{}{running}, pending)
}
