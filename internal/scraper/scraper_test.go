package scraper

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

type fakeExtractor struct {
	results map[string]domain.Result
}

func (f *fakeExtractor) Extract(_ context.Context, pageURL string, _ string) domain.Result {
	if res, ok := f.results[pageURL]; ok {
		return res
	}
	return domain.Err("no page")
}

type fakeImporter struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (f *fakeImporter) Import(_ context.Context, data domain.EventData) (domain.Event, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Event{}, false, f.err
	}
	ev := domain.Event{ID: uuid.New(), Title: data.EventTitle, FacebookURL: data.FacebookURL}
	if f.seen[data.FacebookURL] {
		return ev, false, nil
	}
	f.seen[data.FacebookURL] = true
	return ev, true, nil
}

func testConfig(buffer int) *config.Config {
	return &config.Config{ScraperConfig: config.ScraperConfig{
		JobBufferSize: buffer,
		WorkersCount:  2,
		Timeout:       time.Second,
	}}
}

func eventResult(title, url string) domain.Result {
	return domain.Ok(domain.EventData{EventTitle: title, FacebookURL: url, Promoters: []string{}}, domain.NewExtractedEvent())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not completed")
	}
}

func TestScraper_ImportsAndPublishesCreatedEvents(t *testing.T) {
	ext := &fakeExtractor{results: map[string]domain.Result{
		"https://www.facebook.com/events/1/": eventResult("Jazz Night", "https://www.facebook.com/events/1/"),
		"https://www.facebook.com/events/2/": domain.Err("extraction timed out"),
		"https://www.facebook.com/events/3/": eventResult(domain.NotEventPageTitle, ""),
	}}
	imp := &fakeImporter{seen: map[string]bool{}}
	s := New(discardLogger(), testConfig(10), ext, imp, nil)
	go s.Start()

	for _, url := range []string{
		"https://www.facebook.com/events/1/",
		"https://www.facebook.com/events/2/",
		"https://www.facebook.com/events/3/",
		"https://www.facebook.com/events/1/",
	} {
		done, err := s.AddJob(uuid.New(), url)
		require.NoError(t, err)
		waitDone(t, done)
	}

	require.Len(t, s.CompletedEventsChan, 1)
	ev := <-s.CompletedEventsChan
	assert.Equal(t, "Jazz Night", ev.Title)

	require.NoError(t, s.Shutdown(context.Background()))

	_, ok := <-s.CompletedEventsChan
	assert.False(t, ok)
}

func TestScraper_ImportErrorIsNotPublished(t *testing.T) {
	ext := &fakeExtractor{results: map[string]domain.Result{
		"u": eventResult("Jazz Night", "u"),
	}}
	s := New(discardLogger(), testConfig(1), ext, &fakeImporter{err: errors.New("db down")}, nil)
	go s.Start()

	done, err := s.AddJob(uuid.New(), "u")
	require.NoError(t, err)
	waitDone(t, done)

	assert.Len(t, s.CompletedEventsChan, 0)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestScraper_AddJob_BufferFull(t *testing.T) {
	s := New(discardLogger(), testConfig(1), &fakeExtractor{}, &fakeImporter{seen: map[string]bool{}}, nil)

	_, err := s.AddJob(uuid.New(), "a")
	require.NoError(t, err)

	_, err = s.AddJob(uuid.New(), "b")
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestScraper_AddJob_AfterShutdown(t *testing.T) {
	s := New(discardLogger(), testConfig(1), &fakeExtractor{}, &fakeImporter{seen: map[string]bool{}}, nil)

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))

	_, err := s.AddJob(uuid.New(), "a")
	assert.ErrorIs(t, err, ErrShuttingDown)
}
