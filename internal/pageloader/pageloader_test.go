package pageloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventPage = `<html><head><title>Jazz Night | Facebook</title></head><body><h1>Jazz Night</h1></body></html>`

func newLoader() *Loader {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Second, "test-agent/1.0")
}

func TestLoader_Load(t *testing.T) {
	uaCh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case uaCh <- r.UserAgent():
		default:
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(eventPage))
	}))
	defer srv.Close()

	html, err := newLoader().Load(context.Background(), srv.URL+"/events/123/")

	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Jazz Night</h1>")
	assert.Equal(t, "test-agent/1.0", <-uaCh)
}

func TestLoader_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newLoader().Load(context.Background(), srv.URL+"/events/404/")

	assert.Error(t, err)
}

func TestLoader_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newLoader().Load(ctx, srv.URL+"/events/1/")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
