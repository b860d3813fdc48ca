package pageloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geziyor/geziyor"
	"github.com/geziyor/geziyor/client"
)

var ErrEmptyPage = errors.New("empty page")

// Loader скачивает HTML страницы события, когда в сообщении пришёл только URL.
type Loader struct {
	log       *slog.Logger
	timeout   time.Duration
	userAgent string
}

func New(log *slog.Logger, timeout time.Duration, userAgent string) *Loader {
	return &Loader{
		log:       log,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Load возвращает HTML страницы. geziyor не принимает контекст,
// поэтому отмена контекста только прекращает ожидание результата.
func (l *Loader) Load(ctx context.Context, url string) (string, error) {
	op := "Loader.Load()"
	log := l.log.With(slog.String("op", op), slog.String("url", url))

	var (
		mu      sync.Mutex
		body    string
		loadErr error
	)

	gez := geziyor.NewGeziyor(&geziyor.Options{
		StartURLs:         []string{url},
		UserAgent:         l.userAgent,
		Timeout:           l.timeout,
		RobotsTxtDisabled: true,
		LogDisabled:       true,
		ParseFunc: func(g *geziyor.Geziyor, r *client.Response) {
			mu.Lock()
			defer mu.Unlock()
			if r.StatusCode < 200 || r.StatusCode > 299 {
				loadErr = fmt.Errorf("unexpected status %d", r.StatusCode)
				return
			}
			body = string(r.Body)
		},
		ErrorFunc: func(g *geziyor.Geziyor, r *client.Request, err error) {
			mu.Lock()
			defer mu.Unlock()
			loadErr = err
		},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		gez.Start()
	}()

	select {
	case <-ctx.Done():
		log.Warn("page load abandoned", slog.String("error", ctx.Err().Error()))
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	case <-done:
	}

	mu.Lock()
	defer mu.Unlock()

	if loadErr != nil {
		return "", fmt.Errorf("%s: %w", op, loadErr)
	}
	if body == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyPage)
	}

	log.Debug("page loaded", slog.Int("bytes", len(body)))
	return body, nil
}
