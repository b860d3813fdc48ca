package imagehost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventsImporter/internal/fallback"
	"eventsImporter/internal/metrics"
)

var ErrNoHosts = errors.New("no image hosts configured")

// Cache хранит уже перезалитые картинки по исходному URL.
type Cache interface {
	GetImage(ctx context.Context, original string) (url string, service string, ok bool)
	SetImage(ctx context.Context, original string, url string, service string)
}

// Result — итог перезаливки.
type Result struct {
	URL     string
	Service string
}

// Service скачивает картинку и перебирает хостинги до первого успешного.
type Service struct {
	log        *slog.Logger
	downloader *Downloader
	hosts      []Host
	timeout    time.Duration
	cache      Cache
	metrics    *metrics.Metrics
}

// New создаёт сервис. cache и m могут быть nil.
func New(log *slog.Logger, downloader *Downloader, hosts []Host, timeout time.Duration, cache Cache, m *metrics.Metrics) *Service {
	return &Service{
		log:        log,
		downloader: downloader,
		hosts:      hosts,
		timeout:    timeout,
		cache:      cache,
		metrics:    m,
	}
}

// Hosts возвращает имена хостингов в порядке перебора.
func (s *Service) Hosts() []string {
	names := make([]string, len(s.hosts))
	for i, h := range s.hosts {
		names[i] = h.Name()
	}
	return names
}

func (s *Service) Rehost(ctx context.Context, imageURL string) (Result, error) {
	op := "Service.Rehost()"
	log := s.log.With(slog.String("op", op))

	if err := s.downloader.ValidateURL(imageURL); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if url, service, ok := s.cache.GetImage(ctx, imageURL); ok {
			log.Debug("image found in cache", slog.String("service", service))
			return Result{URL: url, Service: service}, nil
		}
	}

	if len(s.hosts) == 0 {
		return Result{}, fmt.Errorf("%s: %w", op, ErrNoHosts)
	}

	img, err := s.downloader.Download(ctx, imageURL)
	if err != nil {
		return Result{}, fmt.Errorf("%s: download: %w", op, err)
	}

	attempts := make([]fallback.Attempt[string], 0, len(s.hosts))
	for _, h := range s.hosts {
		attempts = append(attempts, fallback.Attempt[string]{
			Name: h.Name(),
			Run: func(ctx context.Context) (string, error) {
				url, err := h.Upload(ctx, img)
				s.metrics.ImageUpload(h.Name(), err == nil)
				if err != nil {
					log.Debug("image host failed", slog.String("service", h.Name()), slog.String("error", err.Error()))
				}
				return url, err
			},
		})
	}

	url, service, err := fallback.First(ctx, s.timeout, attempts...)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("image rehosted", slog.String("service", service), slog.Int("bytes", len(img.Data)))

	// ссылки file.io одноразовые
	if s.cache != nil && service != NameFileIO {
		s.cache.SetImage(ctx, imageURL, url, service)
	}

	return Result{URL: url, Service: service}, nil
}
