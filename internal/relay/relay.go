package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventsImporter/internal/fallback"
	"eventsImporter/internal/metrics"
	"eventsImporter/internal/models/domain"
)

const proxyPath = "/api/proxy-image"

// Сервисы, которые возвращает /api/proxy-image.
const (
	ServiceFileIO = "fileio"
	ServiceCatbox = "catbox"
	ServiceS3     = "s3"
	ServiceLocal  = "local"
)

// Cache хранит уже перезалитые картинки по исходному URL.
type Cache interface {
	GetImage(ctx context.Context, original string) (url string, service string, ok bool)
	SetImage(ctx context.Context, original string, url string, service string)
}

type proxyRequest struct {
	ImageURL string `json:"imageUrl"`
}

type proxyResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Service string `json:"service"`
	Error   string `json:"error,omitempty"`
}

type hosted struct {
	url     string
	service string
}

// Relay перезаливает картинку с CDN Facebook через локальный /api/proxy-image.
type Relay struct {
	log           *slog.Logger
	client        *http.Client
	discovery     *PortDiscovery
	uploadTimeout time.Duration
	cache         Cache
	metrics       *metrics.Metrics
}

// New создаёт релей. cache и m могут быть nil.
func New(log *slog.Logger, client *http.Client, discovery *PortDiscovery, uploadTimeout time.Duration, cache Cache, m *metrics.Metrics) *Relay {
	return &Relay{
		log:           log,
		client:        client,
		discovery:     discovery,
		uploadTimeout: uploadTimeout,
		cache:         cache,
		metrics:       m,
	}
}

// Relay возвращает адрес картинки, доступный из админки. При любой неудаче
// URL пустой: исходная ссылка CDN не возвращается никогда.
func (r *Relay) Relay(ctx context.Context, imageURL string) domain.ImageUpload {
	op := "Relay.Relay()"
	log := r.log.With(slog.String("op", op))

	upload := domain.ImageUpload{Original: imageURL}

	if strings.TrimSpace(imageURL) == "" {
		upload.Status = domain.ImageUploadSkipped
		return upload
	}

	if r.cache != nil {
		if url, service, ok := r.cache.GetImage(ctx, imageURL); ok {
			log.Debug("image found in cache", slog.String("service", service))
			upload.URL, upload.Service, upload.Status = url, service, domain.ImageUploadSuccess
			return upload
		}
	}

	upload.Status = domain.ImageUploadFailed

	port, ok := r.discovery.Discover(ctx)
	if !ok {
		r.metrics.RelayAttempt("no_port")
		return upload
	}

	res, name, err := fallback.First(ctx, r.uploadTimeout, r.attempts(port, imageURL)...)
	if err != nil {
		r.metrics.RelayAttempt("failed")
		log.Warn("image relay failed", slog.String("error", err.Error()))
		return upload
	}

	r.metrics.RelayAttempt("success")
	log.Debug("image relayed", slog.String("via", name), slog.String("service", res.service))

	upload.URL, upload.Service, upload.Status = res.url, res.service, domain.ImageUploadSuccess

	// ссылки file.io одноразовые
	if r.cache != nil && res.service != ServiceFileIO {
		r.cache.SetImage(ctx, imageURL, res.url, res.service)
	}

	return upload
}

// attempts строит цепочку: найденный порт, затем следующие за ним кандидаты.
func (r *Relay) attempts(found int, imageURL string) []fallback.Attempt[hosted] {
	ports := r.discovery.Ports()

	start := 0
	for i, p := range ports {
		if p == found {
			start = i
			break
		}
	}

	var attempts []fallback.Attempt[hosted]
	for _, port := range ports[start:] {
		origin := r.discovery.Origin(port)
		attempts = append(attempts, fallback.Attempt[hosted]{
			Name: origin,
			Run: func(ctx context.Context) (hosted, error) {
				return r.upload(ctx, origin, imageURL)
			},
		})
	}
	return attempts
}

func (r *Relay) upload(ctx context.Context, origin string, imageURL string) (hosted, error) {
	body, err := json.Marshal(proxyRequest{ImageURL: imageURL})
	if err != nil {
		return hosted{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+proxyPath, bytes.NewReader(body))
	if err != nil {
		return hosted{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return hosted{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return hosted{}, fmt.Errorf("proxy-image status %d", resp.StatusCode)
	}

	var pr proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return hosted{}, fmt.Errorf("decode proxy-image response: %w", err)
	}

	if !pr.Success || pr.URL == "" {
		return hosted{}, fmt.Errorf("proxy-image unsuccessful: %s", pr.Error)
	}

	return resolve(origin, pr)
}

// resolve превращает ответ прокси в итоговый URL.
// Внешние хостинги возвращаются как есть, local — относительно origin.
func resolve(origin string, pr proxyResponse) (hosted, error) {
	absolute := strings.HasPrefix(pr.URL, "https://") || strings.HasPrefix(pr.URL, "http://")

	switch pr.Service {
	case ServiceFileIO, ServiceCatbox, ServiceS3:
		if !absolute {
			return hosted{}, fmt.Errorf("service %s returned relative url %q", pr.Service, pr.URL)
		}
		return hosted{url: pr.URL, service: pr.Service}, nil
	case ServiceLocal:
		if absolute {
			return hosted{url: pr.URL, service: pr.Service}, nil
		}
		return hosted{url: origin + "/" + strings.TrimPrefix(pr.URL, "/"), service: pr.Service}, nil
	default:
		return hosted{}, fmt.Errorf("unknown image service %q", pr.Service)
	}
}
