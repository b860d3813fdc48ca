package importer

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
	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/models/dto"
)

// ImportPath — эндпоинт импорта на стороне приложения.
const ImportPath = "/api/events/import-from-email"

// Client отправляет извлечённые данные в API импорта. Origins перебираются по порядку.
type Client struct {
	log     *slog.Logger
	client  *http.Client
	origins []string
	timeout time.Duration
}

func NewClient(log *slog.Logger, client *http.Client, origins []string, timeout time.Duration) *Client {
	trimmed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			trimmed = append(trimmed, o)
		}
	}

	return &Client{
		log:     log,
		client:  client,
		origins: trimmed,
		timeout: timeout,
	}
}

// Import возвращает ссылку на созданное или уже существующее событие.
func (c *Client) Import(ctx context.Context, data domain.EventData) (domain.ImportRef, error) {
	op := "Client.Import()"
	log := c.log.With(slog.String("op", op))

	body, err := json.Marshal(data)
	if err != nil {
		return domain.ImportRef{}, fmt.Errorf("%s: %w", op, err)
	}

	attempts := make([]fallback.Attempt[domain.ImportRef], 0, len(c.origins))
	for _, origin := range c.origins {
		attempts = append(attempts, fallback.Attempt[domain.ImportRef]{
			Name: origin,
			Run: func(ctx context.Context) (domain.ImportRef, error) {
				return c.post(ctx, origin+ImportPath, body)
			},
		})
	}

	ref, origin, err := fallback.First(ctx, c.timeout, attempts...)
	if err != nil {
		return domain.ImportRef{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("event sent to import api", slog.String("origin", origin), slog.String("slug", ref.Slug))
	return ref, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (domain.ImportRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.ImportRef{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ImportRef{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ImportRef{}, fmt.Errorf("import status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var ir dto.ImportResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return domain.ImportRef{}, fmt.Errorf("decode import response: %w", err)
	}
	if !ir.Success || ir.Event == nil {
		return domain.ImportRef{}, fmt.Errorf("import rejected: %s", ir.Error)
	}

	return domain.ImportRef{ID: ir.Event.ID, Slug: ir.Event.Slug, Created: ir.Created}, nil
}
