package responder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventsImporter/internal/extractor"
	"eventsImporter/internal/metrics"
	"eventsImporter/internal/models/domain"

	"github.com/PuerkitoBio/goquery"
)

// Действия входящего сообщения.
const (
	ActionExtractEventData = "extractEventData"
	ActionExtractAndImport = "extractAndImport"
	ActionPing             = "ping"
)

const errTimedOut = "extraction timed out"

// Message — команда от расширения: URL страницы и, при наличии, её HTML.
type Message struct {
	Action string `json:"action"`
	URL    string `json:"url"`
	HTML   string `json:"html,omitempty"`
}

// ImageRelay перезаливает картинку события.
type ImageRelay interface {
	Relay(ctx context.Context, imageURL string) domain.ImageUpload
}

// PageLoader скачивает HTML страницы, если он не пришёл в сообщении.
type PageLoader interface {
	Load(ctx context.Context, url string) (string, error)
}

// Importer отправляет собранные данные в API импорта.
type Importer interface {
	Import(ctx context.Context, data domain.EventData) (domain.ImportRef, error)
}

// Responder — единая точка входа: извлечение, затем перезаливка картинки, затем сборка ответа.
type Responder struct {
	log          *slog.Logger
	registry     *extractor.Registry
	relay        ImageRelay
	loader       PageLoader
	importer     Importer
	timeout      time.Duration
	imageTimeout time.Duration
	metrics      *metrics.Metrics
	now          func() time.Time
}

// New создаёт обработчик. relay, loader, importer и m могут быть nil.
func New(
	log *slog.Logger,
	registry *extractor.Registry,
	relay ImageRelay,
	loader PageLoader,
	importer Importer,
	timeout time.Duration,
	imageTimeout time.Duration,
	m *metrics.Metrics,
) *Responder {
	return &Responder{
		log:          log,
		registry:     registry,
		relay:        relay,
		loader:       loader,
		importer:     importer,
		timeout:      timeout,
		imageTimeout: imageTimeout,
		metrics:      m,
		now:          time.Now,
	}
}

// Handle обрабатывает сообщение и всегда возвращает результат, никогда не паникует.
func (r *Responder) Handle(ctx context.Context, msg Message) (res domain.Result) {
	op := "Responder.Handle()"
	log := r.log.With(slog.String("op", op), slog.String("action", msg.Action))

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while handling message", slog.Any("panic", p))
			res = domain.Err(fmt.Sprint(p))
		}
		r.metrics.ObserveExtraction(msg.Action, res.Success, time.Since(start))
	}()

	switch msg.Action {
	case ActionPing:
		return domain.Result{Success: true}
	case ActionExtractEventData:
		return r.Extract(ctx, msg.URL, msg.HTML)
	case ActionExtractAndImport:
		return r.extractAndImport(ctx, msg)
	default:
		log.Warn("unknown action")
		return domain.Err("unknown action: " + msg.Action)
	}
}

// Extract прогоняет конвейер для одной страницы в пределах общего таймаута.
func (r *Responder) Extract(ctx context.Context, pageURL string, html string) domain.Result {
	op := "Responder.Extract()"
	log := r.log.With(slog.String("op", op), slog.String("url", pageURL))

	if !extractor.IsEventPage(pageURL) {
		log.Debug("not an event page")
		return notEventPage()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.extract(ctx, pageURL, html)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.Warn("extraction timed out", slog.Duration("timeout", r.timeout))
			return domain.Err(errTimedOut)
		}
		log.Error("extraction failed", slog.String("error", err.Error()))
		return domain.Err(err.Error())
	}

	upload := r.relayImage(ctx, raw.Image)

	return domain.Ok(r.assemble(pageURL, raw, upload), raw)
}

type extraction struct {
	raw domain.ExtractedEvent
	err error
}

// extract выполняет загрузку и разбор в отдельной горутине, чтобы соблюсти дедлайн
// даже если загрузчик его не учитывает.
func (r *Responder) extract(ctx context.Context, pageURL string, html string) (domain.ExtractedEvent, error) {
	ch := make(chan extraction, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- extraction{err: fmt.Errorf("panic: %v", p)}
			}
		}()

		if strings.TrimSpace(html) == "" {
			if r.loader == nil {
				ch <- extraction{err: errors.New("page html is required")}
				return
			}
			loaded, err := r.loader.Load(ctx, pageURL)
			if err != nil {
				ch <- extraction{err: err}
				return
			}
			html = loaded
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			ch <- extraction{err: fmt.Errorf("parse html: %w", err)}
			return
		}

		profile := r.registry.Detect(doc)
		raw, _ := extractor.New(r.log, profile).Extract(doc, pageURL)
		ch <- extraction{raw: raw}
	}()

	select {
	case <-ctx.Done():
		return domain.ExtractedEvent{}, ctx.Err()
	case x := <-ch:
		if x.err == nil && ctx.Err() != nil {
			return domain.ExtractedEvent{}, ctx.Err()
		}
		return x.raw, x.err
	}
}

// relayImage ограничивает шаг с картинкой собственным таймаутом.
// Таймаут даёт статус failed, а не ошибку всего запроса.
func (r *Responder) relayImage(ctx context.Context, imageURL string) domain.ImageUpload {
	op := "Responder.relayImage()"

	if imageURL == "" {
		return domain.ImageUpload{Status: domain.ImageUploadSkipped}
	}
	if r.relay == nil {
		return domain.ImageUpload{Status: domain.ImageUploadFailed, Original: imageURL}
	}

	ictx, cancel := context.WithTimeout(ctx, r.imageTimeout)
	defer cancel()

	ch := make(chan domain.ImageUpload, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- domain.ImageUpload{Status: domain.ImageUploadFailed, Original: imageURL}
			}
		}()
		ch <- r.relay.Relay(ictx, imageURL)
	}()

	select {
	case <-ictx.Done():
		r.log.Warn("image step timed out", slog.String("op", op), slog.Duration("timeout", r.imageTimeout))
		return domain.ImageUpload{Status: domain.ImageUploadFailed, Original: imageURL}
	case up := <-ch:
		up.Original = imageURL
		return up
	}
}

func (r *Responder) assemble(pageURL string, raw domain.ExtractedEvent, upload domain.ImageUpload) domain.EventData {
	promoters := raw.Promoters
	if promoters == nil {
		promoters = []string{}
	}

	return domain.EventData{
		Source:                domain.SourceFacebookExtension,
		EventTitle:            raw.Title,
		EventDate:             raw.Date,
		EventTime:             raw.Time,
		VenueName:             raw.Venue,
		Promoters:             promoters,
		Description:           raw.Description,
		ImageURL:              upload.URL,
		TicketURL:             raw.TicketURL,
		FacebookURL:           extractor.CanonicalEventURL(pageURL),
		ExtractedAt:           r.now().UTC().Format(time.RFC3339),
		ImageUploadStatus:     string(upload.Status),
		ImageServiceUsed:      upload.Service,
		OriginalFacebookImage: raw.Image,
	}
}

func (r *Responder) extractAndImport(ctx context.Context, msg Message) domain.Result {
	op := "Responder.extractAndImport()"
	log := r.log.With(slog.String("op", op))

	res := r.Extract(ctx, msg.URL, msg.HTML)
	if !res.Success {
		return res
	}
	if res.Data.EventTitle == domain.NotEventPageTitle || res.Data.EventTitle == "" {
		return domain.Err("nothing to import: event title not found")
	}
	if r.importer == nil {
		return domain.Err("import is not configured")
	}

	ref, err := r.importer.Import(ctx, *res.Data)
	if err != nil {
		log.Error("import failed", slog.String("error", err.Error()))
		return domain.Err("import failed: " + err.Error())
	}

	res.Import = &ref
	return res
}

// notEventPage — ответ для страниц, которые не являются событием.
func notEventPage() domain.Result {
	raw := domain.NewExtractedEvent()
	raw.Title = domain.NotEventPageTitle

	data := domain.EventData{
		EventTitle: domain.NotEventPageTitle,
		Promoters:  []string{},
	}

	return domain.Ok(data, raw)
}
