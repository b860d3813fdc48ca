package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"eventsImporter/internal/config"
	"eventsImporter/internal/metrics"
	"eventsImporter/internal/models/domain"

	"github.com/google/uuid"
)

var (
	ErrShuttingDown = errors.New("service is shutting down")
	ErrBufferFull   = errors.New("job buffer is full")
)

// Extractor прогоняет конвейер извлечения для страницы события.
type Extractor interface {
	Extract(ctx context.Context, pageURL string, html string) domain.Result
}

// Importer сохраняет извлечённое событие.
type Importer interface {
	Import(ctx context.Context, data domain.EventData) (domain.Event, bool, error)
}

// Job представляет задачу, передаваемую в воркер.
type Job struct {
	requestID uuid.UUID     // Уникальный идентификатор запроса
	url       string        // URL страницы события
	Done      chan struct{} // Канал для сигнала завершения
}

// Scraper — пул воркеров пакетного импорта страниц событий.
type Scraper struct {
	logger              *slog.Logger
	cfg                 *config.Config
	extractor           Extractor
	importer            Importer
	metrics             *metrics.Metrics
	jobs                chan Job
	CompletedEventsChan chan domain.Event // Канал для созданных событий (для передачи в AI и Telegram)
	shutdownChannel     chan struct{}
	shutdownOnce        sync.Once
	closeOnce           sync.Once
	wg                  *sync.WaitGroup
}

// New создаёт новый экземпляр Scraper.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	extractor Extractor,
	importer Importer,
	m *metrics.Metrics,
) *Scraper {
	op := "Scraper.New()"
	log := logger.With(
		slog.String("op", op),
	)

	log.Info("Creating scraper service")

	return &Scraper{
		logger:              logger,
		cfg:                 cfg,
		extractor:           extractor,
		importer:            importer,
		metrics:             m,
		jobs:                make(chan Job, cfg.ScraperConfig.JobBufferSize),
		CompletedEventsChan: make(chan domain.Event, 100),
		shutdownChannel:     make(chan struct{}),
		wg:                  &sync.WaitGroup{},
	}
}

// Start запускает воркеры и блокируется до их завершения.
func (s *Scraper) Start() {
	op := "Scraper.Start()"
	log := s.logger.With(
		slog.String("op", op),
	)

	workers := s.cfg.ScraperConfig.WorkersCount
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.handleJob(i)
	}
	log.Info("scraper service started", slog.Int("workers", workers))

	s.wg.Wait()
}

// AddJob добавляет страницу события в очередь на обработку.
func (s *Scraper) AddJob(requestID uuid.UUID, url string) (chan struct{}, error) {
	newJob := Job{
		requestID: requestID,
		url:       url,
		Done:      make(chan struct{}),
	}

	select {
	case <-s.shutdownChannel:
		return nil, ErrShuttingDown
	default:
	}

	select {
	case s.jobs <- newJob:
		return newJob.Done, nil
	default:
		return nil, ErrBufferFull
	}
}

// handleJob — воркер, обрабатывающий задачи из канала.
func (s *Scraper) handleJob(id int) {
	defer s.wg.Done()
	op := "Scraper.handleJob()"
	log := s.logger.With(
		slog.String("op", op),
		slog.Int("workerId", id),
	)

	log.Info("start scraper job handler")

	for {
		select {
		case <-s.shutdownChannel:
			return
		case job := <-s.jobs:
			s.process(log, job)
			close(job.Done)
		}
	}
}

func (s *Scraper) process(log *slog.Logger, job Job) {
	joblog := log.With(
		slog.String("requestID", job.requestID.String()),
		slog.String("url", job.url),
	)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ScraperConfig.Timeout)
	defer cancel()

	res := s.extractor.Extract(ctx, job.url, "")
	if !res.Success {
		joblog.Error("extraction failed", slog.String("error", res.Error))
		s.metrics.ScrapeJob(false)
		return
	}

	if res.Data.EventTitle == "" || res.Data.EventTitle == domain.NotEventPageTitle {
		joblog.Warn("page is not an event page")
		s.metrics.ScrapeJob(false)
		return
	}

	event, created, err := s.importer.Import(ctx, *res.Data)
	if err != nil {
		joblog.Error("failed to import event", slog.String("error", err.Error()))
		s.metrics.ScrapeJob(false)
		return
	}
	s.metrics.ScrapeJob(true)

	if !created {
		joblog.Debug("event already exists", slog.String("slug", event.Slug))
		return
	}

	joblog.Info("event imported", slog.String("slug", event.Slug))

	// Отправляем в канал для обработки AI и Telegram
	select {
	case s.CompletedEventsChan <- event:
	default:
		joblog.Warn("CompletedEventsChan is full, skipping enrichment")
	}
}

// Shutdown останавливает воркеры и закрывает канал созданных событий.
func (s *Scraper) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChannel)
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit scraper: %w", ctx.Err())
	case <-done:
		s.closeOnce.Do(func() {
			close(s.CompletedEventsChan)
		})
		return nil
	}
}
