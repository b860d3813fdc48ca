package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventsImporter/internal/config"
	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/utils/logger/sl"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const notifyTimeout = 30 * time.Second

// Scraper определяет интерфейс для взаимодействия со скрапером.
type Scraper interface {
	AddJob(requestID uuid.UUID, url string) (chan struct{}, error)
}

// AI определяет интерфейс для взаимодействия с AI сервисом.
type AI interface {
	AddJob(requestID uuid.UUID, event domain.Event) (chan struct{}, error)
}

// Notifier отправляет анонс нового события.
type Notifier interface {
	SendEvent(ctx context.Context, event domain.Event) error
}

// Orchestrator управляет пайплайном: scraper → import → AI / Telegram.
// ai и notifier могут быть nil, тогда соответствующий шаг пропускается.
type Orchestrator struct {
	logger              *slog.Logger
	cfg                 *config.Config
	scraper             Scraper
	ai                  AI
	notifier            Notifier
	completedEventsChan <-chan domain.Event
	cron                *cron.Cron
	doneChans           []chan struct{}
	mu                  sync.Mutex
	notifyWg            sync.WaitGroup
	shutdownChan        chan struct{}
	shutdownOnce        sync.Once
}

// New создаёт новый экземпляр Orchestrator.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	scraper Scraper,
	ai AI,
	notifier Notifier,
	completedEventsChan <-chan domain.Event,
) *Orchestrator {
	op := "Orchestrator.New()"
	log := logger.With(slog.String("op", op))
	log.Info("Creating orchestrator",
		slog.Bool("ai", ai != nil),
		slog.Bool("notifier", notifier != nil),
	)

	return &Orchestrator{
		logger:              logger,
		cfg:                 cfg,
		scraper:             scraper,
		ai:                  ai,
		notifier:            notifier,
		completedEventsChan: completedEventsChan,
		cron:                cron.New(),
		doneChans:           make([]chan struct{}, 0),
		shutdownChan:        make(chan struct{}),
	}
}

// Start запускает оркестратор: слушает созданные скрапером события,
// ставит в очередь страницы из конфига и включает расписание.
func (o *Orchestrator) Start() {
	op := "Orchestrator.Start()"
	log := o.logger.With(slog.String("op", op))

	go o.processCompletedEvents()

	if n := o.QueueSites(); n > 0 {
		log.Info("configured sites queued", slog.Int("count", n))
	}

	if schedule := o.cfg.ScraperConfig.Schedule; schedule != "" {
		if err := o.Schedule(schedule); err != nil {
			log.Error("failed to schedule scraping", sl.Err(err))
		}
	}

	log.Info("orchestrator started")
}

// Schedule регистрирует периодический повторный импорт страниц из конфига.
func (o *Orchestrator) Schedule(schedule string) error {
	op := "Orchestrator.Schedule()"
	log := o.logger.With(slog.String("op", op))

	_, err := o.cron.AddFunc(schedule, func() {
		n := o.QueueSites()
		log.Info("scheduled scrape", slog.Int("count", n))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	o.cron.Start()
	log.Info("scraping scheduled", slog.String("schedule", schedule))

	return nil
}

// QueueSites ставит в очередь все страницы из конфига и возвращает число принятых.
func (o *Orchestrator) QueueSites() int {
	queued := 0
	for _, site := range o.cfg.ScraperConfig.Sites {
		if err := o.AddJob(site.URL); err == nil {
			queued++
		}
	}
	return queued
}

// processCompletedEvents слушает канал созданных событий и публикует их.
func (o *Orchestrator) processCompletedEvents() {
	op := "Orchestrator.processCompletedEvents()"
	log := o.logger.With(slog.String("op", op))

	for {
		select {
		case <-o.shutdownChan:
			log.Info("processCompletedEvents shutting down")
			return
		case event, ok := <-o.completedEventsChan:
			if !ok {
				log.Info("completedEventsChan closed")
				return
			}

			log.Debug("received completed event", slog.String("slug", event.Slug))
			o.Publish(event)
		}
	}
}

// Publish передаёт только что созданное событие в AI и в Telegram.
func (o *Orchestrator) Publish(event domain.Event) {
	op := "Orchestrator.Publish()"
	log := o.logger.With(
		slog.String("op", op),
		slog.String("slug", event.Slug),
	)

	select {
	case <-o.shutdownChan:
		log.Warn("orchestrator is shutting down, event skipped")
		return
	default:
	}

	if o.ai != nil {
		if _, err := o.ai.AddJob(uuid.New(), event); err != nil {
			log.Error("failed to add AI job", sl.Err(err))
		} else {
			log.Debug("event sent to AI")
		}
	}

	if o.notifier == nil {
		return
	}

	o.mu.Lock()
	select {
	case <-o.shutdownChan:
		o.mu.Unlock()
		return
	default:
	}
	o.notifyWg.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.notifyWg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := o.notifier.SendEvent(ctx, event); err != nil {
			log.Error("failed to send event to Telegram", sl.Err(err))
			return
		}
		log.Debug("event sent to Telegram")
	}()
}

// AddJob добавляет джобу в скрапер и сохраняет канал Done для ожидания.
// Каналы завершённых джоб при этом отбрасываются.
func (o *Orchestrator) AddJob(url string) error {
	op := "Orchestrator.AddJob()"
	log := o.logger.With(slog.String("op", op))

	requestID := uuid.New()
	doneChan, err := o.scraper.AddJob(requestID, url)
	if err != nil {
		log.Error("failed to add job",
			slog.String("url", url),
			sl.Err(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	o.mu.Lock()
	o.doneChans = append(pruneDone(o.doneChans), doneChan)
	o.mu.Unlock()

	log.Debug("job added",
		slog.String("requestID", requestID.String()),
		slog.String("url", url),
	)

	return nil
}

// pruneDone убирает каналы уже завершённых джоб.
func pruneDone(chans []chan struct{}) []chan struct{} {
	pending := chans[:0]
	for _, ch := range chans {
		select {
		case <-ch:
		default:
			pending = append(pending, ch)
		}
	}
	clear(chans[len(pending):])
	return pending
}

// WaitAll ожидает завершения всех добавленных джоб скрапера.
func (o *Orchestrator) WaitAll() {
	op := "Orchestrator.WaitAll()"
	log := o.logger.With(slog.String("op", op))

	o.mu.Lock()
	chans := o.doneChans
	o.doneChans = make([]chan struct{}, 0)
	o.mu.Unlock()

	log.Info("waiting for all scraper jobs", slog.Int("count", len(chans)))

	for _, doneChan := range chans {
		<-doneChan
	}

	log.Info("all scraper jobs completed")
}

// Shutdown останавливает расписание и дожидается отправки уведомлений.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.shutdownOnce.Do(func() {
		o.mu.Lock()
		close(o.shutdownChan)
		o.mu.Unlock()
	})

	cronCtx := o.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		o.notifyWg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit orchestrator: %w", ctx.Err())
	case <-done:
		return nil
	}
}
