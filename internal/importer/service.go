package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"eventsImporter/internal/metrics"
	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/repositories"
	"eventsImporter/internal/slug"

	"github.com/itlightning/dateparse"
	"github.com/lib/pq"
)

const (
	maxSlugAttempts = 50
	// повторы вставки при гонке за один и тот же слаг
	maxInsertAttempts = 3
)

var ErrTitleRequired = errors.New("event title is required")

var (
	weekdayRe = regexp.MustCompile(`(?i)^(?:mon|tues|wednes|thurs|fri|satur|sun)day,\s*`)
	clockRe   = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\.?$`)
)

// Repository — хранилище, нужное импорту.
type Repository interface {
	FindEventByFacebookURL(ctx context.Context, facebookURL string) (domain.Event, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
}

// Service сохраняет извлечённые события.
type Service struct {
	log      *slog.Logger
	repo     Repository
	location *time.Location
	metrics  *metrics.Metrics
}

// NewService создаёт сервис импорта. Неизвестная таймзона заменяется на UTC.
func NewService(log *slog.Logger, repo Repository, timezone string, m *metrics.Metrics) *Service {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn("unknown timezone, using UTC", slog.String("timezone", timezone))
		loc = time.UTC
	}

	return &Service{
		log:      log,
		repo:     repo,
		location: loc,
		metrics:  m,
	}
}

// Import создаёт событие. Если событие с той же ссылкой на Facebook уже есть,
// возвращает его и created=false.
func (s *Service) Import(ctx context.Context, data domain.EventData) (domain.Event, bool, error) {
	op := "Service.Import()"
	log := s.log.With(slog.String("op", op))

	title := strings.TrimSpace(data.EventTitle)
	if title == "" || title == domain.NotEventPageTitle {
		s.metrics.Import("error")
		return domain.Event{}, false, fmt.Errorf("%s: %w", op, ErrTitleRequired)
	}

	if data.FacebookURL != "" {
		existing, err := s.repo.FindEventByFacebookURL(ctx, data.FacebookURL)
		switch {
		case err == nil:
			log.Debug("event already imported", slog.String("slug", existing.Slug))
			s.metrics.Import("duplicate")
			return existing, false, nil
		case !errors.Is(err, repositories.ErrNotFound):
			s.metrics.Import("error")
			return domain.Event{}, false, fmt.Errorf("%s: %w", op, err)
		}
	}

	event := s.toDomain(data)
	event.Title = title

	var err error
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		event.Slug, err = slug.Unique(ctx, slug.Make(title), s.repo.SlugExists, maxSlugAttempts)
		if err != nil {
			break
		}

		var created domain.Event
		created, err = s.repo.CreateEvent(ctx, event)
		if err == nil {
			log.Info("event imported",
				slog.String("id", created.ID.String()),
				slog.String("slug", created.Slug),
			)
			s.metrics.Import("created")
			return created, true, nil
		}
		if errors.Is(err, repositories.ErrDuplicateFacebookURL) {
			return s.concurrentDuplicate(ctx, data.FacebookURL)
		}
		if !isUniqueViolation(err) {
			break
		}
		log.Debug("slug taken concurrently, retrying", slog.String("slug", event.Slug))
	}

	s.metrics.Import("error")
	return domain.Event{}, false, fmt.Errorf("%s: %w", op, err)
}

// concurrentDuplicate возвращает событие, которое параллельный импорт
// той же страницы успел сохранить первым.
func (s *Service) concurrentDuplicate(ctx context.Context, facebookURL string) (domain.Event, bool, error) {
	op := "Service.concurrentDuplicate()"

	existing, err := s.repo.FindEventByFacebookURL(ctx, facebookURL)
	if err != nil {
		s.metrics.Import("error")
		return domain.Event{}, false, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("event imported concurrently", slog.String("op", op), slog.String("slug", existing.Slug))
	s.metrics.Import("duplicate")
	return existing, false, nil
}

func (s *Service) toDomain(data domain.EventData) domain.Event {
	promoters := data.Promoters
	if promoters == nil {
		promoters = []string{}
	}

	source := data.Source
	if source == "" {
		source = domain.SourceFacebookExtension
	}

	return domain.Event{
		EventDate:   data.EventDate,
		EventTime:   data.EventTime,
		StartsAt:    s.StartsAt(data.EventDate, data.EventTime),
		VenueName:   data.VenueName,
		Promoters:   promoters,
		Genre:       data.Genre,
		Description: data.Description,
		ImageURL:    data.ImageURL,
		TicketURL:   data.TicketURL,
		FacebookURL: data.FacebookURL,
		Source:      source,
		Status:      domain.EventStatusNew,
	}
}

// StartsAt разбирает сырые дату и время страницы в таймзоне сервиса.
// Возвращает nil, если строку разобрать не удалось.
func (s *Service) StartsAt(date string, clock string) *time.Time {
	date = weekdayRe.ReplaceAllString(strings.TrimSpace(date), "")
	if date == "" {
		return nil
	}

	value := date
	if c := normalizeClock(clock); c != "" {
		value += " " + c
	}

	t, err := dateparse.ParseIn(value, s.location)
	if err != nil {
		s.log.Debug("cannot parse event date", slog.String("value", value), slog.String("error", err.Error()))
		return nil
	}
	return &t
}

// normalizeClock приводит "8 PM" и "8:30pm" к виду "8:30:00 PM".
func normalizeClock(clock string) string {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(clock))
	if m == nil {
		return ""
	}
	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	return m[1] + ":" + minutes + ":00 " + strings.ToUpper(m[3]) + "M"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
