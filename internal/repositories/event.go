package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/models/repositories"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const eventColumns = `id, slug, title, event_date, event_time, starts_at, venue_name, promoters, genre,
	description, image_url, ticket_url, facebook_url, source, status, created_at, updated_at`

func (r *Repository) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	op := "Repository.CreateEvent()"

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = domain.EventStatusNew
	}

	repoEvent := mapToRepo(event)

	insertQuery := `INSERT INTO events (
		id, slug, title, event_date, event_time, starts_at, venue_name, promoters, genre,
		description, image_url, ticket_url, facebook_url, source, status,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	RETURNING created_at, updated_at`

	err := r.DB.QueryRowxContext(ctx, insertQuery,
		repoEvent.ID,
		repoEvent.Slug,
		repoEvent.Title,
		repoEvent.EventDate,
		repoEvent.EventTime,
		repoEvent.StartsAt,
		repoEvent.VenueName,
		repoEvent.Promoters,
		repoEvent.Genre,
		repoEvent.Description,
		repoEvent.ImageURL,
		repoEvent.TicketURL,
		repoEvent.FacebookURL,
		repoEvent.Source,
		repoEvent.Status,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if isFacebookURLConflict(err) {
			return domain.Event{}, fmt.Errorf("%s: %w", op, ErrDuplicateFacebookURL)
		}
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func isFacebookURLConflict(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == facebookURLIndex
}

func (r *Repository) FindEventByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return r.findOne(ctx, "Repository.FindEventByID()", `WHERE id = $1`, id)
}

func (r *Repository) FindEventBySlug(ctx context.Context, slug string) (domain.Event, error) {
	return r.findOne(ctx, "Repository.FindEventBySlug()", `WHERE slug = $1`, slug)
}

// FindEventByFacebookURL ищет ранее импортированное событие по ссылке на Facebook.
func (r *Repository) FindEventByFacebookURL(ctx context.Context, facebookURL string) (domain.Event, error) {
	return r.findOne(ctx, "Repository.FindEventByFacebookURL()", `WHERE facebook_url = $1 ORDER BY created_at ASC`, facebookURL)
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	op := "Repository.SlugExists()"

	var exists bool
	err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM events WHERE slug = $1)`, slug)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (r *Repository) findOne(ctx context.Context, op string, where string, arg any) (domain.Event, error) {
	var repoEvent repositories.Event

	query := `SELECT ` + eventColumns + ` FROM events ` + where + ` LIMIT 1`

	err := r.DB.GetContext(ctx, &repoEvent, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return mapToDomain(repoEvent), nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	op := "Repository.ListEvents()"

	var repoEvents []repositories.Event
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC`

	if err := r.DB.SelectContext(ctx, &repoEvents, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mapAllToDomain(repoEvents), nil
}

func (r *Repository) FindEventsByStatus(ctx context.Context, status domain.EventStatus) ([]domain.Event, error) {
	op := "Repository.FindEventsByStatus()"

	var repoEvents []repositories.Event
	query := `SELECT ` + eventColumns + ` FROM events WHERE status = $1 ORDER BY created_at DESC`

	if err := r.DB.SelectContext(ctx, &repoEvents, query, string(status)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mapAllToDomain(repoEvents), nil
}

func (r *Repository) UpdateEventStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) error {
	op := "Repository.UpdateEventStatus()"

	result, err := r.DB.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		string(status), id,
	)
	return checkAffected(op, result, err)
}

// UpdateEventGenre сохраняет жанр и переводит событие в ENRICHED.
func (r *Repository) UpdateEventGenre(ctx context.Context, id uuid.UUID, genre string) error {
	op := "Repository.UpdateEventGenre()"

	result, err := r.DB.ExecContext(ctx,
		`UPDATE events SET genre = $1, status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		genre, string(domain.EventStatusEnriched), id,
	)
	return checkAffected(op, result, err)
}

func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	op := "Repository.DeleteEvent()"

	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	return checkAffected(op, result, err)
}

func checkAffected(op string, result sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func mapToRepo(e domain.Event) repositories.Event {
	var startsAt sql.NullTime
	if e.StartsAt != nil {
		startsAt = sql.NullTime{Time: *e.StartsAt, Valid: true}
	}

	promoters := pq.StringArray(e.Promoters)
	if promoters == nil {
		promoters = pq.StringArray{}
	}

	return repositories.Event{
		BaseModel: repositories.BaseModel{
			ID:        e.ID,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		Slug:        e.Slug,
		Title:       e.Title,
		EventDate:   e.EventDate,
		EventTime:   e.EventTime,
		StartsAt:    startsAt,
		VenueName:   e.VenueName,
		Promoters:   promoters,
		Genre:       e.Genre,
		Description: e.Description,
		ImageURL:    e.ImageURL,
		TicketURL:   e.TicketURL,
		FacebookURL: e.FacebookURL,
		Source:      e.Source,
		Status:      string(e.Status),
	}
}

func mapToDomain(e repositories.Event) domain.Event {
	var startsAt *time.Time
	if e.StartsAt.Valid {
		t := e.StartsAt.Time
		startsAt = &t
	}

	promoters := []string(e.Promoters)
	if promoters == nil {
		promoters = []string{}
	}

	return domain.Event{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		EventDate:   e.EventDate,
		EventTime:   e.EventTime,
		StartsAt:    startsAt,
		VenueName:   e.VenueName,
		Promoters:   promoters,
		Genre:       e.Genre,
		Description: e.Description,
		ImageURL:    e.ImageURL,
		TicketURL:   e.TicketURL,
		FacebookURL: e.FacebookURL,
		Source:      e.Source,
		Status:      domain.EventStatus(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func mapAllToDomain(events []repositories.Event) []domain.Event {
	result := make([]domain.Event, len(events))
	for i, e := range events {
		result[i] = mapToDomain(e)
	}
	return result
}
