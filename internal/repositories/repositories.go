package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventsImporter/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("not found")

// ErrDuplicateFacebookURL — событие с этой ссылкой на Facebook уже сохранено.
var ErrDuplicateFacebookURL = errors.New("event with this facebook url already exists")

// facebookURLIndex — уникальный индекс по непустой ссылке на событие.
const facebookURLIndex = "events_facebook_url_key"

type Repository struct {
	log *slog.Logger
	DB  *sqlx.DB
}

// New подключается к PostgreSQL и создаёт схему.
func New(log *slog.Logger, cfg *config.Config) (*Repository, error) {
	op := "repositories.New()"

	db, err := sqlx.Connect("postgres", cfg.DBConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := &Repository{log: log, DB: db}

	if err := r.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("repository ready", slog.String("op", op), slog.String("host", cfg.DBConfig.Host))

	return r, nil
}

// NewWithDB оборачивает готовое соединение.
func NewWithDB(log *slog.Logger, db *sqlx.DB) *Repository {
	return &Repository{log: log, DB: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id           UUID PRIMARY KEY,
	slug         TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	event_date   TEXT NOT NULL DEFAULT '',
	event_time   TEXT NOT NULL DEFAULT '',
	starts_at    TIMESTAMPTZ NULL,
	venue_name   TEXT NOT NULL DEFAULT '',
	promoters    TEXT[] NOT NULL DEFAULT '{}',
	genre        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	ticket_url   TEXT NOT NULL DEFAULT '',
	facebook_url TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'NEW',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
DROP INDEX IF EXISTS events_facebook_url_idx;
CREATE UNIQUE INDEX IF NOT EXISTS ` + facebookURLIndex + ` ON events (facebook_url) WHERE facebook_url <> '';
CREATE INDEX IF NOT EXISTS events_status_idx ON events (status);
`

// Migrate создаёт таблицы, если их нет.
func (r *Repository) Migrate(ctx context.Context) error {
	op := "Repository.Migrate()"

	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repository) Shutdown(_ context.Context) error {
	return r.DB.Close()
}
