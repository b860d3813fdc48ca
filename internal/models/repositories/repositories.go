package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BaseModel struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Event struct {
	BaseModel
	Slug        string         `db:"slug"`
	Title       string         `db:"title"`
	EventDate   string         `db:"event_date"`
	EventTime   string         `db:"event_time"`
	StartsAt    sql.NullTime   `db:"starts_at"`
	VenueName   string         `db:"venue_name"`
	Promoters   pq.StringArray `db:"promoters"`
	Genre       string         `db:"genre"`
	Description string         `db:"description"`
	ImageURL    string         `db:"image_url"`
	TicketURL   string         `db:"ticket_url"`
	FacebookURL string         `db:"facebook_url"`
	Source      string         `db:"source"`
	Status      string         `db:"status"`
}
