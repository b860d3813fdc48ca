package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus представляет статус импортированного события
type EventStatus string

const (
	// EventStatusNew — событие только что импортировано
	EventStatusNew EventStatus = "NEW"
	// EventStatusEnriched — жанр определён AI
	EventStatusEnriched EventStatus = "ENRICHED"
	// EventStatusPublished — событие опубликовано на сайте
	EventStatusPublished EventStatus = "PUBLISHED"
	// EventStatusRejected — событие отклонено модератором
	EventStatusRejected EventStatus = "REJECTED"
)

// IsValid проверяет, что статус входит в допустимый набор.
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusNew, EventStatusEnriched, EventStatusPublished, EventStatusRejected:
		return true
	default:
		return false
	}
}

// Event - доменная модель импортированного мероприятия
type Event struct {
	ID          uuid.UUID
	Slug        string
	Title       string
	EventDate   string
	EventTime   string
	StartsAt    *time.Time
	VenueName   string
	Promoters   []string
	Genre       string
	Description string
	ImageURL    string
	TicketURL   string
	FacebookURL string
	Source      string
	Status      EventStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
