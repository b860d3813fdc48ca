package dto

import (
	"time"

	"eventsImporter/internal/models/domain"

	"github.com/google/uuid"
)

// EventResponse — DTO для ответа с данными события.
type EventResponse struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	EventDate   string     `json:"event_date"`
	EventTime   string     `json:"event_time"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	VenueName   string     `json:"venue_name"`
	Promoters   []string   `json:"promoters"`
	Genre       string     `json:"genre"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	TicketURL   string     `json:"ticket_url"`
	FacebookURL string     `json:"facebook_url"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UpdateStatusRequest — DTO для запроса на изменение статуса события.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=NEW ENRICHED PUBLISHED REJECTED"`
}

// ScrapeRequest — список страниц событий для пакетного импорта.
type ScrapeRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,required,url"`
}

// ScrapeResponse — сколько страниц принято в очередь.
type ScrapeResponse struct {
	Queued   int      `json:"queued"`
	Rejected []string `json:"rejected"`
}

// MapDomainToEventResponse конвертирует доменную модель Event в EventResponse DTO.
func MapDomainToEventResponse(e domain.Event) EventResponse {
	promoters := e.Promoters
	if promoters == nil {
		promoters = []string{}
	}

	return EventResponse{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		EventDate:   e.EventDate,
		EventTime:   e.EventTime,
		StartsAt:    e.StartsAt,
		VenueName:   e.VenueName,
		Promoters:   promoters,
		Genre:       e.Genre,
		Description: e.Description,
		ImageURL:    e.ImageURL,
		TicketURL:   e.TicketURL,
		FacebookURL: e.FacebookURL,
		Source:      e.Source,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// MapDomainToEventResponseList конвертирует слайс доменных моделей в слайс DTO.
func MapDomainToEventResponseList(events []domain.Event) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, e := range events {
		result[i] = MapDomainToEventResponse(e)
	}
	return result
}
