package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"eventsImporter/internal/models/domain"
)

// FlexibleStringSlice — тип, который при десериализации принимает как строку, так и массив строк.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Пробуем как массив строк
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}

	// Пробуем как одну строку
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*f = []string{s}
		} else {
			*f = nil
		}
		return nil
	}

	return fmt.Errorf("genre: expected string or []string, got %s", string(data))
}

// GenreStructuredResponseSchema — ответ модели с жанром события
type GenreStructuredResponseSchema struct {
	Genre FlexibleStringSlice `json:"genre" description:"Музыкальный жанр события (например: rock, jazz, techno)"`
}

// String склеивает жанры через запятую, убирая пустые и повторы.
func (g GenreStructuredResponseSchema) String() string {
	seen := make(map[string]bool)
	var parts []string
	for _, genre := range g.Genre {
		genre = strings.ToLower(strings.TrimSpace(genre))
		if genre == "" || seen[genre] {
			continue
		}
		seen[genre] = true
		parts = append(parts, genre)
	}
	return strings.Join(parts, ", ")
}

// ApplyToEvent применяет жанр к событию, если модель вернула непустое значение.
func (g GenreStructuredResponseSchema) ApplyToEvent(event domain.Event) domain.Event {
	if genre := g.String(); genre != "" {
		event.Genre = genre
		event.Status = domain.EventStatusEnriched
	}
	return event
}
