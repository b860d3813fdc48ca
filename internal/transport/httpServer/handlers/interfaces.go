package handlers

import (
	"context"

	"eventsImporter/internal/imagehost"
	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/responder"

	"github.com/google/uuid"
)

// EventRepository — интерфейс для работы с событиями из хэндлеров.
type EventRepository interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	FindEventsByStatus(ctx context.Context, status domain.EventStatus) ([]domain.Event, error)
	FindEventByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// EventOrchestrator принимает новые события и задания на скрапинг.
type EventOrchestrator interface {
	Publish(event domain.Event)
	AddJob(url string) error
}

// Responder обрабатывает сообщения расширения.
type Responder interface {
	Handle(ctx context.Context, msg responder.Message) domain.Result
}

// ImageHost перезаливает картинку по цепочке хостингов.
type ImageHost interface {
	Rehost(ctx context.Context, imageURL string) (imagehost.Result, error)
}

// Importer сохраняет событие из формы импорта.
type Importer interface {
	Import(ctx context.Context, data domain.EventData) (domain.Event, bool, error)
}

// TokenIssuer выпускает JWT для администратора.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}
