package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/repositories"
	"eventsImporter/internal/transport/httpServer/handlers/dto"
	"eventsImporter/internal/utils"
	"eventsImporter/internal/utils/logger/sl"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type EventHandler struct {
	repository        EventRepository
	eventOrchestrator EventOrchestrator
	log               *slog.Logger
}

func NewEventHandler(log *slog.Logger, repo EventRepository, eventOrchestrator EventOrchestrator) *EventHandler {
	return &EventHandler{
		repository:        repo,
		eventOrchestrator: eventOrchestrator,
		log:               log,
	}
}

// GetEvents обрабатывает GET /api/events и GET /api/v1/events?status=...
// Если параметр status не задан или пустой — возвращаются все события.
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.GetEvents()"
	log := h.log.With(slog.String("op", op))

	status := r.URL.Query().Get("status")
	ctx := r.Context()

	var events []domain.Event
	var err error

	if status != "" {
		if !domain.EventStatus(status).IsValid() {
			respondError(log, fmt.Errorf("invalid status filter: %s", status), w, http.StatusBadRequest)
			return
		}
		events, err = h.repository.FindEventsByStatus(ctx, domain.EventStatus(status))
	} else {
		events, err = h.repository.ListEvents(ctx)
	}

	if err != nil {
		respondError(log, fmt.Errorf("failed to get events: %w", err), w, http.StatusInternalServerError)
		return
	}

	response := dto.MapDomainToEventResponseList(events)

	if err := utils.Json(w, http.StatusOK, response); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// GetEvent обрабатывает GET /api/v1/events/{eventId}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.GetEvent()"
	log := h.log.With(slog.String("op", op))

	id, err := eventID(r)
	if err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	event, err := h.repository.FindEventByID(r.Context(), id)
	if err != nil {
		respondError(log, fmt.Errorf("failed to get event: %w", err), w, statusFor(err))
		return
	}

	if err := utils.Json(w, http.StatusOK, dto.MapDomainToEventResponse(event)); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// UpdateStatus обрабатывает PUT /api/v1/events/{eventId}/status
// При переходе в NEW событие заново уходит в AI и Telegram.
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.UpdateStatus()"
	log := h.log.With(slog.String("op", op))

	id, err := eventID(r)
	if err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(log, fmt.Errorf("cannot decode json: %w", err), w, http.StatusBadRequest)
		return
	}

	if err := dto.Validate(req); err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	log.Info("updating event status",
		slog.String("eventID", id.String()),
		slog.String("status", req.Status),
	)

	ctx := r.Context()
	event, err := h.repository.FindEventByID(ctx, id)
	if err != nil {
		respondError(log, fmt.Errorf("failed to get event: %w", err), w, statusFor(err))
		return
	}

	status := domain.EventStatus(req.Status)
	if err := h.repository.UpdateEventStatus(ctx, id, status); err != nil {
		respondError(log, fmt.Errorf("failed to update event status: %w", err), w, statusFor(err))
		return
	}

	if status == domain.EventStatusNew && event.Status != domain.EventStatusNew {
		event.Status = status
		h.eventOrchestrator.Publish(event)
	}

	if err := utils.Json(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// DeleteEvent обрабатывает DELETE /api/v1/events/{eventId}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.DeleteEvent()"
	log := h.log.With(slog.String("op", op))

	id, err := eventID(r)
	if err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	if err := h.repository.DeleteEvent(r.Context(), id); err != nil {
		respondError(log, fmt.Errorf("failed to delete event: %w", err), w, statusFor(err))
		return
	}

	log.Info("event deleted", slog.String("eventID", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Scrape обрабатывает POST /api/v1/scrape: ставит страницы в очередь скрапера.
func (h *EventHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.Scrape()"
	log := h.log.With(slog.String("op", op))

	var req dto.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(log, fmt.Errorf("cannot decode json: %w", err), w, http.StatusBadRequest)
		return
	}

	if err := dto.Validate(req); err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	resp := dto.ScrapeResponse{Rejected: []string{}}
	for _, url := range req.URLs {
		if err := h.eventOrchestrator.AddJob(url); err != nil {
			resp.Rejected = append(resp.Rejected, url)
			continue
		}
		resp.Queued++
	}

	status := http.StatusAccepted
	if resp.Queued == 0 {
		status = http.StatusServiceUnavailable
	}

	if err := utils.Json(w, status, resp); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

func eventID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "eventId")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("empty eventId")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid eventId: %w", err)
	}
	return id, nil
}

func statusFor(err error) int {
	if errors.Is(err, repositories.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondError(log *slog.Logger, err error, w http.ResponseWriter, status int) {
	log.Error("handler error", sl.Err(err))
	if httpErr := utils.Err(w, status, err); httpErr != nil {
		log.Error("error sending http response", sl.Err(httpErr))
	}
}
