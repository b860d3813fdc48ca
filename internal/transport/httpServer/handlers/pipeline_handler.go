package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"eventsImporter/internal/imagehost"
	"eventsImporter/internal/importer"
	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/models/dto"
	"eventsImporter/internal/responder"
	httpDto "eventsImporter/internal/transport/httpServer/handlers/dto"
	"eventsImporter/internal/utils"
	"eventsImporter/internal/utils/logger/sl"
)

// PipelineHandler — эндпоинты, которыми пользуется расширение:
// извлечение, перезаливка картинки и импорт.
type PipelineHandler struct {
	log               *slog.Logger
	responder         Responder
	imageHost         ImageHost
	importer          Importer
	eventOrchestrator EventOrchestrator
}

func NewPipelineHandler(
	log *slog.Logger,
	responder Responder,
	imageHost ImageHost,
	importer Importer,
	eventOrchestrator EventOrchestrator,
) *PipelineHandler {
	return &PipelineHandler{
		log:               log,
		responder:         responder,
		imageHost:         imageHost,
		importer:          importer,
		eventOrchestrator: eventOrchestrator,
	}
}

// Extract обрабатывает POST /api/extract.
// Ответ всегда в форме {success, data, raw} или {success:false, error}.
func (h *PipelineHandler) Extract(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.PipelineHandler.Extract()"
	log := h.log.With(slog.String("op", op))

	var req httpDto.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(log, w, http.StatusBadRequest, domain.Err("cannot decode json: "+err.Error()))
		return
	}

	if err := httpDto.Validate(req); err != nil {
		writeJSON(log, w, http.StatusBadRequest, domain.Err(err.Error()))
		return
	}

	res := h.responder.Handle(r.Context(), responder.Message{
		Action: req.Action,
		URL:    req.URL,
		HTML:   req.HTML,
	})

	writeJSON(log, w, http.StatusOK, res)
}

// ProxyImage обрабатывает POST /api/proxy-image.
func (h *PipelineHandler) ProxyImage(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.PipelineHandler.ProxyImage()"
	log := h.log.With(slog.String("op", op))

	var req httpDto.ProxyImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(log, w, http.StatusBadRequest, httpDto.ProxyImageResponse{Error: "cannot decode json: " + err.Error()})
		return
	}

	if err := httpDto.Validate(req); err != nil {
		writeJSON(log, w, http.StatusBadRequest, httpDto.ProxyImageResponse{Error: err.Error()})
		return
	}

	res, err := h.imageHost.Rehost(r.Context(), req.ImageURL)
	if err != nil {
		log.Error("image proxy failed", sl.Err(err))

		status := http.StatusBadGateway
		if errors.Is(err, imagehost.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		writeJSON(log, w, status, httpDto.ProxyImageResponse{Error: err.Error()})
		return
	}

	writeJSON(log, w, http.StatusOK, httpDto.ProxyImageResponse{
		Success: true,
		URL:     res.URL,
		Service: res.Service,
	})
}

// ImportFromEmail обрабатывает POST /api/events/import-from-email.
// Новое событие передаётся оркестратору для AI и Telegram.
func (h *PipelineHandler) ImportFromEmail(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.PipelineHandler.ImportFromEmail()"
	log := h.log.With(slog.String("op", op))

	var data domain.EventData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeJSON(log, w, http.StatusBadRequest, dto.ImportResponse{Error: "cannot decode json: " + err.Error()})
		return
	}

	event, created, err := h.importer.Import(r.Context(), data)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, importer.ErrTitleRequired) {
			status = http.StatusUnprocessableEntity
		}
		log.Error("import failed", sl.Err(err))
		writeJSON(log, w, status, dto.ImportResponse{Error: err.Error()})
		return
	}

	if created {
		h.eventOrchestrator.Publish(event)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(log, w, status, dto.ImportResponse{
		Success: true,
		Event:   &dto.ImportedEvent{ID: event.ID.String(), Slug: event.Slug},
		Created: created,
	})
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, v any) {
	if err := utils.Json(w, status, v); err != nil {
		log.Error("error encoding response", sl.Err(fmt.Errorf("status %d: %w", status, err)))
	}
}
