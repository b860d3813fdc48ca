package httpServer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"eventsImporter/internal/config"
	"eventsImporter/internal/transport/httpServer/routers"
	"eventsImporter/internal/utils/logger/sl"

	"github.com/go-chi/chi/v5"
)

type HttpServer struct {
	log    *slog.Logger
	server *http.Server
}

// NewHttpServer монтирует маршруты на chi и готовит http.Server.
func NewHttpServer(log *slog.Logger, router *routers.Router, cfg *config.Config) *HttpServer {
	mux := chi.NewRouter()
	router.Mount(mux)

	return &HttpServer{
		log: log,
		server: &http.Server{
			Addr:         cfg.HttpServer.HTTPAddr(),
			Handler:      mux,
			ReadTimeout:  cfg.HttpServer.Timeout,
			WriteTimeout: cfg.HttpServer.Timeout,
			IdleTimeout:  2 * cfg.HttpServer.Timeout,
		},
	}
}

// Handler возвращает корневой обработчик со всеми маршрутами.
func (s *HttpServer) Handler() http.Handler {
	return s.server.Handler
}

// Listen блокируется до остановки сервера.
func (s *HttpServer) Listen() {
	op := "httpServer.Listen()"
	log := s.log.With(slog.String("op", op))

	log.Info("http server started", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", sl.Err(err))
	}
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpServer.Shutdown: %w", err)
	}
	return nil
}
