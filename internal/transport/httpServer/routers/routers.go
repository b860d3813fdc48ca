package routers

import (
	"log/slog"
	"net/http"

	"eventsImporter/internal/transport/httpServer/handlers"
	myMiddleware "eventsImporter/internal/transport/httpServer/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Router struct {
	log             *slog.Logger
	eventHandler    *handlers.EventHandler
	pipelineHandler *handlers.PipelineHandler
	authHandler     *handlers.AuthHandler
	auth            *myMiddleware.Auth
	metrics         http.Handler
	uploadsDir      string
	uploadsPath     string
}

// NewRouter собирает маршруты. metrics может быть nil, uploadsDir пустым.
func NewRouter(
	log *slog.Logger,
	eventHandler *handlers.EventHandler,
	pipelineHandler *handlers.PipelineHandler,
	authHandler *handlers.AuthHandler,
	auth *myMiddleware.Auth,
	metrics http.Handler,
	uploadsDir string,
	uploadsPath string,
) *Router {
	return &Router{
		log:             log,
		eventHandler:    eventHandler,
		pipelineHandler: pipelineHandler,
		authHandler:     authHandler,
		auth:            auth,
		metrics:         metrics,
		uploadsDir:      uploadsDir,
		uploadsPath:     uploadsPath,
	}
}

func (r *Router) Mount(mux *chi.Mux) {

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(myMiddleware.LoggerMiddleware(r.log))
	mux.Use(middleware.Heartbeat("/ping"))

	if r.metrics != nil {
		mux.Handle("/metrics", r.metrics)
	}

	if r.uploadsDir != "" && r.uploadsPath != "" {
		fs := http.StripPrefix(r.uploadsPath, http.FileServer(http.Dir(r.uploadsDir)))
		mux.Handle(r.uploadsPath+"*", fs)
	}

	mux.Route("/api", func(mux chi.Router) {
		mux.Post("/extract", r.pipelineHandler.Extract)
		mux.Post("/proxy-image", r.pipelineHandler.ProxyImage)
		mux.Post("/auth/login", r.authHandler.Login)

		mux.Route("/events", func(mux chi.Router) {
			mux.Get("/", r.eventHandler.GetEvents)
			mux.Post("/import-from-email", r.pipelineHandler.ImportFromEmail)
		})

		mux.Route("/v1", func(mux chi.Router) {
			mux.Use(r.auth.Middleware)

			mux.Post("/scrape", r.eventHandler.Scrape)
			mux.Route("/events", func(mux chi.Router) {
				mux.Get("/", r.eventHandler.GetEvents)
				mux.Get("/{eventId}", r.eventHandler.GetEvent)
				mux.Put("/{eventId}/status", r.eventHandler.UpdateStatus)
				mux.Delete("/{eventId}", r.eventHandler.DeleteEvent)
			})
		})
	})
}
