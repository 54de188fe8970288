// Package rest assembles the HTTP API surface.
package rest

import (
	"net/http"

	"deckgen-backend/infrastructure/di"
	"deckgen-backend/interfaces/http/rest/handlers"
	custommw "deckgen-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the API router
func NewRouter(container *di.Container) chi.Router {
	slideHandler := handlers.NewSlideHandler(container.Editor, container.Logger)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(custommw.Logger(container.Logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	router.Get("/health", healthCheck)
	if container.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", container.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(custommw.CircuitBreaker(custommw.DefaultCircuitBreakerConfig("editor"), container.Logger))

		r.Route("/decks/{deckID}", func(r chi.Router) {
			r.Post("/slides", slideHandler.CreateSlide)
			r.Get("/slides", slideHandler.ListSlides)
			r.Get("/slides/{slideID}", slideHandler.GetSlide)
			r.Patch("/slides/{slideID}", slideHandler.UpdateSlide)
			r.Delete("/slides/{slideID}", slideHandler.DeleteSlide)
			r.Post("/slides/{slideID}/move", slideHandler.MoveSlide)

			r.Post("/undo", slideHandler.Undo)
			r.Post("/redo", slideHandler.Redo)
			r.Post("/undo-many", slideHandler.UndoMany)
			r.Post("/redo-many", slideHandler.RedoMany)

			r.Get("/history", slideHandler.History)
			r.Delete("/history", slideHandler.ClearHistory)
			r.Post("/history/save", slideHandler.PersistHistory)
			r.Post("/history/restore", slideHandler.RestoreHistory)
		})
	})

	return router
}

// healthCheck provides a health check endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
