package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/b0b-collective/provider-hub/app"
	"github.com/b0b-collective/provider-hub/handlers"
	"github.com/b0b-collective/provider-hub/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(5 * time.Minute))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "https://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.APIKeyHeader},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.Catalog, deps.Logger)
	statusHandler := handlers.NewStatusHandler(deps.Catalog, deps.Logger)
	chatHandler := handlers.NewChatHandler(deps.Dispatcher, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(deps.Config.Auth.APIKey, deps.Logger))

		r.Get("/providers", statusHandler.HandleStatus)

		// Chat fans out to paid provider APIs, so it gets its own limit.
		r.With(httprate.LimitByIP(
			deps.Config.RateLimit.ChatRequests,
			deps.Config.RateLimit.ChatWindow,
		)).Post("/chat", chatHandler.HandleChat)
	})

	return r
}
