package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/access-control-plane/app"
	"github.com/upb/access-control-plane/navigation"
)

// pageHandler answers a guarded page probe. The guard chain in front of it
// has already allowed the request; the body just confirms the path.
func pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"path":"` + path + `","status":"ok"}`))
	}
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Session lifecycle. Creation and deletion are reachable without a
		// session; the rest attach claims when one exists.
		r.Route("/session", func(r chi.Router) {
			r.Post("/", deps.SessionHandler.HandleCreateSession)
			r.Delete("/", deps.SessionHandler.HandleDeleteSession)

			r.Group(func(r chi.Router) {
				r.Use(deps.SessionMiddleware.RequireSession)
				r.Get("/me", deps.SessionHandler.HandleMe)
				r.Put("/company", deps.SessionHandler.HandleSelectCompany)
			})
		})

		// Access decisions. Session is optional so the unauthenticated case
		// yields the login redirect decision instead of a bare 401.
		r.Route("/access", func(r chi.Router) {
			r.Use(deps.SessionMiddleware.WithSession)
			r.Get("/decision", deps.AccessHandler.HandleDecision)
			r.Get("/snapshot", deps.AccessHandler.HandleSnapshot)
		})

		// Navigation menu requires a session
		r.Route("/navigation", func(r chi.Router) {
			r.Use(deps.SessionMiddleware.RequireSession)
			r.Get("/menu", deps.NavigationHandler.HandleMenu)
		})

	})

	// Guarded page routes. Every leaf of the navigation tree is mounted at
	// its own path so the guard chain sees exactly the paths the route index
	// was built from.
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionMiddleware.WithSession)
		r.Use(deps.GuardMiddleware.Protect)
		for _, path := range navigation.Paths(deps.Tree) {
			r.Get(path, pageHandler(path))
		}
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
