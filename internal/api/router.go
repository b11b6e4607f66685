package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Public routes
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/config", s.handleConfig)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.With(s.rateLimitMiddleware).Post("/login", s.handleLogin)
	})

	// Protected routes
	r.Route("/tasks", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/", s.handleListTasks)
		r.Post("/", s.handleCreateTask)
		r.Put("/{id}", s.handleUpdateTask)
		r.Delete("/{id}", s.handleDeleteTask)
	})

	return r
}

// handleIndex lists the available routes.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"name":    "classtask-core",
		"version": s.version,
		"routes": []string{
			"POST /auth/signup",
			"POST /auth/login",
			"GET /tasks",
			"POST /tasks",
			"PUT /tasks/{id}",
			"DELETE /tasks/{id}",
			"GET /health",
			"GET /config",
		},
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleConfig exposes client-facing feature flags. Flags are read once at
// startup and never influence authorization decisions.
func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"features": map[string]any{
			"assistantEnabled": s.cfg.Features.EnableAssistant,
			"assistantModel":   s.cfg.Features.AssistantModel,
		},
	})
}
