package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/equiptrack/defect-registry/internal/handlers"
	"github.com/equiptrack/defect-registry/internal/middleware"
	"github.com/equiptrack/defect-registry/internal/services"
)

// SetupRoutes wires the auth and defect endpoints plus the static file server.
func SetupRoutes(r *chi.Mux, auth *handlers.AuthHandler, defects *handlers.DefectHandler, sessions services.SessionStore, staticDir string) {
	// Auth routes
	r.Post("/register", auth.Register)
	r.Post("/login", auth.Login)
	r.Post("/logout", auth.Logout)
	r.Get("/check-session", auth.CheckSession)
	r.Get("/after_login", auth.AfterLogin)

	// Defect routes (session required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions))
		r.Post("/report-defect", defects.Report)
		r.Get("/get-defects", defects.List)
	})

	// Static assets (HTML/CSS/client script) served as-is
	r.Handle("/*", http.FileServer(http.Dir(staticDir)))
}
