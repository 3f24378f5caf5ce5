package routes

import (
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/handlers"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles everything the router dispatches to
type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Complaints *handlers.ComplaintHandler
}

// RegisterRoutes mounts the API under /api. Protected routes only run once the
// gate has attached an identity to the request.
func RegisterRoutes(router chi.Router, h Handlers, gate *auth.Gate) {
	router.NotFound(handlers.NotFound)
	router.Get("/", h.Health.Root)

	router.Route("/api", func(r chi.Router) {
		// Public routes - no authentication required
		r.Get("/health", h.Health.Health)
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(gate.Middleware)

			r.Get("/profile", h.Auth.Profile)
			r.Post("/complaints", h.Complaints.Create)
			r.Get("/my-complaints", h.Complaints.ListMine)
			r.Get("/complaints/{id}", h.Complaints.Get)
			r.Patch("/complaints/{id}", h.Complaints.UpdateContent)

			// Admin-only routes
			r.With(auth.Require(auth.OpListAllComplaints)).Get("/complaints", h.Complaints.ListAll)
			r.With(auth.Require(auth.OpChangeComplaintStatus)).Put("/complaints/{id}", h.Complaints.UpdateStatus)
		})
	})
}
