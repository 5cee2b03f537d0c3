// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the signed-in user's own account under /api/users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/me", h.ServeMe)
	r.Put("/profile", h.HandleUpdate)
	r.Put("/password", h.HandleChangePassword)
	return r
}
