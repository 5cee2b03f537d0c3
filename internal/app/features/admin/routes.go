// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/admin.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(authz.Require(authz.ManageUsers)).Get("/users", h.ServeUsers)
	r.With(authz.Require(authz.ManageUsers)).Put("/users/{id}/status", h.HandleSetStatus)
	r.With(authz.Require(authz.ViewStats)).Get("/stats", h.ServeStats)
	r.With(authz.Require(authz.ManageUsers)).Get("/audit", h.ServeAudit)
	return r
}
