// internal/app/features/requests/routes.go
package requests

import (
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/requests for recipients and admins.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authz.Require(authz.ManageRequests))
	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeRequest)
	r.Put("/{id}/close", h.HandleClose)
	r.Get("/{id}/matches", h.ServeMatches)
	return r
}
