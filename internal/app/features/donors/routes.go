// internal/app/features/donors/routes.go
package donors

import (
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/donors. Search belongs to requesters; everything
// else is the donor's own record.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.With(authz.Require(authz.SearchDonors)).Get("/search", h.ServeSearch)

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.RecordDonations))
		r.Get("/profile", h.ServeProfile)
		r.Put("/availability", h.HandleAvailability)
		r.Post("/donations", h.HandleRecordDonation)
		r.Put("/donations/{id}/cancel", h.HandleCancelDonation)
		r.Get("/eligibility", h.ServeEligibility)
	})

	r.With(authz.Require(authz.ViewMatchingReqs)).Get("/requests", h.ServeMatchingRequests)
	return r
}
