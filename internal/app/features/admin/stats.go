// internal/app/features/admin/stats.go
package admin

import (
	"net/http"
	"time"

	donationstore "github.com/dalemusser/bloodconnect/internal/app/store/donations"
	requeststore "github.com/dalemusser/bloodconnect/internal/app/store/requests"
	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Users     userstore.RoleCounts      `json:"users"`
	Donations donationstore.Counts      `json:"donations"`
	Requests  requeststore.StatusCounts `json:"requests"`
}

// monthStart is midnight UTC on the first of t's month.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ServeStats handles GET /api/admin/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin stats")
	defer cancel()

	var s Stats
	var err error
	if s.Users, err = h.Users.CountByRole(ctx); err != nil {
		httpjson.Error(w, h.Log, "admin stats", apperr.Wrap(apperr.Upstream, "count users", err))
		return
	}
	if s.Donations, err = h.Donations.CountCompleted(ctx, monthStart(h.Now())); err != nil {
		httpjson.Error(w, h.Log, "admin stats", apperr.Wrap(apperr.Upstream, "count donations", err))
		return
	}
	if s.Requests, err = h.Requests.CountByStatus(ctx); err != nil {
		httpjson.Error(w, h.Log, "admin stats", apperr.Wrap(apperr.Upstream, "count requests", err))
		return
	}
	httpjson.OK(w, s)
}
