// internal/app/features/donors/search.go
package donors

import (
	"net/http"
	"strings"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/params"
	"github.com/dalemusser/bloodconnect/internal/app/system/requestid"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/bloodtype"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"go.uber.org/zap"
)

// ServeSearch handles GET /api/donors/search.
//
// lat/lng override the requester's stored location for this search only.
// onlyAvailable defaults to true.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearch(r)
	if err != nil {
		httpjson.Error(w, h.Log, "donor search", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donor search")
	defer cancel()

	results, err := h.Search.Search(ctx, q)
	if err != nil {
		httpjson.Error(w, h.Log, "donor search", err)
		return
	}
	h.Log.Debug("donor search",
		requestid.Field(r),
		zap.String("blood_type", q.BloodType),
		zap.Bool("compatible", q.Compatible),
		zap.Int("results", len(results)))
	httpjson.OK(w, results)
}

func parseSearch(r *http.Request) (donorsearch.Query, error) {
	// Read the raw value: an unescaped "+" arrives as a trailing space.
	raw := r.URL.Query().Get("bloodType")
	bt, ok := bloodtype.Parse(raw)
	if !ok {
		// Let the engine report it as missing or unknown.
		bt = strings.TrimSpace(raw)
	}
	q := donorsearch.Query{BloodType: bt}

	var err error
	if q.MaxDistanceKm, err = params.QueryFloat(r, "maxDistanceKm"); err != nil {
		return q, err
	}
	if q.OnlyAvailable, err = params.QueryBool(r, "onlyAvailable", true); err != nil {
		return q, err
	}
	if q.Compatible, err = params.QueryBool(r, "compatible", false); err != nil {
		return q, err
	}
	if q.Limit, err = params.QueryInt(r, "limit", 0); err != nil {
		return q, err
	}
	if q.Requester, err = params.QueryPoint(r); err != nil {
		return q, err
	}
	if q.Requester == nil {
		if u, ok := auth.CurrentUser(r); ok {
			q.Requester = u.Location
		}
	}
	return q, nil
}
