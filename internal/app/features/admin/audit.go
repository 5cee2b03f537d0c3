// internal/app/features/admin/audit.go
package admin

import (
	"net/http"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/store/audit"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/paging"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type auditResponse struct {
	Events []audit.Event `json:"events"`
	Page   paging.Page   `json:"page"`
}

// ServeAudit handles GET /api/admin/audit?userId=&category=&eventType=&since=&start=.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		httpjson.Error(w, h.Log, "list audit events", apperr.Missing("audit trail is not enabled"))
		return
	}

	var f audit.QueryFilter
	if raw := normalize.QueryParam(query.Get(r, "userId")); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpjson.Error(w, h.Log, "list audit events", apperr.Invalid("userId is not a valid id"))
			return
		}
		f.UserID = &oid
	}
	switch c := normalize.QueryParam(query.Get(r, "category")); c {
	case "", audit.CategoryAuth, audit.CategoryAdmin:
		f.Category = c
	default:
		httpjson.Error(w, h.Log, "list audit events", apperr.Invalid("category must be auth or admin"))
		return
	}
	f.EventType = normalize.QueryParam(query.Get(r, "eventType"))
	if raw := normalize.QueryParam(query.Get(r, "since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpjson.Error(w, h.Log, "list audit events", apperr.Invalid("since must be an RFC3339 timestamp"))
			return
		}
		f.StartTime = &since
	}
	start := paging.ParseStart(r)
	f.Skip = paging.Skip(start)
	f.Limit = paging.LimitPlusOne()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list audit events")
	defer cancel()

	rows, err := h.Events.Query(ctx, f)
	if err != nil {
		httpjson.Error(w, h.Log, "list audit events", apperr.Wrap(apperr.Upstream, "query audit events", err))
		return
	}
	page := paging.Trim(&rows, start)
	if rows == nil {
		rows = []audit.Event{}
	}
	httpjson.OK(w, auditResponse{Events: rows, Page: page})
}
