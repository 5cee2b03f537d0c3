// internal/app/features/requests/requests.go
package requests

import (
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/params"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/bloodrequest"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.uber.org/zap"
)

var errUnauthenticated = apperr.New(apperr.Unauthorized, "authentication required")

// HandleCreate handles POST /api/requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		httpjson.Error(w, h.Log, "create request", errUnauthenticated)
		return
	}
	var in bloodrequest.NewRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "create request", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create request")
	defer cancel()

	req, err := h.Requests.Create(ctx, a.ID, in)
	if err != nil {
		httpjson.Error(w, h.Log, "create request", err)
		return
	}
	h.Log.Info("blood request created",
		zap.String("request_id", req.ID.Hex()),
		zap.String("recipient_id", a.ID.Hex()),
		zap.String("blood_type", req.BloodType),
		zap.String("urgency", req.Urgency))
	httpjson.Created(w, req)
}

// ServeList handles GET /api/requests: the caller's own requests, newest
// first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		httpjson.Error(w, h.Log, "list requests", errUnauthenticated)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list requests")
	defer cancel()

	list, err := h.Requests.List(ctx, a.ID)
	if err != nil {
		httpjson.Error(w, h.Log, "list requests", err)
		return
	}
	if list == nil {
		list = []models.BloodRequest{}
	}
	httpjson.OK(w, list)
}

// ServeRequest handles GET /api/requests/{id}.
func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		httpjson.Error(w, h.Log, "get request", errUnauthenticated)
		return
	}
	id, err := params.PathID(r, "id", "blood request")
	if err != nil {
		httpjson.Error(w, h.Log, "get request", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get request")
	defer cancel()

	req, err := h.Requests.Get(ctx, id, a)
	if err != nil {
		httpjson.Error(w, h.Log, "get request", err)
		return
	}
	httpjson.OK(w, req)
}

// HandleClose handles PUT /api/requests/{id}/close.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		httpjson.Error(w, h.Log, "close request", errUnauthenticated)
		return
	}
	id, err := params.PathID(r, "id", "blood request")
	if err != nil {
		httpjson.Error(w, h.Log, "close request", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "close request")
	defer cancel()

	req, err := h.Requests.Close(ctx, id, a)
	if err != nil {
		httpjson.Error(w, h.Log, "close request", err)
		return
	}
	h.Log.Info("blood request closed",
		zap.String("request_id", id.Hex()),
		zap.String("status", req.Status))
	httpjson.OK(w, req)
}

// ServeMatches handles GET /api/requests/{id}/matches. Without lat/lng the
// caller's stored location is used, and without either the donors come
// back unranked.
func (h *Handler) ServeMatches(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		httpjson.Error(w, h.Log, "match donors", errUnauthenticated)
		return
	}
	id, err := params.PathID(r, "id", "blood request")
	if err != nil {
		httpjson.Error(w, h.Log, "match donors", err)
		return
	}
	loc, err := params.QueryPoint(r)
	if err != nil {
		httpjson.Error(w, h.Log, "match donors", err)
		return
	}
	if loc == nil {
		if u, ok := auth.CurrentUser(r); ok {
			loc = u.Location
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "match donors")
	defer cancel()

	donors, err := h.Requests.MatchCandidates(ctx, id, a, loc)
	if err != nil {
		httpjson.Error(w, h.Log, "match donors", err)
		return
	}
	if donors == nil {
		donors = []donorsearch.DonorResult{}
	}
	httpjson.OK(w, donors)
}
