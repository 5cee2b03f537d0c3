// internal/app/features/admin/users.go
package admin

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/paging"
	"github.com/dalemusser/bloodconnect/internal/app/system/params"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type usersResponse struct {
	Users []models.User `json:"users"`
	Page  paging.Page   `json:"page"`
}

// ServeUsers handles GET /api/admin/users?role=&status=&start=.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	var f userstore.ListFilter
	if raw := normalize.QueryParam(query.Get(r, "role")); raw != "" {
		if f.Role = normalize.Role(raw); f.Role == "" {
			httpjson.Error(w, h.Log, "list users", apperr.Invalid("role must be donor, recipient or admin"))
			return
		}
	}
	if raw := normalize.QueryParam(query.Get(r, "status")); raw != "" {
		if f.Status = normalize.Status(raw); f.Status == "" {
			httpjson.Error(w, h.Log, "list users", apperr.Invalid("status must be active, inactive or pending"))
			return
		}
	}
	start := paging.ParseStart(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	rows, err := h.Users.List(ctx, f, paging.Skip(start), paging.LimitPlusOne())
	if err != nil {
		httpjson.Error(w, h.Log, "list users", apperr.Wrap(apperr.Upstream, "list users", err))
		return
	}
	page := paging.Trim(&rows, start)
	if rows == nil {
		rows = []models.User{}
	}
	httpjson.OK(w, usersResponse{Users: rows, Page: page})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles PUT /api/admin/users/{id}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id", "user")
	if err != nil {
		httpjson.Error(w, h.Log, "set user status", err)
		return
	}
	var in statusRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "set user status", err)
		return
	}
	status := normalize.Status(in.Status)
	if status == "" {
		httpjson.Error(w, h.Log, "set user status", apperr.Invalid("status must be active, inactive or pending"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set user status")
	defer cancel()

	u, err := h.Users.SetStatus(ctx, id, status)
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, h.Log, "set user status", apperr.Missing("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, "set user status", apperr.Wrap(apperr.Upstream, "set user status", err))
		return
	}

	_, adminID, _ := authz.UserCtx(r)
	h.Audit.UserStatusChanged(ctx, r, id, adminID, status)
	h.Log.Info("user status changed",
		zap.String("admin_id", adminID.Hex()),
		zap.String("user_id", id.Hex()),
		zap.String("status", status))
	httpjson.OK(w, u)
}
