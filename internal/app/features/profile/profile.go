// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/params"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.uber.org/zap"
)

// MaxAddressLen bounds the free-text address.
const MaxAddressLen = 300

// ServeMe handles GET /api/users/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, h.Log, "profile", apperr.New(apperr.Unauthorized, "authentication required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile")
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, h.Log, "profile", apperr.Missing("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, "profile", apperr.Wrap(apperr.Upstream, "load user", err))
		return
	}
	httpjson.OK(w, u)
}

// updateRequest is a partial update; omitted fields are unchanged.
type updateRequest struct {
	Name          *string  `json:"name"`
	BloodType     *string  `json:"bloodType"`
	Phone         *string  `json:"phone"`
	Address       *string  `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	ClearLocation bool     `json:"clearLocation"`
}

// HandleUpdate handles PUT /api/users/profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	_, uid, valid := authz.UserCtx(r)
	if !ok || !valid {
		httpjson.Error(w, h.Log, "update profile", apperr.New(apperr.Unauthorized, "authentication required"))
		return
	}

	var in updateRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "update profile", err)
		return
	}
	upd, err := buildUpdate(in, u.Role)
	if err != nil {
		httpjson.Error(w, h.Log, "update profile", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update profile")
	defer cancel()

	updated, err := h.Users.UpdateProfile(ctx, uid, upd)
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, h.Log, "update profile", apperr.Missing("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, "update profile", apperr.Wrap(apperr.Upstream, "update user", err))
		return
	}
	h.Log.Info("profile updated", zap.String("user_id", uid.Hex()))
	httpjson.OK(w, updated)
}

func buildUpdate(in updateRequest, role string) (userstore.ProfileUpdate, error) {
	var res inputval.Result
	var upd userstore.ProfileUpdate

	if in.Name != nil {
		name := normalize.Name(htmlsanitize.PlainText(*in.Name))
		res.Check(inputval.IsValidName(name), "name", "name must be at least 2 letters")
		upd.Name = &name
	}
	if in.BloodType != nil {
		bt := strings.TrimSpace(*in.BloodType)
		switch {
		case bt == "" && role == models.RoleDonor:
			res.Check(false, "bloodType", "donors must keep a blood type")
		case bt != "":
			res.Check(inputval.IsValidBloodType(bt), "bloodType", "bloodType must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
		}
		upd.BloodType = &bt
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" {
			res.Check(inputval.IsValidPhone(phone), "phone", "phone must have 10 digits")
		}
		upd.Phone = &phone
	}
	if in.Address != nil {
		addr := htmlsanitize.PlainText(*in.Address)
		res.Check(len(addr) <= MaxAddressLen, "address", "address is too long")
		upd.Address = &addr
	}
	if res.HasErrors() {
		return userstore.ProfileUpdate{}, apperr.Invalid(res.All())
	}

	if in.ClearLocation {
		if in.Latitude != nil || in.Longitude != nil {
			return userstore.ProfileUpdate{}, apperr.Invalid("clearLocation cannot be combined with coordinates")
		}
		upd.ClearLocation = true
		return upd, nil
	}
	loc, err := params.Point(in.Latitude, in.Longitude)
	if err != nil {
		return userstore.ProfileUpdate{}, err
	}
	upd.Coordinates = loc
	return upd, nil
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword handles PUT /api/users/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, h.Log, "change password", apperr.New(apperr.Unauthorized, "authentication required"))
		return
	}

	var in passwordRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "change password", err)
		return
	}
	if problems := inputval.PasswordProblems(in.NewPassword); len(problems) > 0 {
		httpjson.Error(w, h.Log, "change password", apperr.Invalid("password needs "+strings.Join(problems, ", ")))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change password")
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, h.Log, "change password", apperr.Missing("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, "change password", apperr.Wrap(apperr.Upstream, "load user", err))
		return
	}
	if !auth.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		httpjson.Error(w, h.Log, "change password", apperr.New(apperr.Unauthorized, "current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		httpjson.Error(w, h.Log, "change password", apperr.Wrap(apperr.Internal, "hash password", err))
		return
	}
	if err := h.Users.SetPasswordHash(ctx, uid, hash); err != nil {
		httpjson.Error(w, h.Log, "change password", apperr.Wrap(apperr.Upstream, "store password", err))
		return
	}
	h.Audit.PasswordChanged(ctx, r, uid)
	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
