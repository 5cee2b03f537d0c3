// internal/app/features/donors/donor.go
package donors

import (
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/params"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/donation"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (h *Handler) donorID(w http.ResponseWriter, r *http.Request, op string) (primitive.ObjectID, bool) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, h.Log, op, apperr.New(apperr.Unauthorized, "authentication required"))
	}
	return uid, ok
}

// ServeProfile handles GET /api/donors/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.donorID(w, r, "donor profile")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donor profile")
	defer cancel()

	p, err := h.Donations.Profile(ctx, uid)
	if err != nil {
		httpjson.Error(w, h.Log, "donor profile", err)
		return
	}
	httpjson.OK(w, p)
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

// HandleAvailability handles PUT /api/donors/availability.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.donorID(w, r, "set availability")
	if !ok {
		return
	}
	var in availabilityRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "set availability", err)
		return
	}
	if in.Available == nil {
		httpjson.Error(w, h.Log, "set availability", apperr.Invalid("available is required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set availability")
	defer cancel()

	u, err := h.Availability.SetDonorAvailability(ctx, uid, *in.Available)
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, h.Log, "set availability", apperr.Missing("donor not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, "set availability", apperr.Wrap(apperr.Upstream, "set availability", err))
		return
	}
	h.Log.Info("donor availability changed",
		zap.String("user_id", uid.Hex()),
		zap.String("status", u.Status))
	httpjson.OK(w, u)
}

type donationRequest struct {
	Date        string `json:"date"`
	Location    string `json:"location"`
	BloodAmount int    `json:"bloodAmount"`
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Blank means
// now.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperr.Invalid("date must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return &t, nil
}

// HandleRecordDonation handles POST /api/donors/donations.
func (h *Handler) HandleRecordDonation(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.donorID(w, r, "record donation")
	if !ok {
		return
	}
	var in donationRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "record donation", err)
		return
	}
	date, err := parseDate(in.Date)
	if err != nil {
		httpjson.Error(w, h.Log, "record donation", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "record donation")
	defer cancel()

	d, err := h.Donations.Record(ctx, uid, donation.NewDonation{
		Date:        date,
		Location:    in.Location,
		BloodAmount: in.BloodAmount,
	})
	if err != nil {
		httpjson.Error(w, h.Log, "record donation", err)
		return
	}
	h.Log.Info("donation recorded",
		zap.String("user_id", uid.Hex()),
		zap.String("donation_id", d.ID.Hex()))
	httpjson.Created(w, d)
}

// HandleCancelDonation handles PUT /api/donors/donations/{id}/cancel.
func (h *Handler) HandleCancelDonation(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.donorID(w, r, "cancel donation")
	if !ok {
		return
	}
	id, err := params.PathID(r, "id", "donation")
	if err != nil {
		httpjson.Error(w, h.Log, "cancel donation", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "cancel donation")
	defer cancel()

	d, err := h.Donations.Cancel(ctx, uid, id)
	if err != nil {
		httpjson.Error(w, h.Log, "cancel donation", err)
		return
	}
	h.Log.Info("donation cancelled",
		zap.String("user_id", uid.Hex()),
		zap.String("donation_id", id.Hex()))
	httpjson.OK(w, d)
}

// ServeEligibility handles GET /api/donors/eligibility.
func (h *Handler) ServeEligibility(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.donorID(w, r, "eligibility")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "eligibility")
	defer cancel()

	st, err := h.Donations.Eligibility(ctx, uid)
	if err != nil {
		httpjson.Error(w, h.Log, "eligibility", err)
		return
	}
	httpjson.OK(w, st)
}

// ServeMatchingRequests handles GET /api/donors/requests. A donor without
// a blood type on file matches nothing.
func (h *Handler) ServeMatchingRequests(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, h.Log, "matching requests", apperr.New(apperr.Unauthorized, "authentication required"))
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "matching requests")
	defer cancel()

	list, err := h.Requests.ActiveForDonor(ctx, u.BloodType)
	if err != nil {
		httpjson.Error(w, h.Log, "matching requests", err)
		return
	}
	if list == nil {
		list = []models.BloodRequest{}
	}
	httpjson.OK(w, list)
}
