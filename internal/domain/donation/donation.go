// Package donation records donors' donations and keeps each donor's
// derived donationCount and lastDonationDate in step with them.
package donation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/eligibility"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by a Store when no donation has the given ID.
var ErrNotFound = errors.New("donation not found")

// Limits on recorded values.
const (
	MaxLocationLen = 200
	MaxBloodAmount = 1000 // ml
)

// Store persists donations.
type Store interface {
	Insert(ctx context.Context, d *models.Donation) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Donation, error)
	ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Donation, error)
	// Cancel moves a completed donation to cancelled. changed is false when
	// it was already cancelled.
	Cancel(ctx context.Context, id primitive.ObjectID) (d *models.Donation, changed bool, err error)
	// Stats counts the donor's completed donations and returns the latest date.
	Stats(ctx context.Context, donorID primitive.ObjectID) (count int, last *time.Time, err error)
}

// StatsWriter stores the derived per-donor fields.
type StatsWriter interface {
	SetDonationStats(ctx context.Context, id primitive.ObjectID, count int, last *time.Time) error
}

// Atomic runs fn so that its writes commit together where the store allows.
type Atomic func(ctx context.Context, fn func(ctx context.Context) error) error

// NewDonation is the donor-supplied part of a Donation. A nil Date means
// today; a zero BloodAmount means DefaultBloodAmount.
type NewDonation struct {
	Date        *time.Time
	Location    string
	BloodAmount int
}

// Profile is a donor's history with the derived fields and eligibility.
type Profile struct {
	Donations     []models.Donation  `json:"donations"`
	DonationCount int                `json:"donationCount"`
	Eligibility   eligibility.Status `json:"eligibility"`
}

// Service implements the donation operations.
type Service struct {
	store    Store
	users    StatsWriter
	atomic   Atomic
	sanitize func(string) string
	now      func() time.Time
}

// NewService wires a Service. atomic and sanitize may be nil.
func NewService(store Store, users StatsWriter, atomic Atomic, sanitize func(string) string) *Service {
	if atomic == nil {
		atomic = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	if sanitize == nil {
		sanitize = strings.TrimSpace
	}
	return &Service{store: store, users: users, atomic: atomic, sanitize: sanitize, now: time.Now}
}

// SetClock replaces the service clock.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Record stores a completed donation for donorID and refreshes the donor's
// derived fields.
func (s *Service) Record(ctx context.Context, donorID primitive.ObjectID, in NewDonation) (*models.Donation, error) {
	now := s.now().UTC()

	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}
	if date.After(now) {
		return nil, apperr.Invalid("date cannot be in the future")
	}
	location := s.sanitize(in.Location)
	switch {
	case location == "":
		return nil, apperr.Invalid("location is required")
	case len(location) > MaxLocationLen:
		return nil, apperr.Invalid("location is too long")
	}
	amount := in.BloodAmount
	if amount == 0 {
		amount = models.DefaultBloodAmount
	}
	if amount < 0 || amount > MaxBloodAmount {
		return nil, apperr.Invalid("bloodAmount must be between 1 and 1000 ml")
	}

	d := &models.Donation{
		DonorID:     donorID,
		Date:        date,
		Location:    location,
		BloodAmount: amount,
		Status:      models.DonationCompleted,
		CreatedAt:   now,
	}
	err := s.atomic(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, d); err != nil {
			return err
		}
		return s.refresh(ctx, donorID)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "record donation", err)
	}
	return d, nil
}

// Cancel marks one of donorID's donations cancelled. Donations owned by
// someone else are reported as not found. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, donorID, id primitive.ObjectID) (*models.Donation, error) {
	d, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Missing("donation not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "get donation", err)
	}
	if d.DonorID != donorID {
		return nil, apperr.Missing("donation not found")
	}
	if d.Status == models.DonationCancelled {
		return d, nil
	}

	var out *models.Donation
	err = s.atomic(ctx, func(ctx context.Context) error {
		updated, changed, err := s.store.Cancel(ctx, id)
		if err != nil {
			return err
		}
		out = updated
		if !changed {
			return nil
		}
		return s.refresh(ctx, donorID)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Missing("donation not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "cancel donation", err)
	}
	return out, nil
}

// Profile returns donorID's donations (newest first), the completed count
// and current eligibility.
func (s *Service) Profile(ctx context.Context, donorID primitive.ObjectID) (*Profile, error) {
	list, err := s.store.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "list donations", err)
	}
	if list == nil {
		list = []models.Donation{}
	}
	count, last := summarize(list)
	return &Profile{
		Donations:     list,
		DonationCount: count,
		Eligibility:   eligibility.Evaluate(last, s.now()),
	}, nil
}

// Eligibility evaluates donorID's cooldown from recorded donations.
func (s *Service) Eligibility(ctx context.Context, donorID primitive.ObjectID) (eligibility.Status, error) {
	_, last, err := s.store.Stats(ctx, donorID)
	if err != nil {
		return eligibility.Status{}, apperr.Wrap(apperr.Upstream, "donation stats", err)
	}
	return eligibility.Evaluate(last, s.now()), nil
}

func (s *Service) refresh(ctx context.Context, donorID primitive.ObjectID) error {
	count, last, err := s.store.Stats(ctx, donorID)
	if err != nil {
		return err
	}
	return s.users.SetDonationStats(ctx, donorID, count, last)
}

// summarize counts completed donations and finds the latest date.
func summarize(list []models.Donation) (int, *time.Time) {
	var count int
	var last *time.Time
	for i := range list {
		if list[i].Status != models.DonationCompleted {
			continue
		}
		count++
		if last == nil || list[i].Date.After(*last) {
			d := list[i].Date
			last = &d
		}
	}
	return count, last
}
