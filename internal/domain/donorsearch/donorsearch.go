// Package donorsearch finds donors for a blood type, optionally ranked and
// bounded by distance from the requester.
package donorsearch

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/bloodtype"
	"github.com/dalemusser/bloodconnect/internal/domain/geo"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result limits.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// DonorFilter is the predicate pushed down to the directory.
type DonorFilter struct {
	BloodTypes []string // exact matches; never empty
	OnlyActive bool
}

// Directory returns donor records matching a filter. Order is not
// significant; the engine ranks the results.
type Directory interface {
	FindDonors(ctx context.Context, f DonorFilter) ([]models.User, error)
}

// Query describes one search.
type Query struct {
	BloodType     string
	Requester     *models.GeoPoint // nil when the requester's location is unknown
	MaxDistanceKm *float64         // nil means no radius
	OnlyAvailable bool
	// Compatible widens the candidate set to every donor type that can give
	// red cells to BloodType. The default is an exact type match.
	Compatible bool
	Limit      int // 0 means the engine default
}

// DonorResult is what a requester sees about a donor. Raw coordinates are
// never exposed; Location is the donor's address text.
type DonorResult struct {
	ID               primitive.ObjectID `json:"id"`
	Name             string             `json:"name"`
	BloodType        string             `json:"bloodType"`
	Location         string             `json:"location,omitempty"`
	Phone            string             `json:"phone,omitempty"`
	Status           string             `json:"status"`
	LastDonationDate *time.Time         `json:"lastDonationDate,omitempty"`
	DistanceKm       *float64           `json:"distanceKm,omitempty"`
}

// Engine runs searches against a Directory. It holds no mutable state.
type Engine struct {
	dir          Directory
	defaultLimit int
}

// New returns an Engine. A defaultLimit outside 1..MaxLimit falls back to
// DefaultLimit.
func New(dir Directory, defaultLimit int) *Engine {
	if defaultLimit < 1 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	return &Engine{dir: dir, defaultLimit: defaultLimit}
}

// Validate checks q and returns the effective limit.
func (e *Engine) Validate(q Query) (int, error) {
	if q.BloodType == "" {
		return 0, apperr.Invalid("bloodType is required")
	}
	if !bloodtype.Valid(q.BloodType) {
		return 0, apperr.Invalid("bloodType must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	if d := q.MaxDistanceKm; d != nil && (math.IsNaN(*d) || math.IsInf(*d, 0)) {
		return 0, apperr.Invalid("maxDistanceKm must be a finite number")
	}
	if q.MaxDistanceKm != nil && *q.MaxDistanceKm < 0 {
		return 0, apperr.Invalid("maxDistanceKm must not be negative")
	}
	if q.Requester != nil && !geo.ValidPoint(*q.Requester) {
		return 0, apperr.Invalid("requester coordinates are out of range")
	}
	switch {
	case q.Limit < 0:
		return 0, apperr.Invalid("limit must not be negative")
	case q.Limit == 0:
		return e.defaultLimit, nil
	case q.Limit > MaxLimit:
		return MaxLimit, nil
	}
	return q.Limit, nil
}

// Search returns donors for q, nearest first. Donors without a computable
// distance follow those with one, in directory order. No matches is an empty
// slice, not an error.
func (e *Engine) Search(ctx context.Context, q Query) ([]DonorResult, error) {
	limit, err := e.Validate(q)
	if err != nil {
		return nil, err
	}

	types := []string{q.BloodType}
	if q.Compatible {
		types = bloodtype.DonorsFor(q.BloodType)
	}

	donors, err := e.dir.FindDonors(ctx, DonorFilter{BloodTypes: types, OnlyActive: q.OnlyAvailable})
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "find donors", err)
	}

	if q.OnlyAvailable {
		donors = slices.DeleteFunc(donors, func(u models.User) bool {
			return u.Status != models.StatusActive
		})
	}

	out := Rank(donors, q.Requester, q.MaxDistanceKm)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Rank converts donors to results, computes distances from requester,
// drops donors farther than maxKm and sorts by distance. Donors lacking
// coordinates always pass the radius filter. Non-donor records are skipped.
func Rank(donors []models.User, requester *models.GeoPoint, maxKm *float64) []DonorResult {
	out := make([]DonorResult, 0, len(donors))
	for _, d := range donors {
		if d.Role != models.RoleDonor {
			continue
		}
		res := DonorResult{
			ID:               d.ID,
			Name:             d.Name,
			BloodType:        d.BloodType,
			Location:         d.Address,
			Phone:            d.Phone,
			Status:           d.Status,
			LastDonationDate: d.LastDonationDate,
		}
		if requester != nil && d.Coordinates != nil {
			km := geo.Distance(*requester, *d.Coordinates)
			if maxKm != nil && km > *maxKm {
				continue
			}
			res.DistanceKm = &km
		}
		out = append(out, res)
	}

	slices.SortStableFunc(out, func(a, b DonorResult) int {
		switch {
		case a.DistanceKm == nil && b.DistanceKm == nil:
			return 0
		case a.DistanceKm == nil:
			return 1
		case b.DistanceKm == nil:
			return -1
		}
		return cmp.Compare(*a.DistanceKm, *b.DistanceKm)
	})
	return out
}
