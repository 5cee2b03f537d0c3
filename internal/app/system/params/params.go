// Package params parses query-string and path values into typed inputs,
// reporting problems as validation errors.
package params

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/geo"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Point builds a coordinate from lat and lng. Both blank means no
// location (nil). Supplying only one, a non-number, or an out-of-range
// value is a validation error.
func Point(lat, lng *float64) (*models.GeoPoint, error) {
	switch {
	case lat == nil && lng == nil:
		return nil, nil
	case lat == nil || lng == nil:
		return nil, apperr.Invalid("latitude and longitude must be given together")
	}
	p := models.GeoPoint{Latitude: *lat, Longitude: *lng}
	if !geo.ValidPoint(p) {
		return nil, apperr.Invalid("latitude must be within ±90 and longitude within ±180")
	}
	return &p, nil
}

// QueryPoint reads the lat and lng query parameters with Point's rules.
func QueryPoint(r *http.Request) (*models.GeoPoint, error) {
	lat, err := QueryFloat(r, "lat")
	if err != nil {
		return nil, err
	}
	lng, err := QueryFloat(r, "lng")
	if err != nil {
		return nil, err
	}
	return Point(lat, lng)
}

// QueryFloat returns nil when key is absent or blank.
func QueryFloat(r *http.Request, key string) (*float64, error) {
	s := strings.TrimSpace(query.Get(r, key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperr.Invalid(key + " must be a number")
	}
	return &v, nil
}

// QueryInt returns def when key is absent or blank.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	s := strings.TrimSpace(query.Get(r, key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Invalid(key + " must be an integer")
	}
	return v, nil
}

// QueryBool returns def when key is absent or blank. It accepts the forms
// strconv.ParseBool does.
func QueryBool(r *http.Request, key string, def bool) (bool, error) {
	s := strings.TrimSpace(query.Get(r, key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperr.Invalid(key + " must be true or false")
	}
	return v, nil
}

// PathID parses the chi URL parameter key as an ObjectID. A malformed ID
// cannot name anything, so it is reported as not found.
func PathID(r *http.Request, key, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.Missing(what + " not found")
	}
	return oid, nil
}
