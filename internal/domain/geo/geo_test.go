package geo_test

import (
	"math"
	"testing"

	"github.com/dalemusser/bloodconnect/internal/domain/geo"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
)

func TestDistance(t *testing.T) {
	pune := models.GeoPoint{Latitude: 18.52, Longitude: 73.85}
	hadapsar := models.GeoPoint{Latitude: 18.50, Longitude: 73.90}

	got := geo.Distance(pune, hadapsar)
	if math.Abs(got-5.72) > 0.05 {
		t.Errorf("Distance: got %.3f km, want about 5.72", got)
	}

	if d := geo.Distance(pune, pune); d != 0 {
		t.Errorf("Distance to self: got %f, want 0", d)
	}

	if back := geo.Distance(hadapsar, pune); math.Abs(back-got) > 1e-9 {
		t.Errorf("Distance not symmetric: %f vs %f", got, back)
	}
}

func TestDistanceOneDegreeLatitude(t *testing.T) {
	a := models.GeoPoint{Latitude: 0, Longitude: 0}
	b := models.GeoPoint{Latitude: 1, Longitude: 0}
	want := geo.EarthRadiusKm * math.Pi / 180
	if got := geo.Distance(a, b); math.Abs(got-want) > 1e-6 {
		t.Errorf("Distance: got %f, want %f", got, want)
	}
}

func TestValidPoint(t *testing.T) {
	tests := []struct {
		p    models.GeoPoint
		want bool
	}{
		{models.GeoPoint{Latitude: 0, Longitude: 0}, true},
		{models.GeoPoint{Latitude: 90, Longitude: 180}, true},
		{models.GeoPoint{Latitude: -90.1, Longitude: 0}, false},
		{models.GeoPoint{Latitude: 0, Longitude: 181}, false},
		{models.GeoPoint{Latitude: math.NaN(), Longitude: 0}, false},
	}
	for _, tt := range tests {
		if got := geo.ValidPoint(tt.p); got != tt.want {
			t.Errorf("ValidPoint(%+v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
