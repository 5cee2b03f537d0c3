package donorsearch_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memDirectory applies DonorFilter to an in-memory slice, the way the user
// store does against Mongo.
type memDirectory struct {
	users   []models.User
	err     error
	lastArg donorsearch.DonorFilter
}

func (m *memDirectory) FindDonors(_ context.Context, f donorsearch.DonorFilter) ([]models.User, error) {
	m.lastArg = f
	if m.err != nil {
		return nil, m.err
	}
	var out []models.User
	for _, u := range m.users {
		if u.Role != models.RoleDonor {
			continue
		}
		if f.OnlyActive && u.Status != models.StatusActive {
			continue
		}
		for _, bt := range f.BloodTypes {
			if u.BloodType == bt {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func pt(lat, lng float64) *models.GeoPoint {
	return &models.GeoPoint{Latitude: lat, Longitude: lng}
}

func km(v float64) *float64 { return &v }

func donor(name, bt, status string, loc *models.GeoPoint) models.User {
	return models.User{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Role:        models.RoleDonor,
		BloodType:   bt,
		Status:      status,
		Address:     name + " street",
		Coordinates: loc,
	}
}

func TestSearch_ScenarioWithinRadius(t *testing.T) {
	dir := &memDirectory{users: []models.User{
		donor("Ravi", "A+", models.StatusActive, pt(18.52, 73.85)),
	}}
	eng := donorsearch.New(dir, 0)

	got, err := eng.Search(context.Background(), donorsearch.Query{
		BloodType:     "A+",
		Requester:     pt(18.50, 73.90),
		MaxDistanceKm: km(10),
		OnlyAvailable: true,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].DistanceKm == nil || math.Abs(*got[0].DistanceKm-5.72) > 0.05 {
		t.Errorf("distance: got %v, want about 5.72 km", got[0].DistanceKm)
	}
	if got[0].Location != "Ravi street" {
		t.Errorf("location should be address text, got %q", got[0].Location)
	}
}

func TestSearch_OnlyAvailable(t *testing.T) {
	dir := &memDirectory{users: []models.User{
		donor("a", "O-", models.StatusActive, nil),
		donor("b", "O-", models.StatusInactive, nil),
		donor("c", "O-", models.StatusPending, nil),
	}}
	eng := donorsearch.New(dir, 0)

	got, err := eng.Search(context.Background(), donorsearch.Query{BloodType: "O-", OnlyAvailable: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range got {
		if r.Status != models.StatusActive {
			t.Errorf("returned donor %s with status %s", r.Name, r.Status)
		}
	}
	if len(got) != 1 {
		t.Errorf("got %d, want 1", len(got))
	}
	if !dir.lastArg.OnlyActive {
		t.Error("OnlyActive should be pushed to the directory")
	}

	all, _ := eng.Search(context.Background(), donorsearch.Query{BloodType: "O-"})
	if len(all) != 3 {
		t.Errorf("without onlyAvailable: got %d, want 3", len(all))
	}
}

func TestSearch_OnlyAvailableIgnoredByDirectory(t *testing.T) {
	// A directory that ignores OnlyActive must not leak inactive donors.
	dir := &leakyDirectory{users: []models.User{
		donor("a", "B+", models.StatusInactive, nil),
		donor("b", "B+", models.StatusActive, nil),
	}}
	got, err := donorsearch.New(dir, 0).Search(context.Background(), donorsearch.Query{BloodType: "B+", OnlyAvailable: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "b" {
		t.Errorf("got %+v", got)
	}
}

type leakyDirectory struct{ users []models.User }

func (l *leakyDirectory) FindDonors(context.Context, donorsearch.DonorFilter) ([]models.User, error) {
	return l.users, nil
}

func TestSearch_SortedByDistanceMissingLast(t *testing.T) {
	req := pt(18.50, 73.90)
	dir := &memDirectory{users: []models.User{
		donor("nowhere1", "B-", models.StatusActive, nil),
		donor("far", "B-", models.StatusActive, pt(18.70, 73.90)),
		donor("near", "B-", models.StatusActive, pt(18.51, 73.90)),
		donor("nowhere2", "B-", models.StatusActive, nil),
		donor("mid", "B-", models.StatusActive, pt(18.60, 73.90)),
	}}

	got, err := donorsearch.New(dir, 0).Search(context.Background(), donorsearch.Query{BloodType: "B-", Requester: req})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"near", "mid", "far", "nowhere1", "nowhere2"}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d: got %s, want %s", i, got[i].Name, name)
		}
	}
	for i := 1; i < 3; i++ {
		if *got[i-1].DistanceKm > *got[i].DistanceKm {
			t.Errorf("results not ascending at %d", i)
		}
	}
}

func TestSearch_RadiusKeepsDonorsWithoutLocation(t *testing.T) {
	dir := &memDirectory{users: []models.User{
		donor("far", "AB+", models.StatusActive, pt(19.50, 73.90)),
		donor("unknown", "AB+", models.StatusActive, nil),
	}}
	got, _ := donorsearch.New(dir, 0).Search(context.Background(), donorsearch.Query{
		BloodType:     "AB+",
		Requester:     pt(18.50, 73.90),
		MaxDistanceKm: km(25),
	})
	if len(got) != 1 || got[0].Name != "unknown" || got[0].DistanceKm != nil {
		t.Errorf("got %+v", got)
	}
}

func TestSearch_NoRequesterLocationNoDistance(t *testing.T) {
	dir := &memDirectory{users: []models.User{donor("a", "O+", models.StatusActive, pt(18.5, 73.9))}}
	got, _ := donorsearch.New(dir, 0).Search(context.Background(), donorsearch.Query{
		BloodType:     "O+",
		MaxDistanceKm: km(1),
	})
	if len(got) != 1 || got[0].DistanceKm != nil {
		t.Errorf("without requester location no distance is computed, got %+v", got)
	}
}

func TestSearch_ZeroRadiusSamePoint(t *testing.T) {
	p := pt(18.52, 73.85)
	dir := &memDirectory{users: []models.User{
		donor("here", "A-", models.StatusActive, pt(18.52, 73.85)),
		donor("there", "A-", models.StatusActive, pt(18.53, 73.85)),
	}}
	got, err := donorsearch.New(dir, 0).Search(context.Background(), donorsearch.Query{
		BloodType:     "A-",
		Requester:     p,
		MaxDistanceKm: km(0),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "here" || *got[0].DistanceKm != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestSearch_ExactMatchByDefault(t *testing.T) {
	dir := &memDirectory{users: []models.User{
		donor("exact", "A+", models.StatusActive, nil),
		donor("universal", "O-", models.StatusActive, nil),
		donor("incompatible", "B+", models.StatusActive, nil),
	}}
	eng := donorsearch.New(dir, 0)

	got, _ := eng.Search(context.Background(), donorsearch.Query{BloodType: "A+"})
	if len(got) != 1 || got[0].Name != "exact" {
		t.Errorf("exact: got %+v", got)
	}

	got, _ = eng.Search(context.Background(), donorsearch.Query{BloodType: "A+", Compatible: true})
	if len(got) != 2 {
		t.Errorf("compatible: got %d results, want 2", len(got))
	}
	for _, r := range got {
		if r.Name == "incompatible" {
			t.Error("compatible search returned B+ for an A+ recipient")
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	var users []models.User
	for i := 0; i < 120; i++ {
		users = append(users, donor("d", "O+", models.StatusActive, nil))
	}
	eng := donorsearch.New(&memDirectory{users: users}, 10)

	got, _ := eng.Search(context.Background(), donorsearch.Query{BloodType: "O+"})
	if len(got) != 10 {
		t.Errorf("default limit: got %d, want 10", len(got))
	}
	got, _ = eng.Search(context.Background(), donorsearch.Query{BloodType: "O+", Limit: 500})
	if len(got) != donorsearch.MaxLimit {
		t.Errorf("capped limit: got %d, want %d", len(got), donorsearch.MaxLimit)
	}
}

func TestSearch_Validation(t *testing.T) {
	eng := donorsearch.New(&memDirectory{}, 0)
	tests := []struct {
		name string
		q    donorsearch.Query
	}{
		{"empty blood type", donorsearch.Query{}},
		{"unknown blood type", donorsearch.Query{BloodType: "C+"}},
		{"negative radius", donorsearch.Query{BloodType: "O+", MaxDistanceKm: km(-1)}},
		{"NaN radius", donorsearch.Query{BloodType: "O+", MaxDistanceKm: km(math.NaN()), Requester: pt(18.5, 73.9)}},
		{"infinite radius", donorsearch.Query{BloodType: "O+", MaxDistanceKm: km(math.Inf(1))}},
		{"bad requester", donorsearch.Query{BloodType: "O+", Requester: pt(91, 0)}},
		{"negative limit", donorsearch.Query{BloodType: "O+", Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Search(context.Background(), tt.q)
			if !apperr.Is(err, apperr.Validation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestSearch_NoMatchesIsEmpty(t *testing.T) {
	got, err := donorsearch.New(&memDirectory{}, 0).Search(context.Background(), donorsearch.Query{BloodType: "AB-"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestSearch_DirectoryFailureIsUpstream(t *testing.T) {
	dir := &memDirectory{err: errors.New("connection reset")}
	_, err := donorsearch.New(dir, 0).Search(context.Background(), donorsearch.Query{BloodType: "O+"})
	if !apperr.Is(err, apperr.Upstream) {
		t.Errorf("got %v, want upstream error", err)
	}
}
