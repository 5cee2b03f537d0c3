package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/bloodconnect/internal/app/store/audit"
	"github.com/dalemusser/bloodconnect/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, h http.Handler, body map[string]any) authResponse {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/auth/register", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %v: status = %d, body %s", body["email"], rec.Code, rec.Body.String())
	}
	var out authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	return out
}

func TestStartupAndHandler_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cfg := validConfig()
	cfg.MongoDatabase = db.Name()
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, Services: &Services{}}
	core := &config.CoreConfig{Env: "dev"}

	if err := Startup(context.Background(), core, cfg, deps, logger); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	// The test database is dropped by testutil, so leave the client open.
	t.Cleanup(func() {
		_ = Shutdown(context.Background(), core, cfg, DBDeps{Services: deps.Services}, logger)
	})

	h, err := BuildHandler(core, cfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	if rec := call(t, h, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: status = %d", rec.Code)
	}

	donor := register(t, h, map[string]any{
		"name": "Dana Donor", "email": "dana@example.com", "password": testutil.TestPassword,
		"role": "donor", "bloodType": "O-", "latitude": 18.52, "longitude": 73.85,
	})
	recipient := register(t, h, map[string]any{
		"name": "Ravi Recipient", "email": "ravi@example.com", "password": testutil.TestPassword,
		"role": "recipient", "latitude": 18.50, "longitude": 73.80,
	})

	rec := call(t, h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Dana Again", "email": "DANA@example.com", "password": testutil.TestPassword, "role": "recipient",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", rec.Code)
	}

	rec = call(t, h, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "dana@example.com", "password": testutil.TestPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if n, err := deps.Services.Audit.CountByFilter(context.Background(), audit.QueryFilter{Category: audit.CategoryAuth}); err != nil || n != 3 {
		t.Errorf("auth audit events = %d (%v), want 2 registrations and 1 login", n, err)
	}

	rec = call(t, h, http.MethodGet, "/api/users/me", donor.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rec.Code)
	}

	rec = call(t, h, http.MethodGet, "/api/donors/search?bloodType=O-&maxDistanceKm=25", recipient.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var results []struct {
		ID         string   `json:"id"`
		DistanceKm *float64 `json:"distanceKm"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(results) != 1 || results[0].ID != donor.User.ID || results[0].DistanceKm == nil {
		t.Errorf("search results = %+v", results)
	}

	if rec := call(t, h, http.MethodGet, "/api/donors/search?bloodType=O-", donor.Token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("donor searching: status = %d, want 403", rec.Code)
	}

	rec = call(t, h, http.MethodPost, "/api/requests", recipient.Token, map[string]any{
		"bloodType": "O-", "urgency": "emergency", "patientName": "P. Atient", "hospital": "City General",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create request: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = call(t, h, http.MethodGet, "/api/donors/requests", donor.Token, nil)
	var open []map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &open)
	if rec.Code != http.StatusOK || len(open) != 1 {
		t.Errorf("donor matching requests: status = %d, %d requests", rec.Code, len(open))
	}

	rec = call(t, h, http.MethodPost, "/api/donors/donations", donor.Token, map[string]any{"location": "City General"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record donation: status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = call(t, h, http.MethodGet, "/api/donors/eligibility", donor.Token, nil)
	var elig struct {
		CanDonate bool `json:"canDonate"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &elig)
	if rec.Code != http.StatusOK || elig.CanDonate {
		t.Errorf("eligibility after donating: status = %d, canDonate = %v", rec.Code, elig.CanDonate)
	}

	if rec := call(t, h, http.MethodGet, "/api/admin/stats", recipient.Token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("recipient reading stats: status = %d, want 403", rec.Code)
	}
	if rec := call(t, h, http.MethodGet, "/api/nowhere", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route: status = %d, want 404", rec.Code)
	}
}
