package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TestJWTSecret signs tokens issued by SessionManager.
const TestJWTSecret = "test-jwt-secret-must-be-32-chars-long!!"

// SessionManager returns a cookie and token manager with fixed test keys.
// fetcher may be nil for handlers that only issue credentials.
func SessionManager(t *testing.T, fetcher auth.UserFetcher) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		auth.NewTokens(TestJWTSecret, time.Hour),
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	if fetcher != nil {
		sm.SetUserFetcher(fetcher)
	}
	return sm
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Status    string
	BloodType string
	Location  *models.GeoPoint
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Test Admin",
		Email:  "admin@test.com",
		Role:   models.RoleAdmin,
		Status: models.StatusActive,
	}
}

// DonorUser returns a TestUser with donor role and the given blood type.
func DonorUser(bloodType string) TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		Name:      "Test Donor",
		Email:     "donor@test.com",
		Role:      models.RoleDonor,
		Status:    models.StatusActive,
		BloodType: bloodType,
	}
}

// RecipientUser returns a TestUser with recipient role.
func RecipientUser() TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Test Recipient",
		Email:  "recipient@test.com",
		Role:   models.RoleRecipient,
		Status: models.StatusActive,
	}
}

// FromModel converts a stored user into a TestUser.
func FromModel(u models.User) TestUser {
	return TestUser{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		BloodType: u.BloodType,
		Location:  u.Coordinates,
	}
}

// ObjectID returns the user's ID as an ObjectID.
func (u TestUser) ObjectID() primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(u.ID)
	return oid
}

// WithUser injects u as the signed-in principal.
func WithUser(r *http.Request, u TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		BloodType: u.BloodType,
		Location:  u.Location,
	})
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
