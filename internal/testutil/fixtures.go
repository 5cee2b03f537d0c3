package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "Passw0rd!"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// UserOpt customizes a fixture user before insert.
type UserOpt func(*models.User)

// WithLocation sets the user's coordinates.
func WithLocation(lat, lon float64) UserOpt {
	return func(u *models.User) { u.Coordinates = &models.GeoPoint{Latitude: lat, Longitude: lon} }
}

// WithStatus sets the user's status.
func WithStatus(status string) UserOpt {
	return func(u *models.User) { u.Status = status }
}

// WithLastDonation sets the derived donation fields.
func WithLastDonation(at time.Time, count int) UserOpt {
	return func(u *models.User) {
		at = at.UTC()
		u.LastDonationDate = &at
		u.DonationCount = count
	}
}

func (f *Fixtures) createUser(ctx context.Context, role, name, email, bloodType string, opts ...UserOpt) models.User {
	f.t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		BloodType:    bloodType,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, o := range opts {
		o(&u)
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create %s %q: %v", role, email, err)
	}
	return u
}

// CreateDonor inserts an active donor.
func (f *Fixtures) CreateDonor(ctx context.Context, name, email, bloodType string, opts ...UserOpt) models.User {
	f.t.Helper()
	return f.createUser(ctx, models.RoleDonor, name, email, bloodType, opts...)
}

// CreateRecipient inserts an active recipient.
func (f *Fixtures) CreateRecipient(ctx context.Context, name, email string, opts ...UserOpt) models.User {
	f.t.Helper()
	return f.createUser(ctx, models.RoleRecipient, name, email, "", opts...)
}

// CreateAdmin inserts an active admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, models.RoleAdmin, name, email, "")
}

// CreateRequest inserts a blood request owned by recipientID, created at createdAt.
func (f *Fixtures) CreateRequest(ctx context.Context, recipientID primitive.ObjectID, bloodType, status string, createdAt time.Time) models.BloodRequest {
	f.t.Helper()

	req := models.BloodRequest{
		ID:          primitive.NewObjectID(),
		RecipientID: recipientID,
		BloodType:   bloodType,
		Urgency:     models.UrgencyNormal,
		PatientName: "Test Patient",
		Hospital:    "General Hospital",
		Status:      status,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}
	if _, err := f.db.Collection("blood_requests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create blood request: %v", err)
	}
	return req
}

// CreateDonation inserts a completed donation for donorID on date.
func (f *Fixtures) CreateDonation(ctx context.Context, donorID primitive.ObjectID, date time.Time) models.Donation {
	f.t.Helper()

	d := models.Donation{
		ID:          primitive.NewObjectID(),
		DonorID:     donorID,
		Date:        date.UTC(),
		Location:    "City Blood Bank",
		BloodAmount: models.DefaultBloodAmount,
		Status:      models.DonationCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("donations").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create donation: %v", err)
	}
	return d
}
