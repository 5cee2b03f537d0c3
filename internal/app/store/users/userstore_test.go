package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/bloodconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Donor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:      "  Ana   Lopez ",
		Email:     "Ana@Example.COM",
		Role:      models.RoleDonor,
		BloodType: "O-",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Ana Lopez" {
		t.Errorf("Name = %q, want %q", created.Name, "Ana Lopez")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.Email != "ana@example.com" {
		t.Errorf("Email = %q, want lowercased", created.Email)
	}
	if created.Status != models.StatusActive {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if created.DonationCount != 0 || created.LastDonationDate != nil {
		t.Error("new user must start with no donations")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Name: "Bad Role", Email: "bad@example.com", Role: "leader"})
	if err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "First", Email: "dup@example.com", Role: models.RoleRecipient}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "Second", Email: "DUP@example.com", Role: models.RoleDonor, BloodType: "A+"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Bo Chen", "bo@example.com", "B+")

	got, err := store.GetByEmail(ctx, "  BO@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != donor.ID {
		t.Errorf("got ID %v, want %v", got.ID, donor.ID)
	}
	if got.PasswordHash == "" {
		t.Error("GetByEmail must return the password hash for login")
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Cara Diaz", "cara@example.com", "A-", testutil.WithLocation(40.7, -74.0))

	name := "Cara  D. Diaz"
	phone := "(555) 123-4567"
	got, err := store.UpdateProfile(ctx, donor.ID, userstore.ProfileUpdate{Name: &name, Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if got.Name != "Cara D. Diaz" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Phone != "5551234567" {
		t.Errorf("Phone = %q, want digits only", got.Phone)
	}
	if got.Coordinates == nil {
		t.Error("coordinates should be untouched")
	}

	got, err = store.UpdateProfile(ctx, donor.ID, userstore.ProfileUpdate{ClearLocation: true})
	if err != nil {
		t.Fatalf("UpdateProfile(clear) failed: %v", err)
	}
	if got.Coordinates != nil {
		t.Errorf("expected coordinates cleared, got %+v", got.Coordinates)
	}

	if _, err := store.UpdateProfile(ctx, primitive.NewObjectID(), userstore.ProfileUpdate{Name: &name}); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestStore_SetDonorAvailability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Dee Evans", "dee@example.com", "AB+")
	recipient := fixtures.CreateRecipient(ctx, "Rick Ford", "rick@example.com")

	got, err := store.SetDonorAvailability(ctx, donor.ID, false)
	if err != nil {
		t.Fatalf("SetDonorAvailability failed: %v", err)
	}
	if got.Status != models.StatusInactive {
		t.Errorf("Status = %q, want inactive", got.Status)
	}

	if _, err := store.SetDonorAvailability(ctx, recipient.ID, true); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("recipient availability: expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetStatus_Invalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateRecipient(ctx, "Sam Gray", "sam@example.com")
	if _, err := store.SetStatus(ctx, u.ID, "banned"); err == nil {
		t.Error("expected error for unknown status")
	}
	got, err := store.SetStatus(ctx, u.ID, models.StatusPending)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("Status = %q", got.Status)
	}
}

func TestStore_SetDonationStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Eli Hart", "eli@example.com", "O+")
	last := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := store.SetDonationStats(ctx, donor.ID, 2, &last); err != nil {
		t.Fatalf("SetDonationStats failed: %v", err)
	}
	got, _ := store.GetByID(ctx, donor.ID)
	if got.DonationCount != 2 || got.LastDonationDate == nil || !got.LastDonationDate.Equal(last) {
		t.Errorf("stats = %d/%v", got.DonationCount, got.LastDonationDate)
	}

	if err := store.SetDonationStats(ctx, donor.ID, 0, nil); err != nil {
		t.Fatalf("SetDonationStats(reset) failed: %v", err)
	}
	got, _ = store.GetByID(ctx, donor.ID)
	if got.DonationCount != 0 || got.LastDonationDate != nil {
		t.Errorf("expected reset stats, got %d/%v", got.DonationCount, got.LastDonationDate)
	}
}

func TestStore_FindDonors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonor(ctx, "Zed O", "zed@example.com", "O-")
	fixtures.CreateDonor(ctx, "Amy O", "amy@example.com", "O-")
	fixtures.CreateDonor(ctx, "Off O", "off@example.com", "O-", testutil.WithStatus(models.StatusInactive))
	fixtures.CreateDonor(ctx, "Ben A", "ben@example.com", "A+")
	fixtures.CreateRecipient(ctx, "Rita", "rita@example.com")

	got, err := store.FindDonors(ctx, donorsearch.DonorFilter{BloodTypes: []string{"O-"}, OnlyActive: true})
	if err != nil {
		t.Fatalf("FindDonors failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d donors, want 2", len(got))
	}
	if got[0].Name != "Amy O" || got[1].Name != "Zed O" {
		t.Errorf("expected name order, got %q, %q", got[0].Name, got[1].Name)
	}
	for _, u := range got {
		if u.PasswordHash != "" {
			t.Error("FindDonors must not load password hashes")
		}
	}

	all, err := store.FindDonors(ctx, donorsearch.DonorFilter{BloodTypes: []string{"O-", "A+"}})
	if err != nil {
		t.Fatalf("FindDonors(all) failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("got %d donors, want 4", len(all))
	}
}

func TestStore_ListAndCountByRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonor(ctx, "Don One", "d1@example.com", "A+")
	fixtures.CreateDonor(ctx, "Don Two", "d2@example.com", "B+", testutil.WithStatus(models.StatusPending))
	fixtures.CreateRecipient(ctx, "Rec One", "r1@example.com")
	fixtures.CreateAdmin(ctx, "Adm One", "a1@example.com")

	donors, err := store.List(ctx, userstore.ListFilter{Role: models.RoleDonor}, 0, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(donors) != 2 {
		t.Errorf("got %d donors, want 2", len(donors))
	}

	pending, err := store.List(ctx, userstore.ListFilter{Status: models.StatusPending}, 0, 10)
	if err != nil {
		t.Fatalf("List(pending) failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Email != "d2@example.com" {
		t.Errorf("unexpected pending list: %+v", pending)
	}

	page, err := store.List(ctx, userstore.ListFilter{}, 1, 2)
	if err != nil {
		t.Fatalf("List(page) failed: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("got %d users on page, want 2", len(page))
	}

	rc, err := store.CountByRole(ctx)
	if err != nil {
		t.Fatalf("CountByRole failed: %v", err)
	}
	want := userstore.RoleCounts{Total: 4, Donors: 2, Recipients: 1, Admins: 1}
	if rc != want {
		t.Errorf("CountByRole = %+v, want %+v", rc, want)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Fay Gill", "fay@example.com", "AB-", testutil.WithLocation(51.5, -0.12))

	su, err := userstore.NewFetcher(db).FetchUser(ctx, donor.ID)
	if err != nil {
		t.Fatalf("FetchUser failed: %v", err)
	}
	if su.ID != donor.ID.Hex() || su.Role != models.RoleDonor || su.BloodType != "AB-" {
		t.Errorf("unexpected session user: %+v", su)
	}
	if su.Location == nil || su.Location.Latitude != 51.5 {
		t.Errorf("expected location to carry over, got %+v", su.Location)
	}

	if _, err := userstore.NewFetcher(db).FetchUser(ctx, primitive.NewObjectID()); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestStore_Contacts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateDonor(ctx, "Gil Ames", "gil@example.com", "A+")
	b := fixtures.CreateDonor(ctx, "Hal Baker", "hal@example.com", "A+")

	got, err := store.Contacts(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Contacts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d contacts, want 2", len(got))
	}
	for _, c := range got {
		if c.Email == "" || c.Name == "" {
			t.Errorf("incomplete contact %+v", c)
		}
	}

	none, err := store.Contacts(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("Contacts(nil) = %v, %v", none, err)
	}
}

func TestStore_SetPasswordHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateRecipient(ctx, "Ivy Jones", "ivy@example.com")
	if err := store.SetPasswordHash(ctx, u.ID, "new-hash"); err != nil {
		t.Fatalf("SetPasswordHash failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q", got.PasswordHash)
	}
	if err := store.SetPasswordHash(ctx, primitive.NewObjectID(), "x"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
