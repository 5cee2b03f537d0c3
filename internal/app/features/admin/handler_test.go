package admin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/features/admin"
	donationstore "github.com/dalemusser/bloodconnect/internal/app/store/donations"
	requeststore "github.com/dalemusser/bloodconnect/internal/app/store/requests"
	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/paging"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/bloodconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeUsers struct {
	total      int
	lastFilter userstore.ListFilter
	lastSkip   int64
	known      primitive.ObjectID
	failCount  bool
}

func (f *fakeUsers) List(_ context.Context, filter userstore.ListFilter, skip, limit int64) ([]models.User, error) {
	f.lastFilter, f.lastSkip = filter, skip
	var out []models.User
	for i := skip; i < int64(f.total) && int64(len(out)) < limit; i++ {
		out = append(out, models.User{ID: primitive.NewObjectID(), Role: models.RoleDonor})
	}
	return out, nil
}

func (f *fakeUsers) SetStatus(_ context.Context, id primitive.ObjectID, status string) (*models.User, error) {
	if id != f.known {
		return nil, userstore.ErrNotFound
	}
	return &models.User{ID: id, Status: status}, nil
}

func (f *fakeUsers) CountByRole(context.Context) (userstore.RoleCounts, error) {
	if f.failCount {
		return userstore.RoleCounts{}, errors.New("connection reset")
	}
	return userstore.RoleCounts{Total: 5, Donors: 3, Recipients: 1, Admins: 1}, nil
}

type fakeDonations struct{ monthStart time.Time }

func (f *fakeDonations) CountCompleted(_ context.Context, monthStart time.Time) (donationstore.Counts, error) {
	f.monthStart = monthStart
	return donationstore.Counts{Total: 9, ThisMonth: 2}, nil
}

type fakeRequests struct{}

func (fakeRequests) CountByStatus(context.Context) (requeststore.StatusCounts, error) {
	return requeststore.StatusCounts{Active: 1, Completed: 2, Expired: 3, Total: 6}, nil
}

func serve(h *admin.Handler, method, target, body string, u *testutil.TestUser) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if u != nil {
		req = testutil.WithUser(req, *u)
	}
	rec := httptest.NewRecorder()
	admin.Routes(h).ServeHTTP(rec, req)
	return rec
}

func TestRoutes_AdminOnly(t *testing.T) {
	h := admin.NewHandler(&fakeUsers{}, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	recipient := testutil.RecipientUser()
	donor := testutil.DonorUser("O+")

	for _, path := range []string{"/users", "/stats"} {
		if rec := serve(h, http.MethodGet, path, "", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("anonymous %s: status = %d, want 401", path, rec.Code)
		}
		if rec := serve(h, http.MethodGet, path, "", &recipient); rec.Code != http.StatusForbidden {
			t.Errorf("recipient %s: status = %d, want 403", path, rec.Code)
		}
		if rec := serve(h, http.MethodGet, path, "", &donor); rec.Code != http.StatusForbidden {
			t.Errorf("donor %s: status = %d, want 403", path, rec.Code)
		}
	}
}

func TestServeUsers_Paging(t *testing.T) {
	users := &fakeUsers{total: paging.PageSize + 10}
	h := admin.NewHandler(users, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	a := testutil.AdminUser()

	rec := serve(h, http.MethodGet, "/users?role=Donor&status=active", "", &a)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Users []models.User `json:"users"`
		Page  paging.Page   `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Users) != paging.PageSize || !body.Page.HasNext || body.Page.NextStart != paging.PageSize+1 {
		t.Errorf("first page: %d users, page %+v", len(body.Users), body.Page)
	}
	if users.lastFilter.Role != models.RoleDonor || users.lastFilter.Status != models.StatusActive {
		t.Errorf("filter = %+v", users.lastFilter)
	}

	rec = serve(h, http.MethodGet, "/users?start=51", "", &a)
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if users.lastSkip != 50 || len(body.Users) != 10 || body.Page.HasNext || !body.Page.HasPrev {
		t.Errorf("second page: skip %d, %d users, page %+v", users.lastSkip, len(body.Users), body.Page)
	}
}

func TestServeUsers_BadFilter(t *testing.T) {
	h := admin.NewHandler(&fakeUsers{}, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	a := testutil.AdminUser()

	for _, target := range []string{"/users?role=owner", "/users?status=banned"} {
		if rec := serve(h, http.MethodGet, target, "", &a); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestHandleSetStatus(t *testing.T) {
	users := &fakeUsers{known: primitive.NewObjectID()}
	h := admin.NewHandler(users, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	a := testutil.AdminUser()
	path := "/users/" + users.known.Hex() + "/status"

	rec := serve(h, http.MethodPut, path, `{"status":"Pending"}`, &a)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var u models.User
	_ = json.Unmarshal(rec.Body.Bytes(), &u)
	if u.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", u.Status)
	}

	if rec := serve(h, http.MethodPut, path, `{"status":"banned"}`, &a); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: code = %d, want 400", rec.Code)
	}
	other := "/users/" + primitive.NewObjectID().Hex() + "/status"
	if rec := serve(h, http.MethodPut, other, `{"status":"active"}`, &a); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: code = %d, want 404", rec.Code)
	}
	if rec := serve(h, http.MethodPut, "/users/nope/status", `{"status":"active"}`, &a); rec.Code != http.StatusNotFound {
		t.Errorf("malformed id: code = %d, want 404", rec.Code)
	}
}

func TestServeStats(t *testing.T) {
	donations := &fakeDonations{}
	h := admin.NewHandler(&fakeUsers{}, donations, fakeRequests{}, zap.NewNop())
	h.Now = func() time.Time { return time.Date(2026, 3, 17, 15, 4, 5, 0, time.UTC) }
	a := testutil.AdminUser()

	rec := serve(h, http.MethodGet, "/stats", "", &a)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var s admin.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Users.Donors != 3 || s.Donations.ThisMonth != 2 || s.Requests.Expired != 3 || s.Requests.Total != 6 {
		t.Errorf("unexpected stats %+v", s)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !donations.monthStart.Equal(want) {
		t.Errorf("month start = %v, want %v", donations.monthStart, want)
	}
}

func TestServeStats_StoreFailureIsHidden(t *testing.T) {
	h := admin.NewHandler(&fakeUsers{failCount: true}, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	a := testutil.AdminUser()

	rec := serve(h, http.MethodGet, "/stats", "", &a)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Error("store error leaked to the client")
	}
}

func TestServeStats_WithMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Don Or", "don@example.com", "A+")
	recipient := fixtures.CreateRecipient(ctx, "Rec Ip", "rec@example.com")
	fixtures.CreateAdmin(ctx, "Ad Min", "ad@example.com")
	fixtures.CreateDonation(ctx, donor.ID, time.Now().UTC())
	fixtures.CreateRequest(ctx, recipient.ID, "A+", models.RequestActive, time.Now().UTC())
	fixtures.CreateRequest(ctx, recipient.ID, "A+", models.RequestExpired, time.Now().UTC().Add(-72*time.Hour))

	h := admin.NewHandler(userstore.New(db), donationstore.New(db), requeststore.New(db), zap.NewNop())
	a := testutil.AdminUser()

	rec := serve(h, http.MethodGet, "/stats", "", &a)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var s admin.Stats
	_ = json.Unmarshal(rec.Body.Bytes(), &s)
	if s.Users.Total != 3 || s.Users.Donors != 1 || s.Users.Recipients != 1 {
		t.Errorf("users = %+v", s.Users)
	}
	if s.Donations.Total != 1 || s.Donations.ThisMonth != 1 {
		t.Errorf("donations = %+v", s.Donations)
	}
	if s.Requests.Active != 1 || s.Requests.Expired != 1 || s.Requests.Total != 2 {
		t.Errorf("requests = %+v", s.Requests)
	}
}
