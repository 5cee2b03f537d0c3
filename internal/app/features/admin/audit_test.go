package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dalemusser/bloodconnect/internal/app/features/admin"
	"github.com/dalemusser/bloodconnect/internal/app/store/audit"
	"github.com/dalemusser/bloodconnect/internal/app/system/auditlog"
	"github.com/dalemusser/bloodconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeEvents struct{ last audit.QueryFilter }

func (f *fakeEvents) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	f.last = filter
	return nil, nil
}

func TestServeAudit_Disabled(t *testing.T) {
	h := admin.NewHandler(&fakeUsers{}, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	a := testutil.AdminUser()
	if rec := serve(h, http.MethodGet, "/audit", "", &a); rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404 when no audit store is wired", rec.Code)
	}
}

func TestServeAudit_Filters(t *testing.T) {
	events := &fakeEvents{}
	h := admin.NewHandler(&fakeUsers{}, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	h.Events = events
	a := testutil.AdminUser()
	uid := primitive.NewObjectID()

	rec := serve(h, http.MethodGet, "/audit?userId="+uid.Hex()+"&category=auth&since=2026-01-02T00:00:00Z", "", &a)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body.String())
	}
	if events.last.UserID == nil || *events.last.UserID != uid {
		t.Errorf("user filter = %v", events.last.UserID)
	}
	if events.last.Category != audit.CategoryAuth || events.last.StartTime == nil {
		t.Errorf("filter = %+v", events.last)
	}
	var body struct {
		Events []audit.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Events == nil {
		t.Errorf("expected empty events array, got %s", rec.Body.String())
	}

	for _, q := range []string{"userId=nope", "category=billing", "since=yesterday"} {
		if rec := serve(h, http.MethodGet, "/audit?"+q, "", &a); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", q, rec.Code)
		}
	}

	donor := testutil.DonorUser("O+")
	if rec := serve(h, http.MethodGet, "/audit", "", &donor); rec.Code != http.StatusForbidden {
		t.Errorf("donor: code = %d, want 403", rec.Code)
	}
}

func TestHandleSetStatus_WritesAuditEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	users := &fakeUsers{known: primitive.NewObjectID()}
	h := admin.NewHandler(users, &fakeDonations{}, fakeRequests{}, zap.NewNop())
	h.Audit = auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all", Admin: "db"})
	h.Events = store
	a := testutil.AdminUser()

	rec := serve(h, http.MethodPut, "/users/"+users.known.Hex()+"/status", `{"status":"inactive"}`, &a)
	if rec.Code != http.StatusOK {
		t.Fatalf("set status: code = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(h, http.MethodGet, "/audit?category=admin", "", &a)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: code = %d", rec.Code)
	}
	var body struct {
		Events []audit.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(body.Events))
	}
	e := body.Events[0]
	if e.EventType != audit.EventUserStatusChanged || e.Details["status"] != "inactive" {
		t.Errorf("event = %+v", e)
	}
	if e.ActorID == nil || *e.ActorID != a.ObjectID() {
		t.Errorf("actor = %v, want %v", e.ActorID, a.ObjectID())
	}
}
