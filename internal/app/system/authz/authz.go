// Package authz expresses what each role may do as capabilities and guards
// routes with them, so handlers never branch on role names themselves.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Capability names one thing a principal may do.
type Capability string

const (
	SearchDonors     Capability = "donors.search"
	ManageRequests   Capability = "requests.manage"
	ViewAnyRequest   Capability = "requests.view_any"
	RecordDonations  Capability = "donations.record"
	ViewMatchingReqs Capability = "requests.view_matching"
	ManageUsers      Capability = "users.manage"
	ViewStats        Capability = "stats.view"
)

var grants = map[string]map[Capability]bool{
	models.RoleDonor: {
		RecordDonations:  true,
		ViewMatchingReqs: true,
	},
	models.RoleRecipient: {
		SearchDonors:   true,
		ManageRequests: true,
	},
	models.RoleAdmin: {
		SearchDonors:   true,
		ManageRequests: true,
		ViewAnyRequest: true,
		ManageUsers:    true,
		ViewStats:      true,
	},
}

// Can reports whether role holds capability c.
func Can(role string, c Capability) bool {
	return grants[strings.ToLower(role)][c]
}

// Allowed reports whether the request's principal holds c.
func Allowed(r *http.Request, c Capability) bool {
	u, ok := auth.CurrentUser(r)
	return ok && Can(u.Role, c)
}

// Require guards a route with capability c: anonymous callers get 401 and
// principals without c get 403.
func Require(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.CurrentUser(r)
			if !ok {
				httpjson.Message(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !Can(u.Role, c) {
				httpjson.Message(w, http.StatusForbidden, "your role does not permit this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserCtx returns the principal's lowercased role and ObjectID. ok is false
// when nobody is signed in or the stored ID is malformed.
func UserCtx(r *http.Request) (role string, userID primitive.ObjectID, ok bool) {
	u, found := auth.CurrentUser(r)
	if !found {
		return "visitor", primitive.NilObjectID, false
	}
	oid, valid := u.ObjectID()
	if !valid {
		// Malformed user ID in context - fail closed.
		return "visitor", primitive.NilObjectID, false
	}
	return strings.ToLower(u.Role), oid, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}
