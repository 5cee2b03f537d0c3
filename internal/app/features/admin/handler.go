// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/store/audit"
	donationstore "github.com/dalemusser/bloodconnect/internal/app/store/donations"
	requeststore "github.com/dalemusser/bloodconnect/internal/app/store/requests"
	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/auditlog"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuditEvents reads the audit trail.
type AuditEvents interface {
	Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error)
}

// Users is the account administration surface.
type Users interface {
	List(ctx context.Context, f userstore.ListFilter, skip, limit int64) ([]models.User, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.User, error)
	CountByRole(ctx context.Context) (userstore.RoleCounts, error)
}

// DonationCounter tallies completed donations.
type DonationCounter interface {
	CountCompleted(ctx context.Context, monthStart time.Time) (donationstore.Counts, error)
}

// RequestCounter tallies requests by status.
type RequestCounter interface {
	CountByStatus(ctx context.Context) (requeststore.StatusCounts, error)
}

type Handler struct {
	Users     Users
	Donations DonationCounter
	Requests  RequestCounter
	Now       func() time.Time
	Audit     *auditlog.Logger // optional
	Events    AuditEvents      // optional; nil disables /audit
	Log       *zap.Logger
}

func NewHandler(users Users, donations DonationCounter, requests RequestCounter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:     users,
		Donations: donations,
		Requests:  requests,
		Now:       time.Now,
		Log:       logger,
	}
}
