// internal/app/features/profile/handler.go
package profile

import (
	"context"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/auditlog"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Users is the slice of the user store the profile pages need.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) (*models.User, error)
	SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
}

type Handler struct {
	Users Users
	Audit *auditlog.Logger // optional
	Log   *zap.Logger
}

func NewHandler(users Users, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

