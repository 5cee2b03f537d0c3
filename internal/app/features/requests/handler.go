// internal/app/features/requests/handler.go
package requests

import (
	"context"
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/domain/bloodrequest"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Manager is the blood request lifecycle used by this feature.
type Manager interface {
	Create(ctx context.Context, recipientID primitive.ObjectID, in bloodrequest.NewRequest) (*models.BloodRequest, error)
	List(ctx context.Context, recipientID primitive.ObjectID) ([]models.BloodRequest, error)
	Get(ctx context.Context, id primitive.ObjectID, actor bloodrequest.Actor) (*models.BloodRequest, error)
	Close(ctx context.Context, id primitive.ObjectID, actor bloodrequest.Actor) (*models.BloodRequest, error)
	MatchCandidates(ctx context.Context, id primitive.ObjectID, actor bloodrequest.Actor, requester *models.GeoPoint) ([]donorsearch.DonorResult, error)
}

type Handler struct {
	Requests Manager
	Log      *zap.Logger
}

func NewHandler(requests Manager, logger *zap.Logger) *Handler {
	return &Handler{Requests: requests, Log: logger}
}

// actor describes the signed-in principal. ok is false for anonymous
// callers or a malformed stored ID.
func actor(r *http.Request) (bloodrequest.Actor, bool) {
	role, uid, ok := authz.UserCtx(r)
	if !ok {
		return bloodrequest.Actor{}, false
	}
	return bloodrequest.Actor{ID: uid, IsAdmin: role == models.RoleAdmin}, true
}
