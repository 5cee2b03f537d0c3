// internal/app/features/donors/handler.go
package donors

import (
	"context"

	"github.com/dalemusser/bloodconnect/internal/domain/donation"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/eligibility"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Searcher runs donor searches.
type Searcher interface {
	Search(ctx context.Context, q donorsearch.Query) ([]donorsearch.DonorResult, error)
}

// Donations records and reports a donor's donations.
type Donations interface {
	Record(ctx context.Context, donorID primitive.ObjectID, in donation.NewDonation) (*models.Donation, error)
	Cancel(ctx context.Context, donorID, id primitive.ObjectID) (*models.Donation, error)
	Profile(ctx context.Context, donorID primitive.ObjectID) (*donation.Profile, error)
	Eligibility(ctx context.Context, donorID primitive.ObjectID) (eligibility.Status, error)
}

// Availability flips a donor between active and inactive.
type Availability interface {
	SetDonorAvailability(ctx context.Context, id primitive.ObjectID, available bool) (*models.User, error)
}

// Requests lists the open requests a donor can answer.
type Requests interface {
	ActiveForDonor(ctx context.Context, bloodType string) ([]models.BloodRequest, error)
}

type Handler struct {
	Search       Searcher
	Donations    Donations
	Availability Availability
	Requests     Requests
	Log          *zap.Logger
}

func NewHandler(search Searcher, donations Donations, availability Availability, requests Requests, logger *zap.Logger) *Handler {
	return &Handler{
		Search:       search,
		Donations:    donations,
		Availability: availability,
		Requests:     requests,
		Log:          logger,
	}
}
