package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection(Collection)}
}

// FetchUser loads the principal for id. The caller bounds ctx.
func (f *Fetcher) FetchUser(ctx context.Context, id primitive.ObjectID) (*auth.SessionUser, error) {
	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":         1,
		"name":        1,
		"email":       1,
		"role":        1,
		"status":      1,
		"blood_type":  1,
		"coordinates": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return SessionUserFrom(&u), nil
}

// SessionUserFrom projects a stored user onto the request principal.
func SessionUserFrom(u *models.User) *auth.SessionUser {
	return &auth.SessionUser{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      normalize.Role(u.Role),
		Status:    u.Status,
		BloodType: u.BloodType,
		Location:  u.Coordinates,
	}
}
