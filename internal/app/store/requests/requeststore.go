package requeststore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/bloodrequest"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds recipients' blood requests.
const Collection = "blood_requests"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Insert stores req, assigning an ID if it has none.
func (s *Store) Insert(ctx context.Context, req *models.BloodRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, req)
	return err
}

// Get loads a request by ID. Returns bloodrequest.ErrNotFound if missing.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.BloodRequest, error) {
	var req models.BloodRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bloodrequest.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByRecipient returns the recipient's requests, newest first.
func (s *Store) ListByRecipient(ctx context.Context, recipientID primitive.ObjectID) ([]models.BloodRequest, error) {
	return s.find(ctx, bson.M{"recipient_id": recipientID})
}

// ListActive returns active requests for any of bloodTypes, newest first.
func (s *Store) ListActive(ctx context.Context, bloodTypes []string) ([]models.BloodRequest, error) {
	return s.find(ctx, bson.M{
		"status":     models.RequestActive,
		"blood_type": bson.M{"$in": bloodTypes},
	})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.BloodRequest, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.BloodRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Complete moves an active request to completed. When the request is not
// active the stored document is returned with changed=false.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.BloodRequest, bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req models.BloodRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RequestActive},
		bson.M{"$set": bson.M{
			"status":     models.RequestCompleted,
			"closed_at":  at,
			"updated_at": at,
		}},
		opts,
	).Decode(&req)
	if err == nil {
		return &req, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return cur, false, nil
}

// ExpireBefore marks active requests created before cutoff as expired.
func (s *Store) ExpireBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.RequestActive, "created_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"status": models.RequestExpired, "updated_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// StatusCounts is the per-status request tally.
type StatusCounts struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Expired   int64 `json:"expired"`
	Total     int64 `json:"total"`
}

// CountByStatus tallies requests by status in one aggregation.
func (s *Store) CountByStatus(ctx context.Context) (StatusCounts, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return StatusCounts{}, err
	}
	defer cur.Close(ctx)

	var sc StatusCounts
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return StatusCounts{}, err
		}
		sc.Total += row.N
		switch row.Status {
		case models.RequestActive:
			sc.Active = row.N
		case models.RequestCompleted:
			sc.Completed = row.N
		case models.RequestExpired:
			sc.Expired = row.N
		}
	}
	return sc, cur.Err()
}
