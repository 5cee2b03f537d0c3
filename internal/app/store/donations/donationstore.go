package donationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/donation"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds one document per recorded donation.
const Collection = "donations"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Insert stores d, assigning an ID if it has none.
func (s *Store) Insert(ctx context.Context, d *models.Donation) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, d)
	return err
}

// Get loads a donation by ID. Returns donation.ErrNotFound if missing.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Donation, error) {
	var d models.Donation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, donation.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByDonor returns the donor's donations, newest first.
func (s *Store) ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"donor_id": donorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Donation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel moves a completed donation to cancelled. changed is false when the
// donation exists but was already cancelled.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID) (*models.Donation, bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d models.Donation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.DonationCompleted},
		bson.M{"$set": bson.M{"status": models.DonationCancelled}},
		opts,
	).Decode(&d)
	if err == nil {
		return &d, true, nil
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

// Stats counts the donor's completed donations and returns the latest date.
func (s *Store) Stats(ctx context.Context, donorID primitive.ObjectID) (int, *time.Time, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"donor_id": donorID, "status": models.DonationCompleted}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "last", Value: bson.D{{Key: "$max", Value: "$date"}}},
		}}},
	})
	if err != nil {
		return 0, nil, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return 0, nil, cur.Err()
	}
	var row struct {
		N    int       `bson:"n"`
		Last time.Time `bson:"last"`
	}
	if err := cur.Decode(&row); err != nil {
		return 0, nil, err
	}
	last := row.Last.UTC()
	return row.N, &last, nil
}

// Counts is the donation tally shown on the admin dashboard.
type Counts struct {
	Total     int64 `json:"total"`
	ThisMonth int64 `json:"thisMonth"`
}

// CountCompleted counts completed donations overall and since monthStart.
func (s *Store) CountCompleted(ctx context.Context, monthStart time.Time) (Counts, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{"status": models.DonationCompleted})
	if err != nil {
		return Counts{}, err
	}
	month, err := s.c.CountDocuments(ctx, bson.M{
		"status": models.DonationCompleted,
		"date":   bson.M{"$gte": monthStart},
	})
	if err != nil {
		return Counts{}, err
	}
	return Counts{Total: total, ThisMonth: month}, nil
}
