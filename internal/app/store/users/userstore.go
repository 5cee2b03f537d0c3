package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the Mongo collection backing the donor directory.
const Collection = "users"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user has the requested ID.
	ErrNotFound  = errors.New("user not found")
	errBadRole   = errors.New(`role must be "donor"|"recipient"|"admin"`)
	errBadStatus = errors.New(`status must be "active"|"inactive"|"pending"`)
)

// GetByID loads a user by ObjectID. Returns ErrNotFound if missing.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns ErrNotFound if missing.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// Email uniqueness is enforced by the unique index on users.email.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !models.IsValidStatus(u.Status) {
		return models.User{}, errBadStatus
	}
	u.DonationCount = 0
	u.LastDonationDate = nil

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the self-editable profile fields. Nil pointers are
// left unchanged. ClearLocation removes stored coordinates.
type ProfileUpdate struct {
	Name          *string
	BloodType     *string
	Phone         *string
	Address       *string
	Coordinates   *models.GeoPoint
	ClearLocation bool
}

// UpdateProfile applies upd and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.BloodType != nil {
		set["blood_type"] = *upd.BloodType
	}
	if upd.Phone != nil {
		set["phone"] = normalize.Phone(*upd.Phone)
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	switch {
	case upd.ClearLocation:
		unset["coordinates"] = ""
	case upd.Coordinates != nil:
		set["coordinates"] = *upd.Coordinates
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

// SetPasswordHash replaces the stored bcrypt hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus changes a user's status. Transitions are free-form.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.User, error) {
	if !models.IsValidStatus(status) {
		return nil, errBadStatus
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
}

// SetDonorAvailability flips a donor between active and inactive.
func (s *Store) SetDonorAvailability(ctx context.Context, id primitive.ObjectID, available bool) (*models.User, error) {
	status := models.StatusInactive
	if available {
		status = models.StatusActive
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id, "role": models.RoleDonor}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
}

// SetDonationStats records the derived donation count and last donation
// date. Only the donations flow calls this.
func (s *Store) SetDonationStats(ctx context.Context, id primitive.ObjectID, count int, last *time.Time) error {
	update := bson.M{"$set": bson.M{
		"donation_count": count,
		"updated_at":     time.Now().UTC(),
	}}
	if last != nil {
		update["$set"].(bson.M)["last_donation_date"] = *last
	} else {
		update["$unset"] = bson.M{"last_donation_date": ""}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindDonors implements donorsearch.Directory.
func (s *Store) FindDonors(ctx context.Context, f donorsearch.DonorFilter) ([]models.User, error) {
	filter := bson.M{
		"role":       models.RoleDonor,
		"blood_type": bson.M{"$in": f.BloodTypes},
	}
	if f.OnlyActive {
		filter["status"] = models.StatusActive
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFilter narrows the admin user list. Blank fields match everything.
type ListFilter struct {
	Role   string
	Status string
}

// List returns one page of users sorted by name, skipping skip rows and
// fetching at most limit.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.User, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RoleCounts is the per-role user tally.
type RoleCounts struct {
	Total      int64 `json:"total"`
	Donors     int64 `json:"donors"`
	Recipients int64 `json:"recipients"`
	Admins     int64 `json:"admins"`
}

// CountByRole tallies users by role in one aggregation.
func (s *Store) CountByRole(ctx context.Context) (RoleCounts, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return RoleCounts{}, err
	}
	defer cur.Close(ctx)

	var rc RoleCounts
	for cur.Next(ctx) {
		var row struct {
			Role string `bson:"_id"`
			N    int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return RoleCounts{}, err
		}
		rc.Total += row.N
		switch row.Role {
		case models.RoleDonor:
			rc.Donors = row.N
		case models.RoleRecipient:
			rc.Recipients = row.N
		case models.RoleAdmin:
			rc.Admins = row.N
		}
	}
	return rc, cur.Err()
}

// Contact is the addressable part of a user.
type Contact struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

// Contacts returns name and email for each of ids that still exists.
func (s *Store) Contacts(ctx context.Context, ids []primitive.ObjectID) ([]Contact, error) {
	if len(ids) == 0 {
		return []Contact{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "name": 1, "email": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Contact{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
