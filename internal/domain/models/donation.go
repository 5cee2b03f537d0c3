// internal/domain/models/donation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation statuses.
const (
	DonationCompleted = "completed"
	DonationCancelled = "cancelled"
)

// DefaultBloodAmount is the standard whole-blood unit in ml, used when a
// donation is recorded without an explicit amount.
const DefaultBloodAmount = 450

// Donation is a completed donation event recorded by a donor.
// Only Status may change after creation.
type Donation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorID     primitive.ObjectID `bson:"donor_id" json:"donorId"`
	Date        time.Time          `bson:"date" json:"date"`
	Location    string             `bson:"location" json:"location"`
	BloodAmount int                `bson:"blood_amount" json:"bloodAmount"` // ml
	Status      string             `bson:"status" json:"status"`           // completed | cancelled
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}
