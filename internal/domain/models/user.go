// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
	RoleAdmin     = "admin"
)

// User statuses. For donors, "active" also means available to donate.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// GeoPoint is a WGS84 coordinate pair. A user without a known location has a
// nil *GeoPoint; (0,0) is a real place and is never used as a placeholder.
type GeoPoint struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// User represents donors, recipients, and admins.
//
// NOTE:
//   - DonationCount and LastDonationDate are derived from the donations
//     collection; they are only rewritten after a donation is recorded or
//     cancelled.
//   - PasswordHash never leaves the service (json:"-").
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // donor | recipient | admin
	BloodType    string             `bson:"blood_type,omitempty" json:"bloodType,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Coordinates  *GeoPoint          `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Status       string             `bson:"status" json:"status"` // active | inactive | pending

	LastDonationDate *time.Time `bson:"last_donation_date,omitempty" json:"lastDonationDate,omitempty"`
	DonationCount    int        `bson:"donation_count" json:"donationCount"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleDonor, RoleRecipient, RoleAdmin:
		return true
	}
	return false
}

// IsValidStatus reports whether status is one of the known user statuses.
func IsValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}
