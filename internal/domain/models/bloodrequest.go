// internal/domain/models/bloodrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blood request statuses.
const (
	RequestActive    = "active"
	RequestCompleted = "completed"
	RequestExpired   = "expired"
)

// Blood request urgency levels.
const (
	UrgencyNormal    = "normal"
	UrgencyUrgent    = "urgent"
	UrgencyEmergency = "emergency"
)

// BloodRequest is a recipient's call for donors of a given blood type.
//
// Lifecycle: active -> completed (closed by the owner or an admin),
// active -> expired (expiry sweep). Completed and expired are terminal.
type BloodRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecipientID primitive.ObjectID `bson:"recipient_id" json:"recipientId"`
	BloodType   string             `bson:"blood_type" json:"bloodType"`
	Urgency     string             `bson:"urgency" json:"urgency"`
	PatientName string             `bson:"patient_name" json:"patientName"`
	Hospital    string             `bson:"hospital" json:"hospital"`
	Details     string             `bson:"details,omitempty" json:"details,omitempty"`
	Status      string             `bson:"status" json:"status"`

	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
	ClosedAt  *time.Time `bson:"closed_at,omitempty" json:"closedAt,omitempty"`
}

// IsValidUrgency reports whether u is a known urgency level.
func IsValidUrgency(u string) bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}
