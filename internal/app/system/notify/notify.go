// Package notify tells matched donors about new blood requests. Events go
// to a RabbitMQ topic exchange for downstream consumers and, when email is
// configured, straight to each donor's inbox.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/google/uuid"
)

// RoutingRequestCreated is the routing key of RequestCreatedEvent.
const RoutingRequestCreated = "blood_request.created"

// RequestCreatedEvent is the broker payload for a new blood request.
type RequestCreatedEvent struct {
	EventID     string    `json:"eventId"`
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurredAt"`
	RequestID   string    `json:"requestId"`
	RecipientID string    `json:"recipientId"`
	BloodType   string    `json:"bloodType"`
	Urgency     string    `json:"urgency"`
	Hospital    string    `json:"hospital"`
	DonorIDs    []string  `json:"donorIds"`
}

// NewRequestCreatedEvent builds the event for req and its matched donors.
func NewRequestCreatedEvent(req models.BloodRequest, donors []donorsearch.DonorResult, at time.Time) RequestCreatedEvent {
	ids := make([]string, 0, len(donors))
	for _, d := range donors {
		ids = append(ids, d.ID.Hex())
	}
	return RequestCreatedEvent{
		EventID:     uuid.NewString(),
		Type:        RoutingRequestCreated,
		OccurredAt:  at.UTC(),
		RequestID:   req.ID.Hex(),
		RecipientID: req.RecipientID.Hex(),
		BloodType:   req.BloodType,
		Urgency:     req.Urgency,
		Hospital:    req.Hospital,
		DonorIDs:    ids,
	}
}

// Notifier receives new-request notifications.
type Notifier interface {
	RequestCreated(ctx context.Context, req models.BloodRequest, donors []donorsearch.DonorResult) error
}

// Multi fans a notification out to several notifiers. Every notifier runs
// even if an earlier one fails; the errors are joined.
type Multi []Notifier

// RequestCreated implements Notifier.
func (m Multi) RequestCreated(ctx context.Context, req models.BloodRequest, donors []donorsearch.DonorResult) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.RequestCreated(ctx, req, donors); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
