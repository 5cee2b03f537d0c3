package notify

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/mailer"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ContactDirectory resolves donor IDs to addresses.
type ContactDirectory interface {
	Contacts(ctx context.Context, ids []primitive.ObjectID) ([]userstore.Contact, error)
}

// Emailer emails each matched donor about a new request.
type Emailer struct {
	sender   mailer.Sender
	contacts ContactDirectory
	siteName string
	log      *zap.Logger
}

// NewEmailer returns an Emailer that signs messages as siteName.
func NewEmailer(sender mailer.Sender, contacts ContactDirectory, siteName string, logger *zap.Logger) *Emailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emailer{sender: sender, contacts: contacts, siteName: siteName, log: logger}
}

// RequestCreated implements Notifier. One failed send does not stop the
// rest; the failures are joined into the returned error.
func (e *Emailer) RequestCreated(ctx context.Context, req models.BloodRequest, donors []donorsearch.DonorResult) error {
	ids := make([]primitive.ObjectID, 0, len(donors))
	for _, d := range donors {
		ids = append(ids, d.ID)
	}
	contacts, err := e.contacts.Contacts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load donor contacts: %w", err)
	}

	var errs []error
	sent := 0
	for _, c := range contacts {
		if c.Email == "" {
			continue
		}
		msg := mailer.BuildDonorMatchEmail(mailer.DonorMatchEmailData{
			SiteName:    e.siteName,
			DonorName:   c.Name,
			BloodType:   req.BloodType,
			Urgency:     req.Urgency,
			Hospital:    req.Hospital,
			PatientName: req.PatientName,
		})
		msg.To = c.Email
		msg.ToName = c.Name
		if err := e.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("email donor %s: %w", c.ID.Hex(), err))
			continue
		}
		sent++
	}
	e.log.Info("donor match emails sent",
		zap.String("request_id", req.ID.Hex()),
		zap.Int("sent", sent),
		zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}
