// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Email is one outgoing message with both bodies.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an Email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// SendGrid sends mail through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *zap.Logger
}

// NewSendGrid returns a SendGrid sender. apiKey and fromAddr are required.
func NewSendGrid(apiKey, fromAddr, fromName string, logger *zap.Logger) (*SendGrid, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	if fromAddr == "" {
		return nil, errors.New("mail from address is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddr),
		log:    logger,
	}, nil
}

// Send delivers e. A 4xx/5xx response from SendGrid is an error.
func (s *SendGrid) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return errors.New("email has no recipient")
	}
	to := mail.NewEmail(e.ToName, e.To)
	msg := mail.NewSingleEmail(s.from, e.Subject, to, e.TextBody, e.HTMLBody)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.log.Warn("sendgrid rejected email",
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body))
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	s.log.Debug("email sent", zap.Int("status", resp.StatusCode))
	return nil
}
