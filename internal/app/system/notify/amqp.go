package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes JSON events to a durable topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *zap.Logger
}

// NewPublisher dials url and declares exchange.
func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange, log: logger}, nil
}

// PublishJSON marshals v and publishes it persistently under key.
func (p *Publisher) PublishJSON(ctx context.Context, key, messageID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

// RequestCreated implements Notifier.
func (p *Publisher) RequestCreated(ctx context.Context, req models.BloodRequest, donors []donorsearch.DonorResult) error {
	ev := NewRequestCreatedEvent(req, donors, time.Now())
	if err := p.PublishJSON(ctx, RoutingRequestCreated, ev.EventID, ev); err != nil {
		return fmt.Errorf("publish %s: %w", RoutingRequestCreated, err)
	}
	p.log.Debug("published event",
		zap.String("event_id", ev.EventID),
		zap.String("request_id", ev.RequestID),
		zap.Int("donors", len(ev.DonorIDs)))
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
