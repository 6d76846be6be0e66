// Package events publishes domain events after the state change they
// describe has been committed.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Type identifies an event and doubles as its routing key.
type Type string

const (
	RideRequestSubmitted Type = "ride_request.submitted"
	RideRequestCancelled Type = "ride_request.cancelled"
	RideAccepted         Type = "ride.accepted"
	RideStarted          Type = "ride.started"
	RideEnded            Type = "ride.ended"
	RideCancelled        Type = "ride.cancelled"
	PaymentConfirmed     Type = "payment.confirmed"
	PaymentFailed        Type = "payment.failed"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher stamps and publishes events. Delivery failures are logged and
// never surface to the caller.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(publisher Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{publisher: publisher, logger: logger}
}

// Emit publishes an event of the given type.
func (d *Dispatcher) Emit(ctx context.Context, eventType Type, payload any) {
	if d == nil || d.publisher == nil {
		return
	}

	event := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.ErrorContext(ctx, "event publish failed", "event_type", eventType, "event_id", event.ID, "error", err)
	}
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "event", "event_type", event.Type, "event_id", event.ID, "payload", event.Payload)
	return nil
}
