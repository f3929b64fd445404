// Package events publishes reservation lifecycle events to the shared
// stream. Publishing happens after the transition commits and never rolls
// it back: downstream consumers (notifications, reporting) tolerate loss,
// the reservation store does not tolerate phantom events.
package events

import (
	"context"
	"time"

	"labbook/pkg/kafka"
	"labbook/pkg/logger"
	"labbook/pkg/model"
)

const (
	EventTypeStatusChanged = "reservation.status-changed"

	schemaVersion = "1"
	sourceService = "reservations"
)

type StatusChanged struct {
	ReservationID string       `json:"reservation_id"`
	LabID         string       `json:"lab_id"`
	RequesterID   string       `json:"requester_id"`
	FromStatus    model.Status `json:"from_status"`
	ToStatus      model.Status `json:"to_status"`
	Reason        string       `json:"reason,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewPublisher(producer *kafka.Producer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log,
	}
}

// StatusChanged is a no-op when event publishing is disabled (nil publisher
// or producer). Failures are logged, not propagated.
func (p *Publisher) StatusChanged(ctx context.Context, ev StatusChanged) {
	if p == nil || p.producer == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(ev.ReservationID).
		WithValue(ev).
		WithEventType(EventTypeStatusChanged).
		WithSource(sourceService).
		WithSchemaVersion(schemaVersion).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish status change event",
			"reservation_id", ev.ReservationID,
			"from_status", ev.FromStatus,
			"to_status", ev.ToStatus,
			"error", err,
		)
	}
}
