package model

import "time"

// StatusRecord is one entry in a reservation's audit trail. Records are
// append-only: written once per committed transition, never mutated.
// FromStatus and ToStatus are always different.
type StatusRecord struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	ReservationID string    `json:"reservation_id" bson:"reservation_id"`
	FromStatus    Status    `json:"from_status" bson:"from_status"`
	ToStatus      Status    `json:"to_status" bson:"to_status"`
	OccurredAt    time.Time `json:"occurred_at" bson:"occurred_at"`
}
