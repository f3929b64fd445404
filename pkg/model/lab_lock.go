package model

import "time"

// LabLock is an advisory lock serializing conflict-checked transitions for a
// single lab. The _id is derived from the lab id, so a duplicate-key error on
// insert means another request is inside its check-then-commit section.
// ExpiresAt backs a TTL index so a crashed holder cannot wedge a lab.
type LabLock struct {
	ID        string    `bson:"_id" json:"id"`
	LabID     string    `bson:"lab_id" json:"lab_id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
