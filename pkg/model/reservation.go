package model

import (
	"time"

	"labbook/pkg/interval"
)

// Status is the lifecycle state of a reservation. Cancelled is terminal;
// rejected has no outgoing decision, only cancellation.
type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
	StatusNeedsChanges Status = "needs_changes"
	StatusCancelled    Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsChanges, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}

// BlocksWindow reports whether a reservation in this status holds its time
// window against other bookings. Only approved reservations do; competing
// pending requests are allowed to queue on the same window and race for
// approval.
func (s Status) BlocksWindow() bool {
	return s == StatusApproved
}

// InFlight reports whether the reservation still engages the lab, meaning
// it is neither rejected nor cancelled.
func (s Status) InFlight() bool {
	switch s {
	case StatusPending, StatusApproved, StatusNeedsChanges:
		return true
	}
	return false
}

// InFlightStatuses is the status set shown on availability views and
// counted when guarding lab deletion.
func InFlightStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusNeedsChanges}
}

type Reservation struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LabID        string    `json:"lab_id" bson:"lab_id" validate:"required,mongodb"`
	RequesterID  string    `json:"requester_id" bson:"requester_id" validate:"required,min=1,max=64"`
	StartTime    time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Title        string    `json:"title" bson:"title" validate:"required,min=2,max=160"`
	Class        string    `json:"class,omitempty" bson:"class,omitempty" validate:"omitempty,max=80"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	PlanID       string    `json:"plan_id,omitempty" bson:"plan_id,omitempty" validate:"omitempty,mongodb"`
	Status       Status    `json:"status" bson:"status" validate:"required,oneof=pending approved rejected needs_changes cancelled"`
	StatusReason string    `json:"status_reason,omitempty" bson:"status_reason,omitempty" validate:"omitempty,max=2000"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Window returns the booked time range as a half-open interval.
func (r *Reservation) Window() interval.Interval {
	return interval.Interval{Start: r.StartTime, End: r.EndTime}
}

// ReservationUpdate carries the fields a requester may change while a
// reservation is pending or waiting for changes. Nil/empty fields keep
// their current value.
type ReservationUpdate struct {
	StartTime   *time.Time `json:"start_time,omitempty" validate:"omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty" validate:"omitempty"`
	Title       string     `json:"title,omitempty" validate:"omitempty,min=2,max=160"`
	Class       *string    `json:"class,omitempty"`
	Description *string    `json:"description,omitempty"`
}
