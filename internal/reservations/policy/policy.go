// Package policy centralizes the per-operation permission checks for
// reservations. Keeping every role check here prevents the read path and the
// write path from drifting apart.
package policy

import "labbook/pkg/model"

func isDecider(actor model.Actor) bool {
	return actor.Role == model.RoleDirector || actor.Role == model.RoleAdmin
}

// CanCreate reports whether the actor may open a new reservation. Only
// instructors book labs; directors and admins decide, they do not request.
func CanCreate(actor model.Actor) bool {
	return actor.Role == model.RoleInstructor
}

// CanView allows deciders to see everything and requesters to see their own.
func CanView(actor model.Actor, res *model.Reservation) bool {
	if isDecider(actor) {
		return true
	}
	return actor.ID == res.RequesterID
}

// CanEdit restricts edits to the original requester.
func CanEdit(actor model.Actor, res *model.Reservation) bool {
	return actor.ID == res.RequesterID
}

// CanCancel allows the original requester plus any decider.
func CanCancel(actor model.Actor, res *model.Reservation) bool {
	if isDecider(actor) {
		return true
	}
	return actor.ID == res.RequesterID
}

// CanDecide reports whether the actor may approve, reject or request
// changes on reservations.
func CanDecide(actor model.Actor) bool {
	return isDecider(actor)
}

// CanListAll reports whether the actor may list reservations beyond their
// own (the approval queue and other requesters' bookings).
func CanListAll(actor model.Actor) bool {
	return isDecider(actor)
}
