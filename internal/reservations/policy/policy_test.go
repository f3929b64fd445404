package policy

import (
	"testing"

	"labbook/pkg/model"
)

var (
	instructor = model.Actor{ID: "teacher-1", Role: model.RoleInstructor}
	otherInstr = model.Actor{ID: "teacher-2", Role: model.RoleInstructor}
	director   = model.Actor{ID: "director-1", Role: model.RoleDirector}
	admin      = model.Actor{ID: "admin-1", Role: model.RoleAdmin}
)

func ownReservation() *model.Reservation {
	return &model.Reservation{ID: "res-1", RequesterID: instructor.ID}
}

func TestCanCreate(t *testing.T) {
	if !CanCreate(instructor) {
		t.Error("instructors should be able to create reservations")
	}
	if CanCreate(director) || CanCreate(admin) {
		t.Error("deciders should not create reservations")
	}
}

func TestCanView(t *testing.T) {
	res := ownReservation()

	if !CanView(instructor, res) {
		t.Error("requester should view their own reservation")
	}
	if CanView(otherInstr, res) {
		t.Error("other instructors should not view someone else's reservation")
	}
	if !CanView(director, res) || !CanView(admin, res) {
		t.Error("deciders should view any reservation")
	}
}

func TestCanEdit(t *testing.T) {
	res := ownReservation()

	if !CanEdit(instructor, res) {
		t.Error("requester should edit their own reservation")
	}
	if CanEdit(otherInstr, res) {
		t.Error("other instructors should not edit")
	}
	// Deciders decide; they do not rework someone else's request.
	if CanEdit(director, res) || CanEdit(admin, res) {
		t.Error("deciders should not edit reservations")
	}
}

func TestCanCancel(t *testing.T) {
	res := ownReservation()

	if !CanCancel(instructor, res) {
		t.Error("requester should cancel their own reservation")
	}
	if CanCancel(otherInstr, res) {
		t.Error("other instructors should not cancel")
	}
	if !CanCancel(director, res) || !CanCancel(admin, res) {
		t.Error("deciders should cancel any reservation")
	}
}

func TestCanDecide(t *testing.T) {
	if CanDecide(instructor) {
		t.Error("instructors should not decide")
	}
	if !CanDecide(director) || !CanDecide(admin) {
		t.Error("directors and admins should decide")
	}
}

func TestCanListAll(t *testing.T) {
	if CanListAll(instructor) {
		t.Error("instructors should only list their own reservations")
	}
	if !CanListAll(director) || !CanListAll(admin) {
		t.Error("deciders should list all reservations")
	}
}
