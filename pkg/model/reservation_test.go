package model

import (
	"testing"
	"time"
)

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusNeedsChanges, StatusCancelled} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("deleted").IsValid() {
		t.Error("unknown status should be invalid")
	}
}

func TestStatusBlocksWindow(t *testing.T) {
	if !StatusApproved.BlocksWindow() {
		t.Error("approved should block the window")
	}
	// Competing pending requests queue on the same window.
	for _, s := range []Status{StatusPending, StatusNeedsChanges, StatusRejected, StatusCancelled} {
		if s.BlocksWindow() {
			t.Errorf("%s should not block the window", s)
		}
	}
}

func TestStatusInFlight(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, true},
		{StatusApproved, true},
		{StatusNeedsChanges, true},
		{StatusRejected, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		if got := tt.status.InFlight(); got != tt.want {
			t.Errorf("%s.InFlight() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if !StatusCancelled.IsTerminal() {
		t.Error("cancelled should be terminal")
	}
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusNeedsChanges} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestReservationWindow(t *testing.T) {
	start := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	res := &Reservation{StartTime: start, EndTime: end}

	window := res.Window()
	if !window.Start.Equal(start) || !window.End.Equal(end) {
		t.Errorf("Window() = %+v, want [%v, %v)", window, start, end)
	}
}
