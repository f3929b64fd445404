package http

import (
	"net/http/httptest"
	"testing"

	apperrors "labbook/pkg/errors"
	"labbook/pkg/model"
)

func TestActorFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/reservations", nil)
	r.Header.Set(HeaderActorID, "teacher-1")
	r.Header.Set(HeaderActorRole, "instructor")

	actor, err := ActorFromRequest(r)
	if err != nil {
		t.Fatalf("ActorFromRequest() error = %v", err)
	}
	if actor.ID != "teacher-1" || actor.Role != model.RoleInstructor {
		t.Errorf("actor = %+v", actor)
	}
}

func TestActorFromRequestRejects(t *testing.T) {
	tests := []struct {
		name string
		id   string
		role string
	}{
		{"missing headers", "", ""},
		{"missing role", "teacher-1", ""},
		{"unknown role", "teacher-1", "superuser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/reservations", nil)
			if tt.id != "" {
				r.Header.Set(HeaderActorID, tt.id)
			}
			if tt.role != "" {
				r.Header.Set(HeaderActorRole, tt.role)
			}

			_, err := ActorFromRequest(r)
			if err == nil {
				t.Fatal("expected an error")
			}
			if apperrors.AsAppError(err).Code != apperrors.CodeUnauthorized {
				t.Errorf("expected %s, got %v", apperrors.CodeUnauthorized, err)
			}
		})
	}
}

func TestExtractLimitOffset(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/reservations?limit=25&offset=50", nil)
	limit, offset, err := ExtractLimitOffset(r)
	if err != nil {
		t.Fatalf("ExtractLimitOffset() error = %v", err)
	}
	if limit != 25 || offset != 50 {
		t.Errorf("got limit=%d offset=%d, want 25/50", limit, offset)
	}

	r = httptest.NewRequest("GET", "/api/v1/reservations?limit=banana", nil)
	if _, _, err := ExtractLimitOffset(r); err == nil {
		t.Error("expected an error for a non-numeric limit")
	}

	// Out-of-range values are clamped, not rejected.
	r = httptest.NewRequest("GET", "/api/v1/reservations?limit=100000&offset=-5", nil)
	limit, offset, err = ExtractLimitOffset(r)
	if err != nil {
		t.Fatalf("ExtractLimitOffset() error = %v", err)
	}
	if limit != 100 || offset != 0 {
		t.Errorf("got limit=%d offset=%d, want 100/0", limit, offset)
	}
}
