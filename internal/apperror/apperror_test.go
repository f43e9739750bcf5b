package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   Kind
		status int
	}{
		{"not found", NotFound("project %s not found", "p1"), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("username already registered"), KindConflict, http.StatusConflict},
		{"validation", Validation("bad"), KindValidation, http.StatusBadRequest},
		{"forbidden", Forbidden("no"), KindPermissionDenied, http.StatusForbidden},
		{"auth", Unauthenticated("invalid credentials"), KindAuthentication, http.StatusUnauthorized},
		{"unsupported", Unsupported("pdf"), KindUnsupported, http.StatusNotImplemented},
		{"internal", Internal(errors.New("boom"), "load"), KindInternal, http.StatusInternalServerError},
		{"gorm not found", gorm.ErrRecordNotFound, KindNotFound, http.StatusNotFound},
		{"wrapped gorm duplicate", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), KindConflict, http.StatusConflict},
		{"wrapped app error", fmt.Errorf("tx: %w", Forbidden("no")), KindPermissionDenied, http.StatusForbidden},
		{"plain", errors.New("x"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindOf(tt.err)
			if got != tt.want {
				t.Fatalf("KindOf = %v, want %v", got, tt.want)
			}
			if got.HTTPStatus() != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus(), tt.status)
			}
		})
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := Internal(errors.New("dial tcp 10.0.0.1:5432: connection refused"), "failed to load project")
	if got := PublicMessage(err); got != "internal server error" {
		t.Errorf("PublicMessage = %q", got)
	}
	if got := PublicMessage(Conflict("email already registered")); got != "email already registered" {
		t.Errorf("PublicMessage = %q", got)
	}
	if got := PublicMessage(gorm.ErrRecordNotFound); got != "record not found" {
		t.Errorf("PublicMessage = %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Internal(cause, "wrapped")
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach the cause")
	}
	if !Is(err, KindInternal) || Is(nil, KindInternal) {
		t.Error("Is misclassified")
	}
}
