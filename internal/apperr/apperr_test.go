package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeTransport, http.StatusBadGateway},
		{CodeServer, http.StatusBadGateway},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{Code("bogus"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := MetadataFor(tt.code).HTTPStatus; got != tt.status {
			t.Errorf("MetadataFor(%s).HTTPStatus = %d, want %d", tt.code, got, tt.status)
		}
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "order not found")
	wrapped := fmt.Errorf("loading order: %w", base)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error in chain")
	}
	if typed.Code() != CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", typed.Code())
	}
	if !IsCode(wrapped, CodeNotFound) {
		t.Error("IsCode should see through fmt wrapping")
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Error("plain errors should classify as internal")
	}
}

func TestSentinelComparison(t *testing.T) {
	sentinel := New(CodeConflict, "serial number already in use")
	err := fmt.Errorf("validating: %w", New(CodeConflict, "serial number already in use"))

	if !errors.Is(err, sentinel) {
		t.Error("errors with equal code and message should match")
	}
	if errors.Is(err, New(CodeConflict, "other")) {
		t.Error("different messages must not match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeTransport, cause, "calling backend").WithDetails(map[string]any{"path": "/orders"})

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if err.Details() == nil {
		t.Error("expected details to be kept")
	}
}
