package faults_test

import (
	"errors"
	"strings"
	"testing"

	"timedtext/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrValidation, "store", "load", "decode failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"store", "load", "decode failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := faults.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "transcript failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNotAtWordBoundaryIsRejection(t *testing.T) {
	err := faults.Wrap(faults.ErrNotAtWordBoundary, "transcript", "split", "", nil)
	if !errors.Is(err, faults.ErrStructuralEditRejected) {
		t.Fatalf("expected structural rejection, got %v", err)
	}
	if got := faults.Kind(err); got != "edit_rejected" {
		t.Fatalf("Kind() = %q, want edit_rejected", got)
	}
}

func TestKindAndRecoverable(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		kind        string
		recoverable bool
	}{
		{"nil", nil, "", false},
		{"unsupported", faults.Wrap(faults.ErrUnsupportedExportFormat, "export", "render", "pdf", nil), "unsupported_format", true},
		{"busy", faults.ErrConcurrentOperation, "busy", true},
		{"not found", faults.Wrap(faults.ErrNotFound, "store", "load", "", nil), "not_found", true},
		{"config", faults.ErrConfiguration, "configuration", false},
		{"plain", errors.New("disk full"), "internal", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := faults.Kind(tt.err); got != tt.kind {
				t.Errorf("Kind() = %q, want %q", got, tt.kind)
			}
			if got := faults.Recoverable(tt.err); got != tt.recoverable {
				t.Errorf("Recoverable() = %v, want %v", got, tt.recoverable)
			}
		})
	}
}
