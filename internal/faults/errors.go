package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStructuralEditRejected  = errors.New("structural edit rejected")
	ErrAlignmentBestEffort     = errors.New("alignment best effort")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
	ErrConcurrentOperation     = errors.New("concurrent operation rejected")
	ErrValidation              = errors.New("validation error")
	ErrConfiguration           = errors.New("configuration error")
	ErrNotFound                = errors.New("not found")
)

// ErrNotAtWordBoundary is returned when a split offset falls inside a word.
// It is a structural edit rejection.
var ErrNotAtWordBoundary = fmt.Errorf("%w: offset not at word boundary", ErrStructuralEditRejected)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification label for err suitable for log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStructuralEditRejected):
		return "edit_rejected"
	case errors.Is(err, ErrAlignmentBestEffort):
		return "alignment_best_effort"
	case errors.Is(err, ErrUnsupportedExportFormat):
		return "unsupported_format"
	case errors.Is(err, ErrConcurrentOperation):
		return "busy"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// Recoverable reports whether err is one of the local conditions that leave
// the document untouched and can be shown to the user as-is.
func Recoverable(err error) bool {
	switch Kind(err) {
	case "", "internal", "configuration":
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "transcript failure"
	}
	return strings.Join(parts, ": ")
}
