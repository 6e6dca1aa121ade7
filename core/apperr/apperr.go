package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for the user-correctable failure classes.
// Callers wrap them with fmt.Errorf("...: %w", ...) and handlers
// translate them to HTTP statuses via Status.
var (
	// ErrValidation marks malformed caller input (HTTP 400).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing run or mismatch (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrStateConflict marks an operation rejected by the current
	// lifecycle state, e.g. cancelling a completed run (HTTP 409).
	ErrStateConflict = errors.New("state conflict")
)

// Validationf returns a new validation error with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf returns a new not-found error with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Conflictf returns a new state-conflict error with a formatted detail message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrStateConflict}, args...)...)
}

// SourceLoadError reports a failed source adapter load. It is caught
// per-source during run execution so that one bad source does not abort
// the whole run unless it is the anchor source.
type SourceLoadError struct {
	SourceID string
	Err      error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("source %q load failed: %v", e.SourceID, e.Err)
}

func (e *SourceLoadError) Unwrap() error {
	return e.Err
}

// Status maps an error to the HTTP status code it should surface as.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrStateConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
