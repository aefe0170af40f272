// Package errs defines the error taxonomy shared by the worklog core.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request rejected before any I/O.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an operation targeting a row that does not exist
	// or is hidden by soft-delete filtering.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks an I/O or constraint failure in the backing store.
	ErrStorage = errors.New("storage error")

	// ErrMigration marks a failed schema migration. Fatal at startup.
	ErrMigration = errors.New("migration failed")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Storage wraps a driver error with the storage classification. The
// cause stays reachable through errors.Is and errors.As.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Migration wraps a failed migration step with the fatal classification.
func Migration(id int, err error) error {
	return fmt.Errorf("%w: migration %d: %w", ErrMigration, id, err)
}
