package reservation

import (
	"errors"
	"fmt"

	"easydrive/internal/database"
)

// Error kinds returned by the service layer. Callers branch on these with
// errors.Is; the HTTP layer maps them onto status codes.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}

func forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}

// mapStoreErr translates storage sentinels into service error kinds so that
// callers never need to import the database package.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: reservation", ErrNotFound)
	case errors.Is(err, database.ErrConcurrentModification):
		return conflictf("reservation was modified concurrently, reload and retry")
	case errors.Is(err, database.ErrInvalidWindow):
		return validationf("end date must not be before start date")
	}
	return err
}
