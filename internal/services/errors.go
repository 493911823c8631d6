package services

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
)

// Categories. Handlers map them to HTTP status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrStore      = errors.New("store failure")
)

var (
	ErrPhoneNotFound      = fmt.Errorf("phone number %w", ErrNotFound)
	ErrAlertNotFound      = fmt.Errorf("alert %w", ErrNotFound)
	ErrFamilyLinkNotFound = fmt.Errorf("family link %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrReportNotFound     = fmt.Errorf("report %w", ErrNotFound)

	ErrInvalidPhone    = fmt.Errorf("%w: phone number must have 1 to 15 digits", ErrValidation)
	ErrDuplicatePhone  = fmt.Errorf("%w: phone number already exists", ErrValidation)
	ErrNotElderly      = fmt.Errorf("%w: primary account is not an elderly account", ErrValidation)
	ErrSelfLink        = fmt.Errorf("%w: cannot link an account to itself", ErrValidation)
	ErrLinkUserMissing = fmt.Errorf("%w: linked account does not exist", ErrValidation)
	ErrInvalidSeverity = fmt.Errorf("%w: unknown severity", ErrValidation)
	ErrInvalidReport   = fmt.Errorf("%w: unknown report type", ErrValidation)

	ErrFamilyLinkExists = fmt.Errorf("%w: family link already exists", ErrConflict)
	ErrEmailTaken       = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

// storeErr classifies an unexpected store failure.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStore) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
