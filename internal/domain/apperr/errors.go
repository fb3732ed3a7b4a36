// Package apperr defines the error kinds shared by services and storage backends.
//
// Storage sentinels wrap one of the kinds, so callers can match either the
// precise condition (ErrCertificateExists) or its category (ErrConflict).
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrDeliveryFailure = errors.New("delivery failure")
	ErrRenderingFailed = errors.New("rendering failed")
	ErrPersistence     = errors.New("persistence failure")
)

// Storage sentinels.
var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrCourseNotFound       = fmt.Errorf("course %w", ErrNotFound)
	ErrEnrollmentNotFound   = fmt.Errorf("active enrollment %w", ErrNotFound)
	ErrProgressionNotFound  = fmt.Errorf("progression %w", ErrNotFound)
	ErrCertificateNotFound  = fmt.Errorf("certificate %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrEnrollmentExists  = fmt.Errorf("enrollment already exists: %w", ErrConflict)
	ErrCertificateExists = fmt.Errorf("certificate already issued: %w", ErrConflict)

	ErrNotificationForbidden = fmt.Errorf("notification belongs to another user: %w", ErrUnauthorized)
)

// Persistence wraps a storage failure that is not one of the known conditions.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
