package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidSession     = errors.New("session expired or revoked")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidRole        = errors.New("invalid role")

	ErrProfileNotFound = errors.New("profile not found")
	ErrRoleNotFound    = errors.New("role not assigned")
	ErrTaskNotFound    = errors.New("task not found")
	ErrRouteNotFound   = errors.New("route not found")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTaskBlocked       = errors.New("task is blocked")
)

// ValidationError reports malformed input. It is raised before any call to
// the identity service or the database.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a backend failure at the repository boundary.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapPersistence returns nil for a nil err, otherwise a *PersistenceError.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// PartialProvisioningError means a client account was created but could not
// be completed with a profile and role.
type PartialProvisioningError struct {
	UserID string
	// Compensated is true when the orphaned account was removed again.
	Compensated bool
	Err         error
}

func (e *PartialProvisioningError) Error() string {
	state := "account left orphaned"
	if e.Compensated {
		state = "account rolled back"
	}
	return fmt.Sprintf("client provisioning failed for user %s (%s): %v", e.UserID, state, e.Err)
}

func (e *PartialProvisioningError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrRouteNotFound)
}
