package domain

import "errors"

// Error kinds. Specific errors elsewhere wrap one of these so callers can
// branch on the kind with errors.Is.
var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNotOwner               = errors.New("actor does not own this resource")
	ErrInvalidOtp             = errors.New("invalid otp")
	ErrDriverNotAvailable     = errors.New("driver not available")
	ErrDistanceUnavailable    = errors.New("distance unavailable")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrDuplicateUser          = errors.New("user already exists")
	ErrInvalidInput           = errors.New("invalid input")
)
