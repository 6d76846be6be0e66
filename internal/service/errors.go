package service

import (
	"errors"
	"fmt"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// Validation errors.
var (
	// ErrInvalidActor is returned when no acting user is supplied.
	ErrInvalidActor = fmt.Errorf("%w: missing actor", domain.ErrInvalidInput)

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = fmt.Errorf("%w: invalid ride id", domain.ErrInvalidInput)

	// ErrInvalidRideRequestID is returned when ride request ID is empty.
	ErrInvalidRideRequestID = fmt.Errorf("%w: invalid ride request id", domain.ErrInvalidInput)

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = fmt.Errorf("%w: invalid pickup location", domain.ErrInvalidInput)

	// ErrInvalidDropoffLocation is returned when dropoff coordinates are invalid.
	ErrInvalidDropoffLocation = fmt.Errorf("%w: invalid dropoff location", domain.ErrInvalidInput)

	// ErrInvalidLocation is returned when a driver location is invalid.
	ErrInvalidLocation = fmt.Errorf("%w: invalid location", domain.ErrInvalidInput)

	// ErrInvalidPaymentMethod is returned when payment method is not CASH or WALLET.
	ErrInvalidPaymentMethod = fmt.Errorf("%w: invalid payment method", domain.ErrInvalidInput)

	// ErrInvalidScore is returned when a rating is outside 1..5.
	ErrInvalidScore = fmt.Errorf("%w: score must be between 1 and 5", domain.ErrInvalidInput)

	// ErrInvalidName is returned when a sign-up name is empty.
	ErrInvalidName = fmt.Errorf("%w: name is required", domain.ErrInvalidInput)

	// ErrInvalidEmail is returned when a sign-up email is malformed.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)

	// ErrInvalidVehicleID is returned when onboarding without a vehicle.
	ErrInvalidVehicleID = fmt.Errorf("%w: vehicle id is required", domain.ErrInvalidInput)
)

// Lookup errors.
var (
	ErrUserNotFound        = fmt.Errorf("%w: user", repository.ErrNotFound)
	ErrRiderNotFound       = fmt.Errorf("%w: rider", repository.ErrNotFound)
	ErrDriverNotFound      = fmt.Errorf("%w: driver", repository.ErrNotFound)
	ErrRideRequestNotFound = fmt.Errorf("%w: ride request", repository.ErrNotFound)
	ErrRideNotFound        = fmt.Errorf("%w: ride", repository.ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("%w: payment", repository.ErrNotFound)
)

// State machine errors.
var (
	// ErrRideRequestCannotBeAccepted is returned when the request is no longer PENDING.
	ErrRideRequestCannotBeAccepted = fmt.Errorf("%w: ride request cannot be accepted", domain.ErrInvalidStateTransition)

	// ErrRideRequestCannotBeCancelled is returned when the request is no longer PENDING.
	ErrRideRequestCannotBeCancelled = fmt.Errorf("%w: ride request cannot be cancelled", domain.ErrInvalidStateTransition)

	// ErrRideStatusNotConfirmed is returned when a ride is not in the status
	// the operation starts from.
	ErrRideStatusNotConfirmed = fmt.Errorf("%w: ride status does not allow this operation", domain.ErrInvalidStateTransition)

	// ErrRideCannotBeCancelled is returned when the ride has already started or finished.
	ErrRideCannotBeCancelled = fmt.Errorf("%w: ride cannot be cancelled in current state", domain.ErrInvalidStateTransition)

	// ErrRideNotEnded is returned when settling or rating a ride that has not ended.
	ErrRideNotEnded = fmt.Errorf("%w: ride has not ended", domain.ErrInvalidStateTransition)
)

// Authorization and business rule errors.
var (
	// ErrDriverCouldNotAccept is returned when the acting driver is not the ride's driver.
	ErrDriverCouldNotAccept = fmt.Errorf("%w: driver is not assigned to this ride", domain.ErrNotOwner)

	// ErrNotRideRider is returned when the acting rider does not own the ride or request.
	ErrNotRideRider = fmt.Errorf("%w: rider does not own this ride", domain.ErrNotOwner)

	// ErrNotRideParticipant is returned when the actor is neither rider nor driver of a ride.
	ErrNotRideParticipant = fmt.Errorf("%w: not a participant of this ride", domain.ErrNotOwner)

	// ErrOtpMismatch is returned when the supplied OTP does not match the ride's.
	ErrOtpMismatch = fmt.Errorf("%w: otp does not match", domain.ErrInvalidOtp)

	// ErrDriverBusy is returned when the driver is on another ride.
	ErrDriverBusy = fmt.Errorf("%w: driver is busy", domain.ErrDriverNotAvailable)

	// ErrDuplicateUser is returned when the email is already registered.
	ErrDuplicateUser = fmt.Errorf("%w: email already registered", domain.ErrDuplicateUser)

	// ErrAlreadyDriver is returned when onboarding a user who already drives.
	ErrAlreadyDriver = fmt.Errorf("%w: user is already a driver", domain.ErrDuplicateUser)

	// ErrAlreadyRated is returned when one side rates the same ride twice.
	ErrAlreadyRated = fmt.Errorf("%w: ride already rated", repository.ErrConflict)

	// ErrSettlementFailed is returned by EndRide when the ride ended but its
	// payment could not be settled. The payment stays PENDING for retry.
	ErrSettlementFailed = errors.New("settlement failed")
)

// notFound translates repository.ErrNotFound into the given specific error.
func notFound(err, specific error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return specific
	}
	return err
}
