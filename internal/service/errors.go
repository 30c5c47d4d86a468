package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
)

var (
	ErrRoomNotFound           = errors.New("room not found")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrRoomUnavailable        = errors.New("room already booked for selected dates")
	ErrInvalidDateRange       = errors.New("check-out date must be after check-in date")
	ErrTooManyGuests          = errors.New("guest count exceeds room capacity")
	ErrInvalidGuestCount      = errors.New("at least one guest is required")
	ErrInvalidStateTransition = errors.New("invalid reservation state transition")
	ErrAlreadyCheckedIn       = errors.New("reservation is already checked in")
	ErrCodeSpaceExhausted     = errors.New("could not allocate a unique confirmation code")
	ErrKeyNotFound            = errors.New("digital key not found")
	ErrKeyRevoked             = errors.New("digital key has been revoked")
	ErrKeyInvalid             = errors.New("digital key token is not valid")
	ErrPersistence            = errors.New("persistence failure")
	ErrForbidden              = errors.New("insufficient permissions")
	ErrCheckInTooEarly        = errors.New("check-in is not open before the check-in date")
	ErrReservationInactive    = errors.New("reservation is not confirmed or checked in")
	ErrCodeAlreadyAssigned    = errors.New("confirmation code already assigned")
	ErrInvalidKeyTTL          = errors.New("digital key TTL must be at least one second")
	ErrVerificationClosed     = errors.New("reservation no longer accepts verification documents")
	ErrInvalidPaymentStatus   = errors.New("payment status must be pending, authorized or declined")

	ErrIdentityMissing      = errors.New("identity document not uploaded")
	ErrPaymentNotAuthorized = errors.New("payment not authorized")
	ErrBiometricMissing     = errors.New("biometric verification not completed")
	ErrBiometricFailed      = errors.New("biometric verification failed")
)

// TransitionError is returned for a lifecycle move the state machine forbids.
// It matches ErrInvalidStateTransition with errors.Is.
type TransitionError struct {
	From models.ReservationStatus
	To   models.ReservationStatus
	// Reason refines the sentinel, e.g. ErrAlreadyCheckedIn.
	Reason error
}

func (e *TransitionError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("cannot move reservation from %s to %s: %v", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot move reservation from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

func (e *TransitionError) Unwrap() error {
	return e.Reason
}

// RoomUnavailableError names the room and dates that collided so the guest
// can pick different dates.
type RoomUnavailableError struct {
	RoomNumber string
	CheckIn    string
	CheckOut   string
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %s is already booked between %s and %s, please choose different dates",
		e.RoomNumber, e.CheckIn, e.CheckOut)
}

func (e *RoomUnavailableError) Is(target error) bool {
	return target == ErrRoomUnavailable
}

// persistenceErr marks err as a storage failure the caller may retry.
func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrPersistence, err))
}

var domainErrors = []error{
	ErrRoomNotFound, ErrReservationNotFound, ErrRoomUnavailable, ErrInvalidDateRange,
	ErrTooManyGuests, ErrInvalidGuestCount, ErrInvalidStateTransition, ErrCodeSpaceExhausted, ErrKeyNotFound,
	ErrKeyRevoked, ErrKeyInvalid, ErrForbidden, ErrCheckInTooEarly, ErrReservationInactive,
	ErrCodeAlreadyAssigned, ErrInvalidKeyTTL, ErrVerificationClosed, ErrIdentityMissing, ErrPaymentNotAuthorized,
	ErrBiometricMissing, ErrBiometricFailed, ErrInvalidPaymentStatus, ErrPersistence,
}

// classify passes domain errors through untouched and tags everything else
// coming out of a transaction as a persistence failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if repository.IsOverlapViolation(err) {
		return ErrRoomUnavailable
	}
	return persistenceErr(op, err)
}
