package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

var (
	conflictErrors = []error{service.ErrRoomUnavailable, service.ErrCodeAlreadyAssigned, service.ErrAlreadyCheckedIn}
	notFoundErrors = []error{service.ErrReservationNotFound, service.ErrRoomNotFound, service.ErrKeyNotFound}
	forbidErrors   = []error{service.ErrForbidden, service.ErrKeyRevoked, service.ErrKeyInvalid}
	badRequest     = []error{
		service.ErrInvalidStateTransition, service.ErrInvalidDateRange, service.ErrTooManyGuests,
		service.ErrInvalidGuestCount, service.ErrCheckInTooEarly, service.ErrReservationInactive,
		service.ErrVerificationClosed, service.ErrInvalidKeyTTL, service.ErrIdentityMissing,
		service.ErrPaymentNotAuthorized, service.ErrBiometricMissing, service.ErrBiometricFailed,
		service.ErrInvalidPaymentStatus,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// httpError maps service errors onto status codes. Domain messages are
// shown to the client; storage details stay in the log.
func httpError(err error) error {
	switch {
	case isAny(err, conflictErrors):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case isAny(err, notFoundErrors):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case isAny(err, forbidErrors):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case isAny(err, badRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPersistence), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage temporarily unavailable, please retry").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
