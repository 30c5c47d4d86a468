package service

import (
	"context"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// AvailabilityEngine answers whether a room is free for [checkIn, checkOut).
// Callers that go on to write must hold the room row lock in tx, otherwise
// two requests can both see the room as free.
type AvailabilityEngine struct {
	reservations repository.ReservationRepository
}

func NewAvailabilityEngine(reservations repository.ReservationRepository) *AvailabilityEngine {
	return &AvailabilityEngine{reservations: reservations}
}

// IsAvailable ignores the reservation named by excludeID, which lets an
// existing booking re-check its own dates.
func (e *AvailabilityEngine) IsAvailable(ctx context.Context, tx *gorm.DB, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	n, err := e.reservations.CountOverlapping(ctx, tx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
