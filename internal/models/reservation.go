package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusCanceled   ReservationStatus = "canceled"
)

// ActiveStatuses hold a room's dates. Reservations in these states must not overlap.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCheckedIn, StatusCanceled},
	StatusConfirmed: {StatusCheckedIn, StatusCanceled},
	StatusCheckedIn: {StatusCheckedOut, StatusCanceled},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCanceled:
		return true
	}
	return false
}

func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCanceled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID               string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	GuestID          string            `gorm:"type:varchar(64);not null;index" json:"guest_id"`
	RoomID           string            `gorm:"type:varchar(36);not null;index:idx_reservation_room_dates" json:"room_id"`
	CheckInDate      time.Time         `gorm:"type:date;not null;index:idx_reservation_room_dates" json:"check_in_date"`
	CheckOutDate     time.Time         `gorm:"type:date;not null;index:idx_reservation_room_dates" json:"check_out_date"`
	Guests           int               `gorm:"not null" json:"guests"`
	Status           ReservationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalAmountCents int64             `gorm:"not null" json:"total_amount_cents"`
	DepositHoldCents int64             `gorm:"not null" json:"deposit_hold_cents"`
	ConfirmationCode *string           `gorm:"type:varchar(6);uniqueIndex" json:"confirmation_code,omitempty"`
	KeyRevokedAt     *time.Time        `json:"key_revoked_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	Room         *Room         `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	GuestProfile *GuestProfile `gorm:"foreignKey:ReservationID" json:"guest_profile,omitempty"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Nights counts whole nights in [CheckInDate, CheckOutDate).
func (r *Reservation) Nights() int {
	return NightsBetween(r.CheckInDate, r.CheckOutDate)
}

// Overlaps reports whether [a1,a2) and [b1,b2) share at least one instant.
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NightsBetween(checkIn, checkOut time.Time) int {
	hours := DateOnly(checkOut).Sub(DateOnly(checkIn)).Hours()
	if hours <= 0 {
		return 0
	}
	return int(hours / 24)
}
