package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/clock"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type GuestDetails struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Country    string
	IsBusiness bool
	Company    string
	VAT        string
}

type ReserveInput struct {
	RoomID   string
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
	Guest    GuestDetails
}

// CompleteBookingInput carries everything the one-shot checkout collects.
// Document and selfie URLs are optional; placeholders are stored when empty.
type CompleteBookingInput struct {
	ReserveInput
	Card       CardDetails
	IDFrontURL string
	IDBackURL  string
	SelfieURL  string
}

type BookingResult struct {
	Reservation *models.Reservation
	Key         *models.DigitalKey
}

type ReservationConfig struct {
	KeyTTL                    time.Duration
	TaxPercent                float64
	FreeRoomOnCheckedInCancel bool
}

type ReservationService interface {
	Reserve(ctx context.Context, actor Actor, in ReserveInput) (*models.Reservation, error)
	CompleteBooking(ctx context.Context, actor Actor, in CompleteBookingInput) (*BookingResult, error)
	Confirm(ctx context.Context, actor Actor, reservationID string) (*BookingResult, error)
	CheckIn(ctx context.Context, actor Actor, reservationID string) (*BookingResult, error)
	Cancel(ctx context.Context, actor Actor, reservationID string) (*models.Reservation, error)
	CheckOut(ctx context.Context, actor Actor, reservationID string) (*models.Reservation, error)
	Get(ctx context.Context, actor Actor, reservationID string) (*models.Reservation, error)
	ListForGuest(ctx context.Context, actor Actor, guestID string) ([]models.Reservation, error)
	LookupByCode(ctx context.Context, code, email string) (*models.Reservation, error)
	CheckInLookup(ctx context.Context, reservationID, email string) (*models.Reservation, error)
}

type ReservationDeps struct {
	Tx            repository.Transactor
	Rooms         repository.RoomRepository
	Reservations  repository.ReservationRepository
	Verifications repository.VerificationRepository
	Availability  *AvailabilityEngine
	Codes         *CodeGenerator
	Keys          *KeyManager
	Audit         *AuditRecorder
	Notifier      Notifier // nil disables confirmation messages
	Clock         clock.Clock
	Log           *slog.Logger
}

type reservationService struct {
	ReservationDeps
	cfg ReservationConfig
}

func NewReservationService(deps ReservationDeps, cfg ReservationConfig) ReservationService {
	if cfg.KeyTTL == 0 && deps.Keys != nil {
		cfg.KeyTTL = deps.Keys.DefaultTTL()
	}
	return &reservationService{ReservationDeps: deps, cfg: cfg}
}

func (s *reservationService) Reserve(ctx context.Context, actor Actor, in ReserveInput) (*models.Reservation, error) {
	if err := s.normalizeStay(&in); err != nil {
		return nil, err
	}

	var reservation *models.Reservation
	err := s.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.insertLocked(ctx, tx, actor, in, models.StatusPending)
		if err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, classify("reserve", err)
	}

	s.recordTransition(ctx, actor, models.ActionReservationCreated, reservation, "", nil)
	return reservation, nil
}

// CompleteBooking is the fast path: the reservation is written directly as
// confirmed together with its verification artifacts, code and key. A
// declined card aborts the whole booking.
func (s *reservationService) CompleteBooking(ctx context.Context, actor Actor, in CompleteBookingInput) (*BookingResult, error) {
	if err := s.normalizeStay(&in.ReserveInput); err != nil {
		return nil, err
	}

	var (
		reservation *models.Reservation
		key         *models.DigitalKey
	)
	err := s.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.insertLocked(ctx, tx, actor, in.ReserveInput, models.StatusConfirmed)
		if err != nil {
			return err
		}

		auth := authorizeCard(in.Card, r.DepositHoldCents, s.Clock.Now())
		if auth.Status != models.PaymentAuthorized {
			return ErrPaymentNotAuthorized
		}
		auth.ReservationID = r.ID
		if err := s.Verifications.UpsertPayment(ctx, tx, &auth); err != nil {
			return err
		}
		if err := s.Verifications.UpsertIdentity(ctx, tx, &models.IdentityDocument{
			ReservationID: r.ID,
			FrontURL:      orPlaceholder(in.IDFrontURL, "mock://id/front/"+r.ID),
			BackURL:       in.IDBackURL,
			Verified:      true,
		}); err != nil {
			return err
		}
		if err := s.Verifications.UpsertBiometric(ctx, tx, &models.BiometricCheck{
			ReservationID: r.ID,
			MatchScore:    95,
			Status:        models.BiometricPass,
			ImageURL:      orPlaceholder(in.SelfieURL, "mock://selfie/"+r.ID),
		}); err != nil {
			return err
		}

		code, err := s.Codes.Assign(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		r.ConfirmationCode = &code

		key, err = s.Keys.Issue(ctx, tx, r.ID, s.cfg.KeyTTL)
		if err != nil {
			return err
		}
		if err := s.Rooms.UpdateStatus(ctx, tx, r.RoomID, models.RoomOccupied); err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, classify("complete booking", err)
	}

	s.recordTransition(ctx, actor, models.ActionReservationConfirmed, reservation, "", key)
	s.notify(ctx, reservation, key)
	return &BookingResult{Reservation: reservation, Key: key}, nil
}

func (s *reservationService) Confirm(ctx context.Context, actor Actor, reservationID string) (*BookingResult, error) {
	var (
		reservation *models.Reservation
		key         *models.DigitalKey
		previous    models.ReservationStatus
	)
	err := s.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.lockReservation(ctx, tx, actor, reservationID)
		if err != nil {
			return err
		}
		previous = r.Status
		if !r.Status.CanTransitionTo(models.StatusConfirmed) {
			return &TransitionError{From: r.Status, To: models.StatusConfirmed}
		}

		v, err := s.Verifications.FindVerification(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		if err := checkConfirmGuards(v); err != nil {
			return err
		}

		room, err := s.Rooms.FindByIDForUpdate(ctx, tx, r.RoomID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}
		free, err := s.Availability.IsAvailable(ctx, tx, r.RoomID, r.CheckInDate, r.CheckOutDate, r.ID)
		if err != nil {
			return err
		}
		if !free {
			return unavailable(room, r.CheckInDate, r.CheckOutDate)
		}

		code, err := s.Codes.Assign(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		key, err = s.Keys.Issue(ctx, tx, r.ID, s.cfg.KeyTTL)
		if err != nil {
			return err
		}
		if err := s.Reservations.UpdateStatus(ctx, tx, r.ID, models.StatusConfirmed); err != nil {
			return err
		}
		if err := s.Rooms.UpdateStatus(ctx, tx, r.RoomID, models.RoomOccupied); err != nil {
			return err
		}

		r.Status = models.StatusConfirmed
		r.ConfirmationCode = &code
		r.Room = room
		if r.GuestProfile, err = s.Verifications.FindGuestProfile(ctx, tx, r.ID); err != nil && !repository.IsNotFound(err) {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, classify("confirm reservation", err)
	}

	s.recordTransition(ctx, actor, models.ActionReservationConfirmed, reservation, previous, key)
	s.notify(ctx, reservation, key)
	return &BookingResult{Reservation: reservation, Key: key}, nil
}

// CheckIn issues the key on the spot, or re-keys an existing one. Guests
// cannot check themselves in before the check-in date; staff can.
func (s *reservationService) CheckIn(ctx context.Context, actor Actor, reservationID string) (*BookingResult, error) {
	var (
		reservation *models.Reservation
		key         *models.DigitalKey
		previous    models.ReservationStatus
	)
	err := s.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.lockReservation(ctx, tx, actor, reservationID)
		if err != nil {
			return err
		}
		previous = r.Status
		if r.Status == models.StatusCheckedIn {
			return &TransitionError{From: r.Status, To: models.StatusCheckedIn, Reason: ErrAlreadyCheckedIn}
		}
		if !r.Status.CanTransitionTo(models.StatusCheckedIn) {
			return &TransitionError{From: r.Status, To: models.StatusCheckedIn}
		}
		if !actor.Privileged() && r.CheckInDate.After(models.DateOnly(s.Clock.Now())) {
			return ErrCheckInTooEarly
		}

		key, err = s.Keys.Issue(ctx, tx, r.ID, s.cfg.KeyTTL)
		if err != nil {
			return err
		}
		if err := s.Reservations.UpdateStatus(ctx, tx, r.ID, models.StatusCheckedIn); err != nil {
			return err
		}
		if err := s.Rooms.UpdateStatus(ctx, tx, r.RoomID, models.RoomOccupied); err != nil {
			return err
		}
		r.Status = models.StatusCheckedIn
		reservation = r
		return nil
	})
	if err != nil {
		return nil, classify("check in", err)
	}

	s.recordTransition(ctx, actor, models.ActionCheckInCompleted, reservation, previous, key)
	return &BookingResult{Reservation: reservation, Key: key}, nil
}

func (s *reservationService) Cancel(ctx context.Context, actor Actor, reservationID string) (*models.Reservation, error) {
	var (
		reservation *models.Reservation
		previous    models.ReservationStatus
		released    bool
	)
	err := s.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.lockReservation(ctx, tx, actor, reservationID)
		if err != nil {
			return err
		}
		previous = r.Status
		if !r.Status.CanTransitionTo(models.StatusCanceled) {
			return &TransitionError{From: r.Status, To: models.StatusCanceled}
		}

		if err := s.Reservations.UpdateStatus(ctx, tx, r.ID, models.StatusCanceled); err != nil {
			return err
		}
		// A guest who cancels mid-stay still holds the room until staff
		// turn it over, unless the policy says otherwise.
		released = previous != models.StatusCheckedIn || s.cfg.FreeRoomOnCheckedInCancel
		if released {
			if err := s.Rooms.UpdateStatus(ctx, tx, r.RoomID, models.RoomAvailable); err != nil {
				return err
			}
		}
		if err := s.Keys.End(ctx, tx, r.ID); err != nil {
			return err
		}
		r.Status = models.StatusCanceled
		reservation = r
		return nil
	})
	if err != nil {
		return nil, classify("cancel reservation", err)
	}

	s.recordTransition(ctx, actor, models.ActionReservationCanceled, reservation, previous, nil, "room_released", released)
	return reservation, nil
}

func (s *reservationService) CheckOut(ctx context.Context, actor Actor, reservationID string) (*models.Reservation, error) {
	var (
		reservation *models.Reservation
		previous    models.ReservationStatus
	)
	err := s.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.lockReservation(ctx, tx, actor, reservationID)
		if err != nil {
			return err
		}
		previous = r.Status
		if !r.Status.CanTransitionTo(models.StatusCheckedOut) {
			return &TransitionError{From: r.Status, To: models.StatusCheckedOut}
		}

		if err := s.Reservations.UpdateStatus(ctx, tx, r.ID, models.StatusCheckedOut); err != nil {
			return err
		}
		if err := s.Rooms.UpdateStatus(ctx, tx, r.RoomID, models.RoomAvailable); err != nil {
			return err
		}
		if err := s.Keys.End(ctx, tx, r.ID); err != nil {
			return err
		}
		r.Status = models.StatusCheckedOut
		reservation = r
		return nil
	})
	if err != nil {
		return nil, classify("check out", err)
	}

	s.recordTransition(ctx, actor, models.ActionCheckOutCompleted, reservation, previous, nil)
	return reservation, nil
}

func (s *reservationService) Get(ctx context.Context, actor Actor, reservationID string) (*models.Reservation, error) {
	r, err := s.findReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(r.GuestID) {
		return nil, ErrForbidden
	}
	return r, nil
}

func (s *reservationService) ListForGuest(ctx context.Context, actor Actor, guestID string) ([]models.Reservation, error) {
	if !actor.CanAccess(guestID) {
		return nil, ErrForbidden
	}
	reservations, err := s.Reservations.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, persistenceErr("list reservations", err)
	}
	return reservations, nil
}

// LookupByCode finds a reservation from the code in the confirmation email.
// The email must match the guest profile; a mismatch looks like a miss.
func (s *reservationService) LookupByCode(ctx context.Context, code, email string) (*models.Reservation, error) {
	if !ValidCode(code) {
		return nil, ErrReservationNotFound
	}
	r, err := s.Reservations.FindByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReservationNotFound
		}
		return nil, persistenceErr("lookup by code", err)
	}
	if !emailMatches(r, email) {
		return nil, ErrReservationNotFound
	}
	return r, nil
}

// CheckInLookup is the kiosk's entry point: only reservations that can still
// be checked in are visible, and not before their check-in date.
func (s *reservationService) CheckInLookup(ctx context.Context, reservationID, email string) (*models.Reservation, error) {
	r, err := s.findReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !emailMatches(r, email) {
		return nil, ErrReservationNotFound
	}
	if r.Status != models.StatusPending && r.Status != models.StatusConfirmed {
		return nil, ErrReservationNotFound
	}
	if r.CheckInDate.After(models.DateOnly(s.Clock.Now())) {
		return nil, ErrCheckInTooEarly
	}
	return r, nil
}

// insertLocked creates the reservation under the room row lock. The lock is
// held until tx ends, so the overlap check and the insert are atomic with
// respect to every other booking of the room.
func (s *reservationService) insertLocked(ctx context.Context, tx *gorm.DB, actor Actor, in ReserveInput, status models.ReservationStatus) (*models.Reservation, error) {
	room, err := s.Rooms.FindByIDForUpdate(ctx, tx, in.RoomID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if in.Guests > room.MaxGuests {
		return nil, ErrTooManyGuests
	}

	free, err := s.Availability.IsAvailable(ctx, tx, room.ID, in.CheckIn, in.CheckOut, "")
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, unavailable(room, in.CheckIn, in.CheckOut)
	}

	quote := models.PriceStay(room.BasePriceCents, models.NightsBetween(in.CheckIn, in.CheckOut), s.cfg.TaxPercent)
	r := &models.Reservation{
		GuestID:          actor.ID,
		RoomID:           room.ID,
		CheckInDate:      in.CheckIn,
		CheckOutDate:     in.CheckOut,
		Guests:           in.Guests,
		Status:           status,
		TotalAmountCents: quote.TotalAmountCents,
		DepositHoldCents: quote.DepositHoldCents,
	}
	if err := s.Reservations.Create(ctx, tx, r); err != nil {
		if repository.IsOverlapViolation(err) {
			return nil, unavailable(room, in.CheckIn, in.CheckOut)
		}
		return nil, err
	}

	profile := &models.GuestProfile{
		ReservationID: r.ID,
		FirstName:     in.Guest.FirstName,
		LastName:      in.Guest.LastName,
		Email:         strings.ToLower(strings.TrimSpace(in.Guest.Email)),
		Phone:         in.Guest.Phone,
		Country:       in.Guest.Country,
		IsBusiness:    in.Guest.IsBusiness,
		Company:       in.Guest.Company,
		VAT:           in.Guest.VAT,
	}
	if err := s.Verifications.CreateGuestProfile(ctx, tx, profile); err != nil {
		return nil, err
	}

	r.Room = room
	r.GuestProfile = profile
	return r, nil
}

func (s *reservationService) normalizeStay(in *ReserveInput) error {
	in.CheckIn = models.DateOnly(in.CheckIn)
	in.CheckOut = models.DateOnly(in.CheckOut)
	if !in.CheckOut.After(in.CheckIn) {
		return ErrInvalidDateRange
	}
	if in.Guests < 1 {
		return ErrInvalidGuestCount
	}
	return nil
}

func (s *reservationService) lockReservation(ctx context.Context, tx *gorm.DB, actor Actor, id string) (*models.Reservation, error) {
	r, err := s.Reservations.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if !actor.CanAccess(r.GuestID) {
		return nil, ErrForbidden
	}
	return r, nil
}

func (s *reservationService) findReservation(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := s.Reservations.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReservationNotFound
		}
		return nil, persistenceErr("find reservation", err)
	}
	return r, nil
}

// recordTransition writes the single audit record a lifecycle move owes.
// extra is an optional list of key/value pairs merged into the details.
func (s *reservationService) recordTransition(ctx context.Context, actor Actor, action string, r *models.Reservation, previous models.ReservationStatus, key *models.DigitalKey, extra ...any) {
	details := map[string]any{
		"previous_status": nil,
		"new_status":      r.Status,
		"room_id":         r.RoomID,
		"check_in":        r.CheckInDate.Format(dateLayout),
		"check_out":       r.CheckOutDate.Format(dateLayout),
	}
	if previous != "" {
		details["previous_status"] = previous
	}
	if r.ConfirmationCode != nil {
		details["confirmation_code"] = *r.ConfirmationCode
	}
	if key != nil {
		details["key_id"] = key.ID
	}
	for i := 0; i+1 < len(extra); i += 2 {
		if k, ok := extra[i].(string); ok {
			details[k] = extra[i+1]
		}
	}
	_ = s.Audit.Record(ctx, actor.ID, action, models.EntityReservation, r.ID, details)
}

// notify never fails the booking; the guest can still find it by code.
func (s *reservationService) notify(ctx context.Context, r *models.Reservation, key *models.DigitalKey) {
	if s.Notifier == nil {
		return
	}
	if r.GuestProfile == nil || r.ConfirmationCode == nil {
		s.Log.Warn("confirmation message skipped", "reservation_id", r.ID)
		return
	}
	msg := ConfirmationMessage{
		ReservationID:    r.ID,
		Email:            r.GuestProfile.Email,
		GuestName:        r.GuestProfile.FullName(),
		ConfirmationCode: *r.ConfirmationCode,
		CheckIn:          r.CheckInDate,
		CheckOut:         r.CheckOutDate,
	}
	if r.Room != nil {
		msg.RoomNumber = r.Room.Number
	}
	if key != nil {
		msg.KeyToken = key.CurrentToken
		msg.KeyExpiresAt = key.ExpiresAt
	}
	if err := s.Notifier.SendConfirmation(ctx, msg); err != nil {
		s.Log.Error("send confirmation failed", "reservation_id", r.ID, "error", err)
	}
}

// ReadyToConfirm reports whether Confirm's verification guards would pass.
func ReadyToConfirm(v *models.Verification) bool {
	return checkConfirmGuards(v) == nil
}

func checkConfirmGuards(v *models.Verification) error {
	switch {
	case v.Payment == nil || v.Payment.Status != models.PaymentAuthorized:
		return ErrPaymentNotAuthorized
	case v.Identity == nil:
		return ErrIdentityMissing
	case v.Biometric == nil:
		return ErrBiometricMissing
	case v.Biometric.Status == models.BiometricFail:
		return ErrBiometricFailed
	}
	return nil
}

func unavailable(room *models.Room, checkIn, checkOut time.Time) error {
	return &RoomUnavailableError{
		RoomNumber: room.Number,
		CheckIn:    checkIn.Format(dateLayout),
		CheckOut:   checkOut.Format(dateLayout),
	}
}

func emailMatches(r *models.Reservation, email string) bool {
	return r.GuestProfile != nil && strings.EqualFold(strings.TrimSpace(email), r.GuestProfile.Email)
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}
