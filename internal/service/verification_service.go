package service

import (
	"context"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/clock"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// Biometric match scores at or above passScore pass outright; between
// reviewScore and passScore they go to a human.
const (
	passScore   = 80
	reviewScore = 50
)

type IdentitySubmission struct {
	FrontURL string
	BackURL  string
	Verified bool // honoured only for privileged actors
}

type BiometricSubmission struct {
	ImageURL   string
	MatchScore int
}

// PaymentResult is a gateway decision relayed by the verifier.
type PaymentResult struct {
	Last4           string
	Brand           string
	AmountHoldCents int64
	Status          models.PaymentStatus
}

// VerificationService collects the artifacts Confirm checks. Artifacts are
// only accepted while the reservation is pending; a later submission for
// the same kind replaces the earlier one.
type VerificationService interface {
	SubmitIdentity(ctx context.Context, actor Actor, reservationID string, in IdentitySubmission) (*models.IdentityDocument, error)
	SubmitPayment(ctx context.Context, actor Actor, reservationID string, card CardDetails) (*models.PaymentAuth, error)
	RecordPayment(ctx context.Context, actor Actor, reservationID string, result PaymentResult) (*models.PaymentAuth, error)
	SubmitBiometric(ctx context.Context, actor Actor, reservationID string, in BiometricSubmission) (*models.BiometricCheck, error)
	Status(ctx context.Context, actor Actor, reservationID string) (*models.Verification, error)
}

type verificationService struct {
	tx            repository.Transactor
	reservations  repository.ReservationRepository
	verifications repository.VerificationRepository
	clock         clock.Clock
}

func NewVerificationService(
	tx repository.Transactor,
	reservations repository.ReservationRepository,
	verifications repository.VerificationRepository,
	clk clock.Clock,
) VerificationService {
	return &verificationService{tx: tx, reservations: reservations, verifications: verifications, clock: clk}
}

func (s *verificationService) SubmitIdentity(ctx context.Context, actor Actor, reservationID string, in IdentitySubmission) (*models.IdentityDocument, error) {
	doc := &models.IdentityDocument{
		ReservationID: reservationID,
		FrontURL:      in.FrontURL,
		BackURL:       in.BackURL,
		Verified:      in.Verified && actor.Privileged(),
	}
	err := s.withPending(ctx, actor, reservationID, func(tx *gorm.DB, _ *models.Reservation) error {
		return s.verifications.UpsertIdentity(ctx, tx, doc)
	})
	if err != nil {
		return nil, classify("submit identity", err)
	}
	return doc, nil
}

// SubmitPayment places the deposit hold on the guest's card.
func (s *verificationService) SubmitPayment(ctx context.Context, actor Actor, reservationID string, card CardDetails) (*models.PaymentAuth, error) {
	var auth models.PaymentAuth
	err := s.withPending(ctx, actor, reservationID, func(tx *gorm.DB, r *models.Reservation) error {
		auth = authorizeCard(card, r.DepositHoldCents, s.clock.Now())
		auth.ReservationID = reservationID
		return s.verifications.UpsertPayment(ctx, tx, &auth)
	})
	if err != nil {
		return nil, classify("submit payment", err)
	}
	return &auth, nil
}

func (s *verificationService) RecordPayment(ctx context.Context, actor Actor, reservationID string, result PaymentResult) (*models.PaymentAuth, error) {
	if !actor.Privileged() {
		return nil, ErrForbidden
	}
	switch result.Status {
	case models.PaymentPending, models.PaymentAuthorized, models.PaymentDeclined:
	default:
		return nil, ErrInvalidPaymentStatus
	}
	auth := &models.PaymentAuth{
		ReservationID:   reservationID,
		Last4:           result.Last4,
		Brand:           result.Brand,
		AmountHoldCents: result.AmountHoldCents,
		Status:          result.Status,
	}
	err := s.withPending(ctx, actor, reservationID, func(tx *gorm.DB, r *models.Reservation) error {
		if auth.AmountHoldCents == 0 {
			auth.AmountHoldCents = r.DepositHoldCents
		}
		return s.verifications.UpsertPayment(ctx, tx, auth)
	})
	if err != nil {
		return nil, classify("record payment", err)
	}
	return auth, nil
}

func (s *verificationService) SubmitBiometric(ctx context.Context, actor Actor, reservationID string, in BiometricSubmission) (*models.BiometricCheck, error) {
	check := &models.BiometricCheck{
		ReservationID: reservationID,
		MatchScore:    in.MatchScore,
		Status:        BiometricStatusFor(in.MatchScore),
		ImageURL:      in.ImageURL,
	}
	err := s.withPending(ctx, actor, reservationID, func(tx *gorm.DB, _ *models.Reservation) error {
		return s.verifications.UpsertBiometric(ctx, tx, check)
	})
	if err != nil {
		return nil, classify("submit biometric", err)
	}
	return check, nil
}

func (s *verificationService) Status(ctx context.Context, actor Actor, reservationID string) (*models.Verification, error) {
	var v *models.Verification
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.reservations.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrReservationNotFound
			}
			return err
		}
		if !actor.CanAccess(r.GuestID) {
			return ErrForbidden
		}
		v, err = s.verifications.FindVerification(ctx, tx, reservationID)
		return err
	})
	if err != nil {
		return nil, classify("verification status", err)
	}
	return v, nil
}

// withPending locks the reservation so a submission cannot race Confirm.
func (s *verificationService) withPending(ctx context.Context, actor Actor, reservationID string, fn func(tx *gorm.DB, r *models.Reservation) error) error {
	return s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		r, err := s.reservations.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrReservationNotFound
			}
			return err
		}
		if !actor.CanAccess(r.GuestID) {
			return ErrForbidden
		}
		if r.Status != models.StatusPending {
			return ErrVerificationClosed
		}
		return fn(tx, r)
	})
}

func BiometricStatusFor(score int) models.BiometricStatus {
	switch {
	case score >= passScore:
		return models.BiometricPass
	case score >= reviewScore:
		return models.BiometricManualReview
	}
	return models.BiometricFail
}
