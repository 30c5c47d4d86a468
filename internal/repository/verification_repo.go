package repository

import (
	"context"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationRepository interface {
	CreateGuestProfile(ctx context.Context, tx *gorm.DB, profile *models.GuestProfile) error
	FindGuestProfile(ctx context.Context, tx *gorm.DB, reservationID string) (*models.GuestProfile, error)
	UpsertIdentity(ctx context.Context, tx *gorm.DB, doc *models.IdentityDocument) error
	UpsertPayment(ctx context.Context, tx *gorm.DB, auth *models.PaymentAuth) error
	UpsertBiometric(ctx context.Context, tx *gorm.DB, check *models.BiometricCheck) error
	FindVerification(ctx context.Context, tx *gorm.DB, reservationID string) (*models.Verification, error)
	GetDB() *gorm.DB
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *verificationRepository) CreateGuestProfile(ctx context.Context, tx *gorm.DB, profile *models.GuestProfile) error {
	return tx.WithContext(ctx).Create(profile).Error
}

func (r *verificationRepository) FindGuestProfile(ctx context.Context, tx *gorm.DB, reservationID string) (*models.GuestProfile, error) {
	var profile models.GuestProfile
	if err := tx.WithContext(ctx).First(&profile, "reservation_id = ?", reservationID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upserts key on reservation_id: a newer result from the verifier replaces the older one.

func (r *verificationRepository) UpsertIdentity(ctx context.Context, tx *gorm.DB, doc *models.IdentityDocument) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reservation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"front_url", "back_url", "verified", "updated_at"}),
	}).Create(doc).Error
}

func (r *verificationRepository) UpsertPayment(ctx context.Context, tx *gorm.DB, auth *models.PaymentAuth) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reservation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last4", "brand", "exp_month", "exp_year", "amount_hold_cents", "status", "updated_at"}),
	}).Create(auth).Error
}

func (r *verificationRepository) UpsertBiometric(ctx context.Context, tx *gorm.DB, check *models.BiometricCheck) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reservation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"match_score", "status", "image_url", "updated_at"}),
	}).Create(check).Error
}

func (r *verificationRepository) FindVerification(ctx context.Context, tx *gorm.DB, reservationID string) (*models.Verification, error) {
	v := &models.Verification{}
	db := tx.WithContext(ctx)

	var doc models.IdentityDocument
	switch err := db.Where("reservation_id = ?", reservationID).Limit(1).Find(&doc).Error; {
	case err != nil:
		return nil, err
	case doc.ID != 0:
		v.Identity = &doc
	}

	var auth models.PaymentAuth
	switch err := db.Where("reservation_id = ?", reservationID).Limit(1).Find(&auth).Error; {
	case err != nil:
		return nil, err
	case auth.ID != 0:
		v.Payment = &auth
	}

	var check models.BiometricCheck
	switch err := db.Where("reservation_id = ?", reservationID).Limit(1).Find(&check).Error; {
	case err != nil:
		return nil, err
	case check.ID != 0:
		v.Biometric = &check
	}

	return v, nil
}
