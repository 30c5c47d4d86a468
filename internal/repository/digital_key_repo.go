package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DigitalKeyRepository interface {
	FindByReservation(ctx context.Context, reservationID string) (*models.DigitalKey, error)
	FindByReservationForUpdate(ctx context.Context, tx *gorm.DB, reservationID string) (*models.DigitalKey, error)
	Create(ctx context.Context, tx *gorm.DB, key *models.DigitalKey) error
	Save(ctx context.Context, tx *gorm.DB, key *models.DigitalKey) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	EndForReservation(ctx context.Context, tx *gorm.DB, reservationID string, at time.Time) error
}

type digitalKeyRepository struct {
	db *gorm.DB
}

func NewDigitalKeyRepository(db *gorm.DB) DigitalKeyRepository {
	return &digitalKeyRepository{db: db}
}

func (r *digitalKeyRepository) FindByReservation(ctx context.Context, reservationID string) (*models.DigitalKey, error) {
	var key models.DigitalKey
	if err := r.db.WithContext(ctx).First(&key, "reservation_id = ?", reservationID).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// FindByReservationForUpdate locks the key row so concurrent readers observe a
// single rotation.
func (r *digitalKeyRepository) FindByReservationForUpdate(ctx context.Context, tx *gorm.DB, reservationID string) (*models.DigitalKey, error) {
	var key models.DigitalKey
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&key, "reservation_id = ?", reservationID).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *digitalKeyRepository) Create(ctx context.Context, tx *gorm.DB, key *models.DigitalKey) error {
	return tx.WithContext(ctx).Create(key).Error
}

func (r *digitalKeyRepository) Save(ctx context.Context, tx *gorm.DB, key *models.DigitalKey) error {
	return tx.WithContext(ctx).
		Model(&models.DigitalKey{}).
		Where("id = ?", key.ID).
		Updates(map[string]interface{}{
			"current_token":   key.CurrentToken,
			"ttl_seconds":     key.TTLSeconds,
			"expires_at":      key.ExpiresAt,
			"last_rotated_at": key.LastRotatedAt,
			"ended_at":        key.EndedAt,
		}).Error
}

func (r *digitalKeyRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return tx.WithContext(ctx).Delete(&models.DigitalKey{}, "id = ?", id).Error
}

// EndForReservation invalidates the key immediately; the row stays for revocation flows.
func (r *digitalKeyRepository) EndForReservation(ctx context.Context, tx *gorm.DB, reservationID string, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.DigitalKey{}).
		Where("reservation_id = ? AND ended_at IS NULL", reservationID).
		Updates(map[string]interface{}{
			"expires_at": at,
			"ended_at":   at,
		}).Error
}
