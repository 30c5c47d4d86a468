package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error)
	FindByCode(ctx context.Context, code string) (*models.Reservation, error)
	ListByGuest(ctx context.Context, guestID string) ([]models.Reservation, error)
	CountOverlapping(ctx context.Context, tx *gorm.DB, roomID string, checkIn, checkOut time.Time, excludeID string) (int64, error)
	BusyRoomIDs(ctx context.Context, checkIn, checkOut time.Time) ([]string, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ReservationStatus) error
	AssignCode(ctx context.Context, tx *gorm.DB, id, code string) error
	CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	SetKeyRevokedAt(ctx context.Context, tx *gorm.DB, id string, at *time.Time) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("GuestProfile").
		First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByCode(ctx context.Context, code string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("GuestProfile").
		First(&reservation, "confirmation_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) ListByGuest(ctx context.Context, guestID string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Room").
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// CountOverlapping counts active reservations on roomID whose [check_in, check_out)
// intersects the requested range. excludeID, when set, skips that reservation.
func (r *reservationRepository) CountOverlapping(ctx context.Context, tx *gorm.DB, roomID string, checkIn, checkOut time.Time, excludeID string) (int64, error) {
	var count int64
	q := tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ?", roomID, models.ActiveStatuses).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *reservationRepository) BusyRoomIDs(ctx context.Context, checkIn, checkOut time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Distinct("room_id").
		Where("status IN ?", models.ActiveStatuses).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
		Pluck("room_id", &ids).Error
	return ids, err
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ReservationStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// AssignCode sets the confirmation code once. It runs in a savepoint so a
// unique-index rejection leaves tx usable for another attempt. A second
// assignment matches no row and returns gorm.ErrRecordNotFound.
func (r *reservationRepository) AssignCode(ctx context.Context, tx *gorm.DB, id, code string) error {
	return tx.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		res := sp.Model(&models.Reservation{}).
			Where("id = ? AND confirmation_code IS NULL", id).
			Update("confirmation_code", code)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *reservationRepository) CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("confirmation_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *reservationRepository) SetKeyRevokedAt(ctx context.Context, tx *gorm.DB, id string, at *time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("key_revoked_at", at).Error
}
