package repository

import (
	"context"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomFilter struct {
	MinGuests int
	Type      models.RoomType
}

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id string) (*models.Room, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Room, error)
	List(ctx context.Context, filter RoomFilter) ([]models.Room, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.RoomStatus) error
}

type roomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByIDForUpdate locks the room row for the rest of tx. Every booking
// path takes this lock before its overlap check, so concurrent bookings
// for one room run one at a time.
func (r *roomRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Room, error) {
	var room models.Room
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) List(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	var rooms []models.Room
	q := r.db.WithContext(ctx)
	if filter.MinGuests > 0 {
		q = q.Where("max_guests >= ?", filter.MinGuests)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if err := q.Order("number ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.RoomStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", id).
		Update("status", status).Error
}
