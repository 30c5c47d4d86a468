package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomType string

const (
	RoomStandard RoomType = "Standard"
	RoomDeluxe   RoomType = "Deluxe"
	RoomSuite    RoomType = "Suite"
)

type RoomStatus string

const (
	RoomAvailable RoomStatus = "available"
	RoomOccupied  RoomStatus = "occupied"
)

type Room struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Number         string     `gorm:"type:varchar(16);not null;uniqueIndex" json:"number"`
	Type           RoomType   `gorm:"type:varchar(20);not null;index" json:"type"`
	MaxGuests      int        `gorm:"not null" json:"max_guests"`
	BasePriceCents int64      `gorm:"not null" json:"base_price_cents"`
	Status         RoomStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Amenities lists the features advertised for a room type.
func (t RoomType) Amenities() []string {
	base := []string{"WiFi", "Security"}
	switch t {
	case RoomStandard:
		return append(base, "Coffee")
	case RoomDeluxe:
		return append(base, "Coffee", "Parking")
	case RoomSuite:
		return append(base, "Coffee", "Parking", "Premium")
	}
	return base
}
