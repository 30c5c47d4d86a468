package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DigitalKey struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReservationID string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"reservation_id"`
	CurrentToken  string     `gorm:"type:varchar(128);not null;uniqueIndex" json:"current_token"`
	TTLSeconds    int64      `gorm:"not null" json:"ttl_seconds"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	LastRotatedAt time.Time  `gorm:"not null" json:"last_rotated_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (k *DigitalKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

func (k *DigitalKey) TTL() time.Duration {
	return time.Duration(k.TTLSeconds) * time.Second
}

// NeedsRotation is true once now has reached the expiry instant.
func (k *DigitalKey) NeedsRotation(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}
