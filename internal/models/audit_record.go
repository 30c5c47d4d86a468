package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionReservationCreated   = "reservation_created"
	ActionReservationConfirmed = "reservation_confirmed"
	ActionCheckInCompleted     = "check_in_completed"
	ActionCheckOutCompleted    = "check_out_completed"
	ActionReservationCanceled  = "reservation_canceled"
	ActionDigitalKeyIssued     = "digital_key_issued"
	ActionDigitalKeyRotated    = "digital_key_rotated"
	ActionDigitalKeyRevoked    = "digital_key_revoked"
)

const (
	EntityReservation = "reservation"
	EntityDigitalKey  = "digital_key"
)

// AuditRecord is append-only; nothing updates or deletes these rows.
type AuditRecord struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ActorID    string         `gorm:"type:varchar(64);not null;index" json:"actor_id"`
	Action     string         `gorm:"type:varchar(64);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(32);not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(36);not null;index:idx_audit_entity" json:"entity_id"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
