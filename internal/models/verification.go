package models

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentDeclined   PaymentStatus = "declined"
)

type BiometricStatus string

const (
	BiometricPass         BiometricStatus = "pass"
	BiometricFail         BiometricStatus = "fail"
	BiometricManualReview BiometricStatus = "manual_review"
)

type GuestProfile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReservationID string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"reservation_id"`
	FirstName     string    `gorm:"not null" json:"first_name"`
	LastName      string    `gorm:"not null" json:"last_name"`
	Email         string    `gorm:"not null;index" json:"email"`
	Phone         string    `json:"phone"`
	Country       string    `json:"country"`
	IsBusiness    bool      `gorm:"not null;default:false" json:"is_business"`
	Company       string    `json:"company,omitempty"`
	VAT           string    `json:"vat,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (g *GuestProfile) FullName() string {
	return g.FirstName + " " + g.LastName
}

type IdentityDocument struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReservationID string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"reservation_id"`
	FrontURL      string    `gorm:"not null" json:"front_url"`
	BackURL       string    `json:"back_url,omitempty"`
	Verified      bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PaymentAuth struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	ReservationID   string        `gorm:"type:varchar(36);not null;uniqueIndex" json:"reservation_id"`
	Last4           string        `gorm:"type:varchar(4)" json:"last4"`
	Brand           string        `gorm:"type:varchar(16)" json:"brand"`
	ExpMonth        int           `json:"exp_month"`
	ExpYear         int           `json:"exp_year"`
	AmountHoldCents int64         `gorm:"not null" json:"amount_hold_cents"`
	Status          PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type BiometricCheck struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ReservationID string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"reservation_id"`
	MatchScore    int             `json:"match_score"`
	Status        BiometricStatus `gorm:"type:varchar(20);not null" json:"status"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Verification bundles the artifacts the confirm guard inspects. Nil means not submitted.
type Verification struct {
	Identity  *IdentityDocument
	Payment   *PaymentAuth
	Biometric *BiometricCheck
}
