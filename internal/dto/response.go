package dto

import (
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
)

type RoomResponse struct {
	ID             string            `json:"id"`
	Number         string            `json:"number"`
	Type           models.RoomType   `json:"type"`
	MaxGuests      int               `json:"max_guests"`
	BasePriceCents int64             `json:"base_price_cents"`
	Status         models.RoomStatus `json:"status"`
	Amenities      []string          `json:"amenities"`
}

type RoomOfferResponse struct {
	Room  RoomResponse `json:"room"`
	Quote models.Quote `json:"quote"`
}

type GuestResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type ReservationResponse struct {
	ID               string                   `json:"id"`
	GuestID          string                   `json:"guest_id"`
	RoomID           string                   `json:"room_id"`
	RoomNumber       string                   `json:"room_number,omitempty"`
	CheckIn          string                   `json:"check_in"`
	CheckOut         string                   `json:"check_out"`
	Nights           int                      `json:"nights"`
	Guests           int                      `json:"guests"`
	Status           models.ReservationStatus `json:"status"`
	TotalAmountCents int64                    `json:"total_amount_cents"`
	DepositHoldCents int64                    `json:"deposit_hold_cents"`
	ConfirmationCode *string                  `json:"confirmation_code,omitempty"`
	Guest            *GuestResponse           `json:"guest,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

type KeyResponse struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	CurrentToken  string    `json:"current_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	LastRotatedAt time.Time `json:"last_rotated_at"`
	TTLSeconds    int64     `json:"ttl_seconds"`
}

type BookingResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	DigitalKey  *KeyResponse        `json:"digital_key,omitempty"`
}

type VerificationResponse struct {
	Identity  *models.IdentityDocument `json:"identity_document"`
	Payment   *models.PaymentAuth      `json:"payment"`
	Biometric *models.BiometricCheck   `json:"biometric"`
	Ready     bool                     `json:"ready_to_confirm"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToRoomResponse(r *models.Room) RoomResponse {
	return RoomResponse{
		ID:             r.ID,
		Number:         r.Number,
		Type:           r.Type,
		MaxGuests:      r.MaxGuests,
		BasePriceCents: r.BasePriceCents,
		Status:         r.Status,
		Amenities:      r.Type.Amenities(),
	}
}

func ToRoomOfferResponse(o service.RoomOffer) RoomOfferResponse {
	return RoomOfferResponse{Room: ToRoomResponse(&o.Room), Quote: o.Quote}
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:               r.ID,
		GuestID:          r.GuestID,
		RoomID:           r.RoomID,
		CheckIn:          r.CheckInDate.Format("2006-01-02"),
		CheckOut:         r.CheckOutDate.Format("2006-01-02"),
		Nights:           r.Nights(),
		Guests:           r.Guests,
		Status:           r.Status,
		TotalAmountCents: r.TotalAmountCents,
		DepositHoldCents: r.DepositHoldCents,
		ConfirmationCode: r.ConfirmationCode,
		CreatedAt:        r.CreatedAt,
	}
	if r.Room != nil {
		resp.RoomNumber = r.Room.Number
	}
	if r.GuestProfile != nil {
		resp.Guest = &GuestResponse{
			FirstName: r.GuestProfile.FirstName,
			LastName:  r.GuestProfile.LastName,
			Email:     r.GuestProfile.Email,
		}
	}
	return resp
}

func ToKeyResponse(k *models.DigitalKey) *KeyResponse {
	if k == nil {
		return nil
	}
	return &KeyResponse{
		ID:            k.ID,
		ReservationID: k.ReservationID,
		CurrentToken:  k.CurrentToken,
		ExpiresAt:     k.ExpiresAt,
		LastRotatedAt: k.LastRotatedAt,
		TTLSeconds:    k.TTLSeconds,
	}
}

func ToBookingResponse(b *service.BookingResult) BookingResponse {
	return BookingResponse{
		Reservation: ToReservationResponse(b.Reservation),
		DigitalKey:  ToKeyResponse(b.Key),
	}
}

func ToVerificationResponse(v *models.Verification) VerificationResponse {
	return VerificationResponse{
		Identity:  v.Identity,
		Payment:   v.Payment,
		Biometric: v.Biometric,
		Ready:     service.ReadyToConfirm(v),
	}
}
