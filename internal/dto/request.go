package dto

import (
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
)

// Dates arrive as YYYY-MM-DD. Check-out is the morning the guest leaves.
type StayRequest struct {
	RoomID   string `json:"room_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests   int    `json:"guests" validate:"required,gte=1,lte=10"`
}

type GuestDetailsRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,max=32"`
	Country    string `json:"country" validate:"required,max=64"`
	IsBusiness bool   `json:"is_business"`
	Company    string `json:"company" validate:"required_if=IsBusiness true,max=200"`
	VAT        string `json:"vat" validate:"max=64"`
}

type ReserveRequest struct {
	StayRequest
	Guest GuestDetailsRequest `json:"guest" validate:"required"`
}

type CardRequest struct {
	Number   string `json:"number" validate:"required,min=12,max=23"`
	ExpMonth int    `json:"exp_month" validate:"required,gte=1,lte=12"`
	ExpYear  int    `json:"exp_year" validate:"required,gte=2000"`
	CVV      string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

type CompleteBookingRequest struct {
	ReserveRequest
	Payment    CardRequest `json:"payment" validate:"required"`
	IDFrontURL string      `json:"id_front_url" validate:"omitempty,url"`
	IDBackURL  string      `json:"id_back_url" validate:"omitempty,url"`
	SelfieURL  string      `json:"selfie_url" validate:"omitempty,url"`
}

type IdentityRequest struct {
	FrontURL string `json:"front_url" validate:"required,url"`
	BackURL  string `json:"back_url" validate:"omitempty,url"`
	Verified bool   `json:"verified"`
}

type BiometricRequest struct {
	ImageURL   string `json:"image_url" validate:"required,url"`
	MatchScore int    `json:"match_score" validate:"gte=0,lte=100"`
}

type LookupRequest struct {
	Code  string `json:"code" validate:"required,len=6,numeric"`
	Email string `json:"email" validate:"required,email"`
}

type CheckInLookupRequest struct {
	ReservationID string `json:"reservation_id" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
}

type IssueKeyRequest struct {
	TTLSeconds int `json:"ttl_seconds" validate:"omitempty,gte=1,lte=86400"`
}

type ValidateKeyRequest struct {
	Token string `json:"token" validate:"required,hexadecimal"`
}

type SearchRequest struct {
	CheckIn  string `query:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `query:"check_out" validate:"required,datetime=2006-01-02"`
	Guests   int    `query:"guests" validate:"required,gte=1"`
	Type     string `query:"type" validate:"omitempty,oneof=Standard Deluxe Suite"`
}

type CreateRoomRequest struct {
	Number         string `json:"number" validate:"required,max=16"`
	Type           string `json:"type" validate:"required,oneof=Standard Deluxe Suite"`
	MaxGuests      int    `json:"max_guests" validate:"required,gte=1"`
	BasePriceCents int64  `json:"base_price_cents" validate:"required,gt=0"`
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func (r StayRequest) Dates() (time.Time, time.Time, error) {
	checkIn, err := ParseDate(r.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := ParseDate(r.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

func (r ReserveRequest) ToInput() (service.ReserveInput, error) {
	checkIn, checkOut, err := r.Dates()
	if err != nil {
		return service.ReserveInput{}, err
	}
	return service.ReserveInput{
		RoomID:   r.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   r.Guests,
		Guest: service.GuestDetails{
			FirstName:  r.Guest.FirstName,
			LastName:   r.Guest.LastName,
			Email:      r.Guest.Email,
			Phone:      r.Guest.Phone,
			Country:    r.Guest.Country,
			IsBusiness: r.Guest.IsBusiness,
			Company:    r.Guest.Company,
			VAT:        r.Guest.VAT,
		},
	}, nil
}

func (c CardRequest) ToCard() service.CardDetails {
	return service.CardDetails{Number: c.Number, ExpMonth: c.ExpMonth, ExpYear: c.ExpYear, CVV: c.CVV}
}

func (r CompleteBookingRequest) ToInput() (service.CompleteBookingInput, error) {
	in, err := r.ReserveRequest.ToInput()
	if err != nil {
		return service.CompleteBookingInput{}, err
	}
	return service.CompleteBookingInput{
		ReserveInput: in,
		Card:         r.Payment.ToCard(),
		IDFrontURL:   r.IDFrontURL,
		IDBackURL:    r.IDBackURL,
		SelfieURL:    r.SelfieURL,
	}, nil
}

func (r SearchRequest) ToInput() (service.SearchInput, error) {
	checkIn, err := ParseDate(r.CheckIn)
	if err != nil {
		return service.SearchInput{}, err
	}
	checkOut, err := ParseDate(r.CheckOut)
	if err != nil {
		return service.SearchInput{}, err
	}
	return service.SearchInput{CheckIn: checkIn, CheckOut: checkOut, Guests: r.Guests, Type: models.RoomType(r.Type)}, nil
}
