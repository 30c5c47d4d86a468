package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/middleware"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

// --- Mock ReservationService ---

type mockReservationService struct {
	reserveFn       func(ctx context.Context, actor service.Actor, in service.ReserveInput) (*models.Reservation, error)
	completeFn      func(ctx context.Context, actor service.Actor, in service.CompleteBookingInput) (*service.BookingResult, error)
	confirmFn       func(ctx context.Context, actor service.Actor, id string) (*service.BookingResult, error)
	checkInFn       func(ctx context.Context, actor service.Actor, id string) (*service.BookingResult, error)
	cancelFn        func(ctx context.Context, actor service.Actor, id string) (*models.Reservation, error)
	checkOutFn      func(ctx context.Context, actor service.Actor, id string) (*models.Reservation, error)
	getFn           func(ctx context.Context, actor service.Actor, id string) (*models.Reservation, error)
	listFn          func(ctx context.Context, actor service.Actor, guestID string) ([]models.Reservation, error)
	lookupFn        func(ctx context.Context, code, email string) (*models.Reservation, error)
	checkInLookupFn func(ctx context.Context, id, email string) (*models.Reservation, error)
}

func (m *mockReservationService) Reserve(ctx context.Context, actor service.Actor, in service.ReserveInput) (*models.Reservation, error) {
	return m.reserveFn(ctx, actor, in)
}
func (m *mockReservationService) CompleteBooking(ctx context.Context, actor service.Actor, in service.CompleteBookingInput) (*service.BookingResult, error) {
	return m.completeFn(ctx, actor, in)
}
func (m *mockReservationService) Confirm(ctx context.Context, actor service.Actor, id string) (*service.BookingResult, error) {
	return m.confirmFn(ctx, actor, id)
}
func (m *mockReservationService) CheckIn(ctx context.Context, actor service.Actor, id string) (*service.BookingResult, error) {
	return m.checkInFn(ctx, actor, id)
}
func (m *mockReservationService) Cancel(ctx context.Context, actor service.Actor, id string) (*models.Reservation, error) {
	return m.cancelFn(ctx, actor, id)
}
func (m *mockReservationService) CheckOut(ctx context.Context, actor service.Actor, id string) (*models.Reservation, error) {
	return m.checkOutFn(ctx, actor, id)
}
func (m *mockReservationService) Get(ctx context.Context, actor service.Actor, id string) (*models.Reservation, error) {
	return m.getFn(ctx, actor, id)
}
func (m *mockReservationService) ListForGuest(ctx context.Context, actor service.Actor, guestID string) ([]models.Reservation, error) {
	return m.listFn(ctx, actor, guestID)
}
func (m *mockReservationService) LookupByCode(ctx context.Context, code, email string) (*models.Reservation, error) {
	return m.lookupFn(ctx, code, email)
}
func (m *mockReservationService) CheckInLookup(ctx context.Context, id, email string) (*models.Reservation, error) {
	return m.checkInLookupFn(ctx, id, email)
}

// --- Mock KeyService ---

type mockKeyService struct {
	readFn     func(ctx context.Context, actor service.Actor, id string) (*models.DigitalKey, error)
	issueFn    func(ctx context.Context, actor service.Actor, id string, ttl time.Duration) (*models.DigitalKey, error)
	revokeFn   func(ctx context.Context, actor service.Actor, id string) error
	validateFn func(ctx context.Context, id, token string) error
}

func (m *mockKeyService) Read(ctx context.Context, actor service.Actor, id string) (*models.DigitalKey, error) {
	return m.readFn(ctx, actor, id)
}
func (m *mockKeyService) IssueForReservation(ctx context.Context, actor service.Actor, id string, ttl time.Duration) (*models.DigitalKey, error) {
	return m.issueFn(ctx, actor, id, ttl)
}
func (m *mockKeyService) Revoke(ctx context.Context, actor service.Actor, id string) error {
	return m.revokeFn(ctx, actor, id)
}
func (m *mockKeyService) Validate(ctx context.Context, id, token string) error {
	return m.validateFn(ctx, id, token)
}

// --- Mock RoomService ---

type mockRoomService struct {
	searchFn       func(ctx context.Context, in service.SearchInput) ([]service.RoomOffer, error)
	availabilityFn func(ctx context.Context, roomID string, in, out time.Time) (bool, error)
	getFn          func(ctx context.Context, roomID string) (*models.Room, error)
	createFn       func(ctx context.Context, actor service.Actor, room *models.Room) error
}

func (m *mockRoomService) Search(ctx context.Context, in service.SearchInput) ([]service.RoomOffer, error) {
	return m.searchFn(ctx, in)
}
func (m *mockRoomService) Availability(ctx context.Context, roomID string, in, out time.Time) (bool, error) {
	return m.availabilityFn(ctx, roomID, in, out)
}
func (m *mockRoomService) Get(ctx context.Context, roomID string) (*models.Room, error) {
	return m.getFn(ctx, roomID)
}
func (m *mockRoomService) Create(ctx context.Context, actor service.Actor, room *models.Room) error {
	return m.createFn(ctx, actor, room)
}

// --- Mock VerificationService ---

type mockVerificationService struct {
	identityFn  func(ctx context.Context, actor service.Actor, id string, in service.IdentitySubmission) (*models.IdentityDocument, error)
	paymentFn   func(ctx context.Context, actor service.Actor, id string, card service.CardDetails) (*models.PaymentAuth, error)
	recordFn    func(ctx context.Context, actor service.Actor, id string, result service.PaymentResult) (*models.PaymentAuth, error)
	biometricFn func(ctx context.Context, actor service.Actor, id string, in service.BiometricSubmission) (*models.BiometricCheck, error)
	statusFn    func(ctx context.Context, actor service.Actor, id string) (*models.Verification, error)
}

func (m *mockVerificationService) SubmitIdentity(ctx context.Context, actor service.Actor, id string, in service.IdentitySubmission) (*models.IdentityDocument, error) {
	return m.identityFn(ctx, actor, id, in)
}
func (m *mockVerificationService) SubmitPayment(ctx context.Context, actor service.Actor, id string, card service.CardDetails) (*models.PaymentAuth, error) {
	return m.paymentFn(ctx, actor, id, card)
}
func (m *mockVerificationService) RecordPayment(ctx context.Context, actor service.Actor, id string, result service.PaymentResult) (*models.PaymentAuth, error) {
	return m.recordFn(ctx, actor, id, result)
}
func (m *mockVerificationService) SubmitBiometric(ctx context.Context, actor service.Actor, id string, in service.BiometricSubmission) (*models.BiometricCheck, error) {
	return m.biometricFn(ctx, actor, id, in)
}
func (m *mockVerificationService) Status(ctx context.Context, actor service.Actor, id string) (*models.Verification, error) {
	return m.statusFn(ctx, actor, id)
}

// --- Helpers ---

var (
	alice    = service.Actor{ID: "guest-alice", Role: service.RoleGuest}
	operator = service.Actor{ID: "staff-1", Role: service.RoleOperator}
)

// newContext builds an echo context the way the router would, with the
// validator installed and actor already authenticated.
func newContext(method, target, body string, actor *service.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = middleware.NewRequestValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set("actor", *actor)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleReservation(status models.ReservationStatus) *models.Reservation {
	return &models.Reservation{
		ID:               "res-1",
		GuestID:          alice.ID,
		RoomID:           "room-101",
		CheckInDate:      date("2024-01-10"),
		CheckOutDate:     date("2024-01-13"),
		Guests:           2,
		Status:           status,
		TotalAmountCents: 32550,
		DepositHoldCents: 10850,
		CreatedAt:        time.Now(),
	}
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func newRequest(method, target string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, target, nil), httptest.NewRecorder()
}
