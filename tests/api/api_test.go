//go:build api

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/middleware"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	serviceURL = getEnv("RESERVATION_SERVICE_URL", "http://localhost:8080")
	jwtSecret  = []byte(getEnv("JWT_SECRET", "dev-secret"))
)

// TestAPI_FullFlow walks one guest through search, booking, key reads,
// lookup, check-in and check-out against a running service.
func TestAPI_FullFlow(t *testing.T) {
	waitForService(t)

	suffix := uuid.NewString()[:6]
	guestActor := service.Actor{ID: "guest-" + suffix, Role: service.RoleGuest}
	guestToken := token(t, guestActor)
	staffToken := token(t, service.Actor{ID: "staff-" + suffix, Role: service.RoleOperator})

	checkIn := time.Now().UTC().Format("2006-01-02")
	checkOut := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")

	var roomID, reservationID, code, firstToken string

	t.Run("Step1_CreateRoom", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/v1/rooms", staffToken, map[string]any{
			"number":           "E2E-" + suffix,
			"type":             "Deluxe",
			"max_guests":       2,
			"base_price_cents": 12999,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var room map[string]any
		decodeJSON(t, resp, &room)
		roomID = room["id"].(string)
		assert.NotEmpty(t, roomID)
	})

	t.Run("Step2_GuestCannotCreateRoom", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/v1/rooms", guestToken, map[string]any{
			"number": "nope", "type": "Suite", "max_guests": 1, "base_price_cents": 1,
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Step3_Availability", func(t *testing.T) {
		resp := do(t, http.MethodGet, fmt.Sprintf("/api/v1/rooms/%s/availability?check_in=%s&check_out=%s", roomID, checkIn, checkOut), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]bool
		decodeJSON(t, resp, &body)
		assert.True(t, body["available"])
	})

	t.Run("Step4_CompleteBooking", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/v1/bookings", guestToken, map[string]any{
			"room_id":   roomID,
			"check_in":  checkIn,
			"check_out": checkOut,
			"guests":    2,
			"guest": map[string]any{
				"first_name": "Alice", "last_name": "Smith", "email": "alice-" + suffix + "@example.com",
				"phone": "+66 81 000 0000", "country": "TH",
			},
			"payment": map[string]any{
				"number": "4242424242424242", "exp_month": 12, "exp_year": time.Now().Year() + 3, "cvv": "123",
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			Reservation struct {
				ID               string `json:"id"`
				Status           string `json:"status"`
				ConfirmationCode string `json:"confirmation_code"`
				TotalAmountCents int64  `json:"total_amount_cents"`
			} `json:"reservation"`
			DigitalKey struct {
				CurrentToken string `json:"current_token"`
			} `json:"digital_key"`
		}
		decodeJSON(t, resp, &body)
		reservationID = body.Reservation.ID
		code = body.Reservation.ConfirmationCode
		firstToken = body.DigitalKey.CurrentToken

		assert.Equal(t, "confirmed", body.Reservation.Status)
		assert.Len(t, code, 6)
		assert.Equal(t, int64(28208), body.Reservation.TotalAmountCents)
		assert.NotEmpty(t, firstToken)
	})

	t.Run("Step5_DoubleBookingRejected", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/v1/reservations", token(t, service.Actor{ID: "guest-bob-" + suffix}), map[string]any{
			"room_id": roomID, "check_in": checkIn, "check_out": checkOut, "guests": 1,
			"guest": map[string]any{
				"first_name": "Bob", "last_name": "Jones", "email": "bob@example.com",
				"phone": "1", "country": "TH",
			},
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("Step6_ReadKey", func(t *testing.T) {
		resp := do(t, http.MethodGet, "/api/v1/reservations/"+reservationID+"/key", guestToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var key map[string]any
		decodeJSON(t, resp, &key)
		assert.NotEmpty(t, key["current_token"])
	})

	t.Run("Step7_LookupByCode", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/v1/lookup", "", map[string]any{
			"code": code, "email": "ALICE-" + suffix + "@example.com",
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, http.MethodPost, "/api/v1/lookup", "", map[string]any{
			"code": code, "email": "mallory@example.com",
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Step8_CheckInAndOut", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/v1/reservations/"+reservationID+"/check-in", guestToken, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, http.MethodPost, "/api/v1/reservations/"+reservationID+"/check-out", staffToken, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, http.MethodGet, "/api/v1/reservations/"+reservationID+"/key", guestToken, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func waitForService(t *testing.T) {
	for i := 0; i < 30; i++ {
		resp, err := http.Get(serviceURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatal("reservation service did not become ready in time")
}

func token(t *testing.T, actor service.Actor) string {
	t.Helper()
	if actor.Role == "" {
		actor.Role = service.RoleGuest
	}
	raw, err := middleware.SignToken(jwtSecret, actor, time.Hour)
	require.NoError(t, err)
	return raw
}

func do(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, serviceURL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
