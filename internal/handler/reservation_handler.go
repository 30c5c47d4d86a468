package handler

import (
	"net/http"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/dto"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/middleware"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type ReservationHandler struct {
	svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

// RegisterRoutes mounts the guest-facing booking API. auth guards every
// route except the two email-based lookups; idem wraps the creating POSTs.
func (h *ReservationHandler) RegisterRoutes(e *echo.Echo, auth, idem echo.MiddlewareFunc) {
	api := e.Group("/api/v1")
	api.POST("/lookup", h.LookupByCode)
	api.POST("/check-in/lookup", h.CheckInLookup)

	secured := api.Group("", auth)
	secured.POST("/reservations", h.Reserve, idem)
	secured.POST("/bookings", h.CompleteBooking, idem)
	secured.GET("/reservations", h.ListMine)
	secured.GET("/guests/:guest_id/reservations", h.ListForGuest)

	res := secured.Group("/reservations/:id")
	res.GET("", h.Get)
	res.POST("/confirm", h.Confirm)
	res.POST("/check-in", h.CheckIn)
	res.POST("/check-out", h.CheckOut)
	res.POST("/cancel", h.Cancel)
	res.DELETE("", h.Cancel)
}

func (h *ReservationHandler) Reserve(c echo.Context) error {
	var req dto.ReserveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	reservation, err := h.svc.Reserve(c.Request().Context(), middleware.ActorFrom(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CompleteBooking(c echo.Context) error {
	var req dto.CompleteBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	result, err := h.svc.CompleteBooking(c.Request().Context(), middleware.ActorFrom(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToBookingResponse(result))
}

func (h *ReservationHandler) Get(c echo.Context) error {
	reservation, err := h.svc.Get(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ListMine(c echo.Context) error {
	actor := middleware.ActorFrom(c)
	return h.list(c, actor, actor.ID)
}

func (h *ReservationHandler) ListForGuest(c echo.Context) error {
	return h.list(c, middleware.ActorFrom(c), c.Param("guest_id"))
}

func (h *ReservationHandler) list(c echo.Context, actor service.Actor, guestID string) error {
	reservations, err := h.svc.ListForGuest(c.Request().Context(), actor, guestID)
	if err != nil {
		return httpError(err)
	}
	resp := make([]dto.ReservationResponse, len(reservations))
	for i := range reservations {
		resp[i] = dto.ToReservationResponse(&reservations[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) Confirm(c echo.Context) error {
	result, err := h.svc.Confirm(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(result))
}

func (h *ReservationHandler) CheckIn(c echo.Context) error {
	result, err := h.svc.CheckIn(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(result))
}

func (h *ReservationHandler) CheckOut(c echo.Context) error {
	reservation, err := h.svc.CheckOut(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) Cancel(c echo.Context) error {
	reservation, err := h.svc.Cancel(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) LookupByCode(c echo.Context) error {
	var req dto.LookupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reservation, err := h.svc.LookupByCode(c.Request().Context(), req.Code, req.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CheckInLookup(c echo.Context) error {
	var req dto.CheckInLookupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reservation, err := h.svc.CheckInLookup(c.Request().Context(), req.ReservationID, req.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}
