package handler

import (
	"net/http"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/dto"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/middleware"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type RoomHandler struct {
	svc service.RoomService
}

func NewRoomHandler(svc service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

func (h *RoomHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	rooms := e.Group("/api/v1/rooms")
	rooms.GET("/search", h.Search)
	rooms.GET("/:id", h.Get)
	rooms.GET("/:id/availability", h.Availability)
	rooms.POST("", h.Create, auth, middleware.RequirePrivileged)
}

func (h *RoomHandler) Search(c echo.Context) error {
	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	offers, err := h.svc.Search(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	resp := make([]dto.RoomOfferResponse, len(offers))
	for i, o := range offers {
		resp[i] = dto.ToRoomOfferResponse(o)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RoomHandler) Get(c echo.Context) error {
	room, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToRoomResponse(room))
}

func (h *RoomHandler) Availability(c echo.Context) error {
	checkIn, err := dto.ParseDate(c.QueryParam("check_in"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "check_in must be a date in 2006-01-02 format")
	}
	checkOut, err := dto.ParseDate(c.QueryParam("check_out"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "check_out must be a date in 2006-01-02 format")
	}

	free, err := h.svc.Availability(c.Request().Context(), c.Param("id"), checkIn, checkOut)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": free})
}

func (h *RoomHandler) Create(c echo.Context) error {
	var req dto.CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	room := &models.Room{
		Number:         req.Number,
		Type:           models.RoomType(req.Type),
		MaxGuests:      req.MaxGuests,
		BasePriceCents: req.BasePriceCents,
	}
	if err := h.svc.Create(c.Request().Context(), middleware.ActorFrom(c), room); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToRoomResponse(room))
}
