package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/dto"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/middleware"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

// KeyService is the part of service.KeyManager the HTTP layer uses.
type KeyService interface {
	Read(ctx context.Context, actor service.Actor, reservationID string) (*models.DigitalKey, error)
	IssueForReservation(ctx context.Context, actor service.Actor, reservationID string, ttl time.Duration) (*models.DigitalKey, error)
	Revoke(ctx context.Context, actor service.Actor, reservationID string) error
	Validate(ctx context.Context, reservationID, token string) error
}

type KeyHandler struct {
	keys KeyService
}

func NewKeyHandler(keys KeyService) *KeyHandler {
	return &KeyHandler{keys: keys}
}

func (h *KeyHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.POST("/api/v1/reservations/:id/key/validate", h.Validate)

	key := e.Group("/api/v1/reservations/:id/key", auth)
	key.GET("", h.Read)
	key.POST("", h.Issue, middleware.RequirePrivileged)
	key.DELETE("", h.Revoke, middleware.RequirePrivileged)
}

// Read returns the live key. Clients poll this; an expired key is rotated
// before it is returned.
func (h *KeyHandler) Read(c echo.Context) error {
	key, err := h.keys.Read(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, dto.ToKeyResponse(key))
}

func (h *KeyHandler) Issue(c echo.Context) error {
	var req dto.IssueKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	key, err := h.keys.IssueForReservation(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), ttl)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToKeyResponse(key))
}

func (h *KeyHandler) Revoke(c echo.Context) error {
	if err := h.keys.Revoke(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Validate is called by door controllers, which hold no user token.
func (h *KeyHandler) Validate(c echo.Context) error {
	var req dto.ValidateKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.keys.Validate(c.Request().Context(), c.Param("id"), req.Token); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": true})
}
