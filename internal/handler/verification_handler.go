package handler

import (
	"net/http"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/dto"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/middleware"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type VerificationHandler struct {
	svc service.VerificationService
}

func NewVerificationHandler(svc service.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/api/v1/reservations/:id", auth)
	g.GET("/verification", h.Status)
	g.POST("/identity", h.SubmitIdentity)
	g.POST("/payment", h.SubmitPayment)
	g.POST("/biometric", h.SubmitBiometric)
}

func (h *VerificationHandler) Status(c echo.Context) error {
	v, err := h.svc.Status(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToVerificationResponse(v))
}

func (h *VerificationHandler) SubmitIdentity(c echo.Context) error {
	var req dto.IdentityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doc, err := h.svc.SubmitIdentity(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), service.IdentitySubmission{
		FrontURL: req.FrontURL,
		BackURL:  req.BackURL,
		Verified: req.Verified,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}

// SubmitPayment answers 201 even for a declined card; the status field
// says which, and Confirm refuses until it reads authorized.
func (h *VerificationHandler) SubmitPayment(c echo.Context) error {
	var req dto.CardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	auth, err := h.svc.SubmitPayment(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), req.ToCard())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, auth)
}

func (h *VerificationHandler) SubmitBiometric(c echo.Context) error {
	var req dto.BiometricRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	check, err := h.svc.SubmitBiometric(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), service.BiometricSubmission{
		ImageURL:   req.ImageURL,
		MatchScore: req.MatchScore,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, check)
}
