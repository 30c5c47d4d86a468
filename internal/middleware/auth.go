package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const actorContextKey = "actor"

// Claims are issued by the identity service; this service only verifies them.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth requires a valid HS256 bearer token and stores the caller as a
// service.Actor on the echo context.
func Auth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			actor, err := ParseToken(secret, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}
			c.Set(actorContextKey, actor)
			return next(c)
		}
	}
}

// RequirePrivileged lets only operators and admins through. It must run
// after Auth.
func RequirePrivileged(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !ActorFrom(c).Privileged() {
			return echo.NewHTTPError(http.StatusForbidden, service.ErrForbidden.Error())
		}
		return next(c)
	}
}

// ActorFrom returns the authenticated caller, or the zero Actor.
func ActorFrom(c echo.Context) service.Actor {
	actor, _ := c.Get(actorContextKey).(service.Actor)
	return actor
}

func ParseToken(secret []byte, raw string) (service.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return service.Actor{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return service.Actor{}, errors.New("token has no subject")
	}
	role := claims.Role
	if role == "" {
		role = service.RoleGuest
	}
	return service.Actor{ID: claims.Subject, Role: role}, nil
}

// SignToken mints a token for actor. Used by tests and local tooling.
func SignToken(secret []byte, actor service.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
