package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/Eursukkul/hotel-booking/reservation-service/pkg/cache"
	"github.com/labstack/echo/v4"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*cache.Response, bool, error)
	Complete(ctx context.Context, key string, resp cache.Response) error
	Release(ctx context.Context, key string) error
}

// Idempotency replays the stored response when a client repeats a write
// with the same Idempotency-Key. Keys are scoped to the caller and route.
// Requests without the header, or a nil store, pass straight through.
func Idempotency(store IdempotencyStore, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if store == nil || key == "" {
				return next(c)
			}
			scoped := ActorFrom(c).ID + ":" + c.Request().Method + ":" + c.Path() + ":" + key
			ctx := c.Request().Context()

			prior, claimed, err := store.Begin(ctx, scoped)
			if err != nil {
				log.Warn("idempotency store unavailable, serving without it", "error", err)
				return next(c)
			}
			if !claimed {
				if prior.Pending {
					return echo.NewHTTPError(http.StatusConflict, "a request with this Idempotency-Key is still in progress")
				}
				c.Response().Header().Set(headerReplayed, "true")
				return c.Blob(prior.Status, prior.ContentType, prior.Body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec

			err = next(c)
			status := c.Response().Status
			if err != nil || !c.Response().Committed || status >= http.StatusInternalServerError {
				if rerr := store.Release(context.WithoutCancel(ctx), scoped); rerr != nil {
					log.Warn("release idempotency key", "error", rerr)
				}
				return err
			}

			if cerr := store.Complete(context.WithoutCancel(ctx), scoped, cache.Response{
				Status:      status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			}); cerr != nil {
				log.Warn("store idempotent response", "error", cerr)
			}
			return nil
		}
	}
}

type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
