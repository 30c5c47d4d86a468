package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/config"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/clock"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/consumer"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/handler"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/middleware"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	"github.com/Eursukkul/hotel-booking/reservation-service/pkg/cache"
	"github.com/Eursukkul/hotel-booking/reservation-service/pkg/database"
	"github.com/Eursukkul/hotel-booking/reservation-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	// Repositories
	tx := repository.NewTransactor(db)
	roomRepo := repository.NewRoomRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	keyRepo := repository.NewDigitalKeyRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Domain components
	clk := clock.Real()
	audit := service.NewAuditRecorder(auditRepo, clk, cfg.AuditMaxRetries, 100*time.Millisecond, log)
	availability := service.NewAvailabilityEngine(reservationRepo)
	codes := service.NewCodeGenerator(reservationRepo, cfg.CodeMaxAttempts)
	keys := service.NewKeyManager(tx, keyRepo, reservationRepo, audit, clk, cfg.KeyTTL, log)

	deps := service.ReservationDeps{
		Tx:            tx,
		Rooms:         roomRepo,
		Reservations:  reservationRepo,
		Verifications: verificationRepo,
		Availability:  availability,
		Codes:         codes,
		Keys:          keys,
		Audit:         audit,
		Clock:         clk,
		Log:           log,
	}

	// RabbitMQ: confirmation messages out, verifier results in. Booking keeps
	// working without the broker.
	verificationSvc := service.NewVerificationService(tx, reservationRepo, verificationRepo, clk)
	var consumerDone <-chan struct{}
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Error("rabbitmq publisher unavailable, confirmation messages disabled", "error", err)
		} else {
			defer publisher.Close()
			deps.Notifier = service.NewBrokerNotifier(publisher)
		}

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
		if err != nil {
			log.Error("rabbitmq consumer unavailable, verifier results accepted over HTTP only", "error", err)
		} else {
			defer mqConsumer.Close()
			msgs, err := mqConsumer.Consume()
			if err != nil {
				log.Error("failed to start consuming", "error", err)
			} else {
				consumerDone = consumer.NewVerificationConsumer(verificationSvc, log).Start(ctx, msgs)
			}
		}
	}

	// Services
	reservationSvc := service.NewReservationService(deps, service.ReservationConfig{
		KeyTTL:                    cfg.KeyTTL,
		TaxPercent:                cfg.TaxPercent,
		FreeRoomOnCheckedInCancel: cfg.FreeRoomOnCheckedInCancel,
	})
	roomSvc := service.NewRoomService(tx, roomRepo, reservationRepo, availability, clk, cfg.TaxPercent, log)

	// Idempotency keys live in Redis when it is configured.
	var idemStore middleware.IdempotencyStore
	if cfg.RedisURL != "" {
		store, err := cache.NewIdempotencyStore(cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			log.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		if err := store.Ping(ctx); err != nil {
			log.Warn("redis not reachable yet", "error", err)
		}
		defer store.Close()
		idemStore = store
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Validator = middleware.NewRequestValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "reservation-service"})
	})

	auth := middleware.Auth([]byte(cfg.JWTSecret))
	idem := middleware.Idempotency(idemStore, log)

	handler.NewRoomHandler(roomSvc).RegisterRoutes(e, auth)
	handler.NewReservationHandler(reservationSvc).RegisterRoutes(e, auth, idem)
	handler.NewVerificationHandler(verificationSvc).RegisterRoutes(e, auth)
	handler.NewKeyHandler(keys).RegisterRoutes(e, auth)

	go func() {
		log.Info("reservation service starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if consumerDone != nil {
		<-consumerDone
	}
}
