package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingKeyIdentity  = "verification.identity"
	RoutingKeyPayment   = "verification.payment"
	RoutingKeyBiometric = "verification.biometric"
)

// VerificationResult is the message body published by the external
// verifiers. Only the fields for the routing key's kind are read.
type VerificationResult struct {
	ReservationID string `json:"reservation_id"`

	FrontURL string `json:"front_url,omitempty"`
	BackURL  string `json:"back_url,omitempty"`
	Verified bool   `json:"verified,omitempty"`

	Last4           string               `json:"last4,omitempty"`
	Brand           string               `json:"brand,omitempty"`
	AmountHoldCents int64                `json:"amount_hold_cents,omitempty"`
	Status          models.PaymentStatus `json:"status,omitempty"`

	ImageURL   string `json:"image_url,omitempty"`
	MatchScore int    `json:"match_score,omitempty"`
}

var errUnknownRoutingKey = errors.New("unknown routing key")

type VerificationConsumer struct {
	svc service.VerificationService
	log *slog.Logger
}

func NewVerificationConsumer(svc service.VerificationService, log *slog.Logger) *VerificationConsumer {
	return &VerificationConsumer{svc: svc, log: log}
}

// Start applies verifier results until msgs closes or ctx is done. The
// returned channel closes when the loop has exited.
func (vc *VerificationConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					vc.log.Info("verification channel closed, stopping consumer")
					return
				}
				vc.handleMessage(ctx, msg)
			}
		}
	}()
	return done
}

// handleMessage acks stored results, requeues storage failures and drops
// everything else.
func (vc *VerificationConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var result VerificationResult
	if err := json.Unmarshal(msg.Body, &result); err != nil || result.ReservationID == "" {
		vc.log.Warn("dropping malformed verification message", "routing_key", msg.RoutingKey, "error", err)
		_ = msg.Nack(false, false)
		return
	}
	log := vc.log.With("routing_key", msg.RoutingKey, "reservation_id", result.ReservationID)

	err := vc.apply(ctx, msg.RoutingKey, result)
	switch {
	case err == nil:
		log.Info("verification result applied")
		_ = msg.Ack(false)
	case errors.Is(err, service.ErrPersistence):
		log.Error("verification result not stored, requeueing", "error", err)
		_ = msg.Nack(false, true)
	default:
		log.Warn("verification result rejected", "error", err)
		_ = msg.Nack(false, false)
	}
}

func (vc *VerificationConsumer) apply(ctx context.Context, routingKey string, r VerificationResult) error {
	actor := service.SystemActor
	var err error
	switch routingKey {
	case RoutingKeyIdentity:
		_, err = vc.svc.SubmitIdentity(ctx, actor, r.ReservationID, service.IdentitySubmission{
			FrontURL: r.FrontURL,
			BackURL:  r.BackURL,
			Verified: r.Verified,
		})
	case RoutingKeyPayment:
		_, err = vc.svc.RecordPayment(ctx, actor, r.ReservationID, service.PaymentResult{
			Last4:           r.Last4,
			Brand:           r.Brand,
			AmountHoldCents: r.AmountHoldCents,
			Status:          r.Status,
		})
	case RoutingKeyBiometric:
		_, err = vc.svc.SubmitBiometric(ctx, actor, r.ReservationID, service.BiometricSubmission{
			ImageURL:   r.ImageURL,
			MatchScore: r.MatchScore,
		})
	default:
		err = fmt.Errorf("%w: %s", errUnknownRoutingKey, routingKey)
	}
	return err
}
