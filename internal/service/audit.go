package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/clock"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"gorm.io/datatypes"
)

// AuditRecorder appends audit records after the primary transaction has
// committed. A failed write is retried, then logged; it never undoes the
// state change it describes.
type AuditRecorder struct {
	repo       repository.AuditRepository
	clock      clock.Clock
	maxRetries int
	backoff    time.Duration
	log        *slog.Logger
}

func NewAuditRecorder(repo repository.AuditRepository, clk clock.Clock, maxRetries int, backoff time.Duration, log *slog.Logger) *AuditRecorder {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &AuditRecorder{repo: repo, clock: clk, maxRetries: maxRetries, backoff: backoff, log: log}
}

func (a *AuditRecorder) Record(ctx context.Context, actorID, action, entityType, entityID string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		a.log.Error("audit details not serializable", "action", action, "entity_id", entityID, "error", err)
		payload = nil
	}

	record := &models.AuditRecord{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    datatypes.JSON(payload),
		CreatedAt:  a.clock.Now(),
	}

	// The request context may already be done once the response is written;
	// the audit write still has to land.
	ctx = context.WithoutCancel(ctx)

	for attempt := 0; ; attempt++ {
		err = a.repo.Create(ctx, record)
		if err == nil {
			return nil
		}
		if attempt >= a.maxRetries {
			break
		}
		a.log.Warn("audit write failed, retrying", "action", action, "entity_id", entityID, "attempt", attempt+1, "error", err)
		time.Sleep(a.backoff * time.Duration(attempt+1))
	}

	a.log.Error("audit write dropped", "action", action, "entity_type", entityType, "entity_id", entityID, "actor_id", actorID, "error", err)
	return fmt.Errorf("record %s audit for %s: %w", action, entityID, err)
}
