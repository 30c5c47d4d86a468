package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/clock"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"gorm.io/gorm"
)

const keyTokenBytes = 32

// KeyManager owns the digital key of each reservation. Keys rotate lazily:
// a read at or after ExpiresAt swaps in a new token under the key row lock.
type KeyManager struct {
	tx           repository.Transactor
	keys         repository.DigitalKeyRepository
	reservations repository.ReservationRepository
	audit        *AuditRecorder
	clock        clock.Clock
	defaultTTL   time.Duration
	log          *slog.Logger
}

func NewKeyManager(
	tx repository.Transactor,
	keys repository.DigitalKeyRepository,
	reservations repository.ReservationRepository,
	audit *AuditRecorder,
	clk clock.Clock,
	defaultTTL time.Duration,
	log *slog.Logger,
) *KeyManager {
	return &KeyManager{
		tx:           tx,
		keys:         keys,
		reservations: reservations,
		audit:        audit,
		clock:        clk,
		defaultTTL:   defaultTTL,
		log:          log,
	}
}

func (m *KeyManager) DefaultTTL() time.Duration {
	return m.defaultTTL
}

// Issue creates the reservation's key, or re-keys an existing one, inside
// the caller's transaction. Any earlier revocation is cleared.
func (m *KeyManager) Issue(ctx context.Context, tx *gorm.DB, reservationID string, ttl time.Duration) (*models.DigitalKey, error) {
	if ttl < time.Second {
		return nil, ErrInvalidKeyTTL
	}
	token, err := newKeyToken()
	if err != nil {
		return nil, err
	}
	now := m.clock.Now()

	key, err := m.keys.FindByReservationForUpdate(ctx, tx, reservationID)
	switch {
	case err == nil:
		key.CurrentToken = token
		key.TTLSeconds = int64(ttl / time.Second)
		key.ExpiresAt = now.Add(ttl)
		key.LastRotatedAt = now
		key.EndedAt = nil
		if err := m.keys.Save(ctx, tx, key); err != nil {
			return nil, err
		}
	case repository.IsNotFound(err):
		key = &models.DigitalKey{
			ReservationID: reservationID,
			CurrentToken:  token,
			TTLSeconds:    int64(ttl / time.Second),
			ExpiresAt:     now.Add(ttl),
			LastRotatedAt: now,
		}
		if err := m.keys.Create(ctx, tx, key); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := m.reservations.SetKeyRevokedAt(ctx, tx, reservationID, nil); err != nil {
		return nil, err
	}
	return key, nil
}

// IssueForReservation is the staff-facing issue operation. It runs its own
// transaction and requires the reservation to be confirmed or checked in.
func (m *KeyManager) IssueForReservation(ctx context.Context, actor Actor, reservationID string, ttl time.Duration) (*models.DigitalKey, error) {
	if !actor.Privileged() {
		return nil, ErrForbidden
	}
	if ttl == 0 {
		ttl = m.defaultTTL
	}

	var key *models.DigitalKey
	err := m.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		reservation, err := m.reservations.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrReservationNotFound
			}
			return err
		}
		if reservation.Status != models.StatusConfirmed && reservation.Status != models.StatusCheckedIn {
			return ErrReservationInactive
		}
		key, err = m.Issue(ctx, tx, reservationID, ttl)
		return err
	})
	if err != nil {
		return nil, classify("issue digital key", err)
	}

	_ = m.audit.Record(ctx, actor.ID, models.ActionDigitalKeyIssued, models.EntityDigitalKey, key.ID, map[string]any{
		"reservation_id": reservationID,
		"ttl_seconds":    key.TTLSeconds,
		"expires_at":     key.ExpiresAt,
	})
	return key, nil
}

// Read returns the current key, rotating it first when it has expired.
// Concurrent readers serialize on the key row, so a single expiry produces
// exactly one rotation and every reader sees the same new token.
func (m *KeyManager) Read(ctx context.Context, actor Actor, reservationID string) (*models.DigitalKey, error) {
	reservation, err := m.reservations.FindByID(ctx, reservationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReservationNotFound
		}
		return nil, persistenceErr("read digital key", err)
	}
	if !actor.CanAccess(reservation.GuestID) {
		return nil, ErrForbidden
	}

	var (
		key      *models.DigitalKey
		oldToken string
		rotated  bool
	)
	err = m.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		k, err := m.keys.FindByReservationForUpdate(ctx, tx, reservationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return m.missingKeyErr(ctx, tx, reservationID)
			}
			return err
		}
		if k.EndedAt != nil {
			return ErrKeyRevoked
		}

		now := m.clock.Now()
		if k.NeedsRotation(now) {
			token, err := newKeyToken()
			if err != nil {
				return err
			}
			oldToken = k.CurrentToken
			k.CurrentToken = token
			k.ExpiresAt = now.Add(k.TTL())
			k.LastRotatedAt = now
			if err := m.keys.Save(ctx, tx, k); err != nil {
				return err
			}
			rotated = true
		}
		key = k
		return nil
	})
	if err != nil {
		return nil, classify("read digital key", err)
	}

	if rotated {
		m.log.Debug("digital key rotated", "reservation_id", reservationID, "key_id", key.ID, "expires_at", key.ExpiresAt)
		_ = m.audit.Record(ctx, actor.ID, models.ActionDigitalKeyRotated, models.EntityDigitalKey, key.ID, map[string]any{
			"reservation_id":   reservationID,
			"old_token_prefix": tokenPrefix(oldToken),
			"new_token_prefix": tokenPrefix(key.CurrentToken),
			"expires_at":       key.ExpiresAt,
		})
	}
	return key, nil
}

// Revoke deletes the key. Later reads report ErrKeyRevoked until a new key
// is issued.
func (m *KeyManager) Revoke(ctx context.Context, actor Actor, reservationID string) error {
	if !actor.Privileged() {
		return ErrForbidden
	}

	var keyID string
	err := m.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := m.reservations.FindByIDForUpdate(ctx, tx, reservationID); err != nil {
			if repository.IsNotFound(err) {
				return ErrReservationNotFound
			}
			return err
		}
		key, err := m.keys.FindByReservationForUpdate(ctx, tx, reservationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrKeyNotFound
			}
			return err
		}
		if err := m.keys.Delete(ctx, tx, key.ID); err != nil {
			return err
		}
		now := m.clock.Now()
		keyID = key.ID
		return m.reservations.SetKeyRevokedAt(ctx, tx, reservationID, &now)
	})
	if err != nil {
		return classify("revoke digital key", err)
	}

	_ = m.audit.Record(ctx, actor.ID, models.ActionDigitalKeyRevoked, models.EntityDigitalKey, keyID, map[string]any{
		"reservation_id": reservationID,
		"revoked_by":     actor.Role,
	})
	return nil
}

// End expires the key at once as part of a cancel or check-out. A missing
// key is not an error.
func (m *KeyManager) End(ctx context.Context, tx *gorm.DB, reservationID string) error {
	return m.keys.EndForReservation(ctx, tx, reservationID, m.clock.Now())
}

// Validate checks a presented token against the live key. Expired tokens
// fail; the holder must read the key again to obtain the rotated one.
func (m *KeyManager) Validate(ctx context.Context, reservationID, token string) error {
	key, err := m.keys.FindByReservation(ctx, reservationID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return persistenceErr("validate digital key", err)
		}
		reservation, err := m.reservations.FindByID(ctx, reservationID)
		switch {
		case repository.IsNotFound(err):
			return ErrReservationNotFound
		case err != nil:
			return persistenceErr("validate digital key", err)
		case reservation.KeyRevokedAt != nil:
			return ErrKeyRevoked
		}
		return ErrKeyNotFound
	}
	if key.EndedAt != nil {
		return ErrKeyRevoked
	}
	if subtle.ConstantTimeCompare([]byte(key.CurrentToken), []byte(token)) != 1 {
		return ErrKeyInvalid
	}
	if key.NeedsRotation(m.clock.Now()) {
		return ErrKeyInvalid
	}
	return nil
}

func (m *KeyManager) missingKeyErr(ctx context.Context, tx *gorm.DB, reservationID string) error {
	reservation, err := m.reservations.FindByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrReservationNotFound
		}
		return err
	}
	if reservation.KeyRevokedAt != nil {
		return ErrKeyRevoked
	}
	return ErrKeyNotFound
}

func newKeyToken() (string, error) {
	b := make([]byte, keyTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
