package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"gorm.io/gorm"
)

const (
	codeSpace              = 1_000_000
	defaultCodeMaxAttempts = 50
)

// CodeGenerator issues six-digit confirmation codes. The store's unique
// index on confirmation_code is the real guard; the existence check here
// only keeps collisions rare.
type CodeGenerator struct {
	reservations repository.ReservationRepository
	maxAttempts  int
	random       io.Reader
}

func NewCodeGenerator(reservations repository.ReservationRepository, maxAttempts int) *CodeGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultCodeMaxAttempts
	}
	return &CodeGenerator{reservations: reservations, maxAttempts: maxAttempts, random: rand.Reader}
}

// Generate returns a code no reservation currently holds.
func (g *CodeGenerator) Generate(ctx context.Context, tx *gorm.DB) (string, error) {
	budget := g.maxAttempts
	return g.draw(ctx, tx, &budget)
}

// Assign stores a fresh code on the reservation, drawing again whenever
// the unique index rejects one that raced in after the pre-check. Every
// draw and every rejected write spends from the same maxAttempts budget.
func (g *CodeGenerator) Assign(ctx context.Context, tx *gorm.DB, reservationID string) (string, error) {
	budget := g.maxAttempts
	for budget > 0 {
		code, err := g.draw(ctx, tx, &budget)
		if err != nil {
			return "", err
		}
		err = g.reservations.AssignCode(ctx, tx, reservationID, code)
		switch {
		case err == nil:
			return code, nil
		case repository.IsDuplicateKey(err):
			continue
		case repository.IsNotFound(err):
			return "", ErrCodeAlreadyAssigned
		default:
			return "", err
		}
	}
	return "", ErrCodeSpaceExhausted
}

// draw picks random codes until one is free, decrementing budget once per
// candidate.
func (g *CodeGenerator) draw(ctx context.Context, tx *gorm.DB, budget *int) (string, error) {
	for *budget > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		*budget--
		code, err := randomCode(g.random)
		if err != nil {
			return "", err
		}
		exists, err := g.reservations.CodeExists(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidCode reports whether s looks like a confirmation code.
func ValidCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
