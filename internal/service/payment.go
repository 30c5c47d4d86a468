package service

import (
	"strings"
	"time"
	"unicode"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
)

// CardDetails is what the guest enters at checkout. Only the last four
// digits are ever stored.
type CardDetails struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVV      string
}

// authorizeCard stands in for the payment gateway: a hold is authorized
// when the number passes the Luhn check and the card has not expired.
func authorizeCard(card CardDetails, amountCents int64, now time.Time) models.PaymentAuth {
	digits := onlyDigits(card.Number)
	auth := models.PaymentAuth{
		Last4:           last4(digits),
		Brand:           cardBrand(digits),
		ExpMonth:        card.ExpMonth,
		ExpYear:         card.ExpYear,
		AmountHoldCents: amountCents,
		Status:          models.PaymentDeclined,
	}
	if luhnValid(digits) && !cardExpired(card.ExpMonth, card.ExpYear, now) {
		auth.Status = models.PaymentAuthorized
	}
	return auth
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func luhnValid(digits string) bool {
	if len(digits) < 12 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func cardExpired(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return true
	}
	if year < 100 {
		year += 2000
	}
	y, m := now.Year(), int(now.Month())
	return year < y || (year == y && month < m)
}

func cardBrand(digits string) string {
	switch {
	case strings.HasPrefix(digits, "4"):
		return "visa"
	case strings.HasPrefix(digits, "5"):
		return "mastercard"
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "amex"
	case strings.HasPrefix(digits, "6"):
		return "discover"
	}
	return "unknown"
}

func last4(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
