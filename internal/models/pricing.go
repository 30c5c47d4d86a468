package models

import "math"

type Quote struct {
	Nights           int   `json:"nights"`
	SubtotalCents    int64 `json:"subtotal_cents"`
	TaxCents         int64 `json:"tax_cents"`
	TotalAmountCents int64 `json:"total_amount_cents"`
	DepositHoldCents int64 `json:"deposit_hold_cents"`
}

// PriceStay charges base price per night plus tax; the deposit hold is one night.
func PriceStay(basePriceCents int64, nights int, taxPercent float64) Quote {
	subtotal := basePriceCents * int64(nights)
	tax := int64(math.Round(float64(subtotal) * taxPercent / 100))
	return Quote{
		Nights:           nights,
		SubtotalCents:    subtotal,
		TaxCents:         tax,
		TotalAmountCents: subtotal + tax,
		DepositHoldCents: basePriceCents,
	}
}
