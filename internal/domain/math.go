package domain

import (
	"github.com/shopspring/decimal"
)

const (
	centsPrecision   = 2
	percentPrecision = 2
)

var (
	// One is the neutral ratio.
	One = decimal.NewFromInt(1)
	// Hundred converts between fractions and percentages.
	Hundred = decimal.NewFromInt(100)
)

// RoundToCents rounds a money amount to 2 places, half away from zero.
func RoundToCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(centsPrecision)
}

// RoundToPercent rounds a percentage to 2 places, half away from zero.
func RoundToPercent(d decimal.Decimal) decimal.Decimal {
	return d.Round(percentPrecision)
}
