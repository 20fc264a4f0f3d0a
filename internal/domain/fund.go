package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode is an investor's standing preference for what happens to claimed commission.
type Mode string

const (
	ModeReinvest Mode = "reinvest"
	ModeWithdraw Mode = "withdraw"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeReinvest || m == ModeWithdraw
}

// PoolState holds the two scalars that describe the shared pool.
// TotalCapital is the current market value of all pooled funds; InitialCapital is the cost basis.
type PoolState struct {
	TotalCapital   decimal.Decimal `json:"totalCapital"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
}

// Investor is a participant with a proportional claim on the pool.
// Capital is the contributed principal, not the current value.
// EntryRatio and CommissionRate are nil when the stored record carries no value.
type Investor struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Capital        decimal.Decimal  `json:"capital"`
	EntryRatio     *decimal.Decimal `json:"entryRatio,omitempty"`
	CommissionRate *decimal.Decimal `json:"commissionRate,omitempty"`
	Mode           Mode             `json:"mode"`
	CreatedAt      time.Time        `json:"createdAt"`
}
