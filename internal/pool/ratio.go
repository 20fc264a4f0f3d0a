// Package pool computes investor valuations, commissions and pool state transitions
// for a shared capital pool. All functions are pure.
package pool

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
)

// EntryRatio returns the performance ratio to stamp on an investor joining now.
// Returns 1 when initialCapital is not positive.
func EntryRatio(totalCapital, initialCapital decimal.Decimal) decimal.Decimal {
	return performanceRatio(totalCapital, initialCapital)
}

// CurrentRatio returns the pool's current performance ratio.
// Returns 1 when initialCapital is not positive.
func CurrentRatio(totalCapital, initialCapital decimal.Decimal) decimal.Decimal {
	return performanceRatio(totalCapital, initialCapital)
}

func performanceRatio(total, initial decimal.Decimal) decimal.Decimal {
	if !initial.IsPositive() {
		return domain.One
	}
	return total.Div(initial)
}
