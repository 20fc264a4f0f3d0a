package pool

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
)

// CurrentValue scales capital by the pool performance since the investor's entry ratio.
// A non-positive entryRatio leaves capital unscaled.
func CurrentValue(capital, entryRatio, currentRatio decimal.Decimal) decimal.Decimal {
	if !entryRatio.IsPositive() {
		return capital
	}
	return capital.Mul(currentRatio).Div(entryRatio)
}

// Gains returns currentValue - capital. Negative for a loss.
func Gains(capital, currentValue decimal.Decimal) decimal.Decimal {
	return currentValue.Sub(capital)
}

// Commission returns the fee claimable on gains at the given percentage rate.
// Nothing is claimable on losses. Rates above 100 count as 100.
// A zero or negative rate makes the whole gain claimable: the operator reinvests
// all of their own gains without paying a fee.
func Commission(gains, commissionRate decimal.Decimal) decimal.Decimal {
	if !gains.IsPositive() {
		return decimal.Zero
	}
	rate := decimal.Min(commissionRate, domain.Hundred)
	if !rate.IsPositive() {
		return gains
	}
	return gains.Mul(rate).Div(domain.Hundred)
}
