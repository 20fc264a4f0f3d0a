package pool

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
)

// AfterAddInvestor returns the pool after a new investor contributes capital, and the entry
// ratio to stamp on that investor. The ratio is taken before the new money dilutes the pool.
func AfterAddInvestor(state domain.PoolState, capital decimal.Decimal) (domain.PoolState, decimal.Decimal) {
	entry := EntryRatio(state.TotalCapital, state.InitialCapital)
	return domain.PoolState{
		TotalCapital:   state.TotalCapital.Add(capital),
		InitialCapital: state.InitialCapital.Add(capital),
	}, entry
}

// AfterReinvest returns the pool after a commission is turned into principal.
// The money never leaves the pool, so only the cost basis grows.
func AfterReinvest(state domain.PoolState, amount decimal.Decimal) domain.PoolState {
	return domain.PoolState{
		TotalCapital:   state.TotalCapital,
		InitialCapital: state.InitialCapital.Add(amount),
	}
}

// AfterWithdraw returns the pool after a commission is paid out of it.
func AfterWithdraw(state domain.PoolState, amount decimal.Decimal) domain.PoolState {
	return domain.PoolState{
		TotalCapital:   state.TotalCapital.Sub(amount),
		InitialCapital: state.InitialCapital,
	}
}

// AfterCapitalAdjustment returns the pool after an investor's recorded capital is corrected,
// and the capital difference. A correction is not new money: the total is unchanged.
func AfterCapitalAdjustment(state domain.PoolState, oldCapital, newCapital decimal.Decimal) (domain.PoolState, decimal.Decimal) {
	diff := newCapital.Sub(oldCapital)
	return domain.PoolState{
		TotalCapital:   state.TotalCapital,
		InitialCapital: state.InitialCapital.Add(diff),
	}, diff
}

// EntryRatioAfterCommission returns the entry ratio of an investor who just claimed commission.
// newInitialCapital is the cost basis after the claim was applied. The result equals the current
// ratio, so the investor's tracked gains restart at zero and cannot be claimed twice.
func EntryRatioAfterCommission(totalCapital, newInitialCapital decimal.Decimal) decimal.Decimal {
	return performanceRatio(totalCapital, newInitialCapital)
}

// AfterRemoveInvestor returns the pool after an investor with the given capital leaves.
// The total shrinks by the investor's proportional share of it, i.e. by their current value
// at the pool ratio. When the cost basis is not positive only the capital is subtracted from it.
func AfterRemoveInvestor(state domain.PoolState, capital decimal.Decimal) domain.PoolState {
	total := state.TotalCapital
	if state.InitialCapital.IsPositive() {
		share := capital.Div(state.InitialCapital)
		total = total.Sub(total.Mul(share))
	}
	return domain.PoolState{
		TotalCapital:   total,
		InitialCapital: state.InitialCapital.Sub(capital),
	}
}
