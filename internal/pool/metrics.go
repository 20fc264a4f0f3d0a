package pool

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
)

// InvestorMetrics values one investor against the pool totals.
// Money and percentages are rounded to cents only here, after all arithmetic.
func InvestorMetrics(inv domain.Investor, totalCapital, initialCapital decimal.Decimal) domain.InvestorMetrics {
	currentRatio := CurrentRatio(totalCapital, initialCapital)
	entryRatio := lo.FromPtrOr(inv.EntryRatio, domain.One)
	rate := lo.FromPtrOr(inv.CommissionRate, decimal.Zero)

	value := CurrentValue(inv.Capital, entryRatio, currentRatio)
	gains := Gains(inv.Capital, value)
	commission := Commission(gains, rate)

	share := decimal.Zero
	if initialCapital.IsPositive() {
		share = inv.Capital.Div(initialCapital).Mul(domain.Hundred)
	}

	return domain.InvestorMetrics{
		CurrentRatio: currentRatio,
		EntryRatio:   entryRatio,
		CurrentValue: domain.RoundToCents(value),
		Gains:        domain.RoundToCents(gains),
		Commission:   domain.RoundToCents(commission),
		Share:        domain.RoundToPercent(share),
	}
}

// BatchMetrics values every investor against the same pool totals.
// Each entry depends only on its own investor and the shared totals.
func BatchMetrics(investors []domain.Investor, totalCapital, initialCapital decimal.Decimal) domain.Snapshot {
	return lo.SliceToMap(investors, func(inv domain.Investor) (string, domain.InvestorSnapshot) {
		return inv.ID, domain.InvestorSnapshot{
			InvestorMetrics: InvestorMetrics(inv, totalCapital, initialCapital),
			Name:            inv.Name,
			Capital:         inv.Capital,
		}
	})
}
