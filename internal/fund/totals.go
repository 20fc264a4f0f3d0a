package fund

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
)

// Totals aggregates the roster's metrics.
type Totals struct {
	CurrentValue  decimal.Decimal `json:"currentValue"`
	Gains         decimal.Decimal `json:"gains"`
	Commission    decimal.Decimal `json:"commission"`
	InvestorCount int             `json:"investorCount"`
}

// calculateTotals sums rounded per-investor metrics.
func calculateTotals(investors []InvestorView) Totals {
	sum := func(field func(domain.InvestorMetrics) decimal.Decimal) decimal.Decimal {
		return lo.Reduce(investors, func(acc decimal.Decimal, v InvestorView, _ int) decimal.Decimal {
			return acc.Add(field(v.Metrics))
		}, decimal.Zero)
	}
	return Totals{
		CurrentValue:  sum(func(m domain.InvestorMetrics) decimal.Decimal { return m.CurrentValue }),
		Gains:         sum(func(m domain.InvestorMetrics) decimal.Decimal { return m.Gains }),
		Commission:    sum(func(m domain.InvestorMetrics) decimal.Decimal { return m.Commission }),
		InvestorCount: len(investors),
	}
}

// sumByAction totals the validated amounts of one action.
func sumByAction(validated []domain.ValidatedRequest, action domain.Action) decimal.Decimal {
	total := lo.Reduce(validated, func(acc decimal.Decimal, v domain.ValidatedRequest, _ int) decimal.Decimal {
		if v.Action != action {
			return acc
		}
		return acc.Add(v.Amount)
	}, decimal.Zero)
	return domain.RoundToCents(total)
}
