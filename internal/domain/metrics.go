package domain

import "github.com/shopspring/decimal"

// InvestorMetrics is a point-in-time valuation of one investor against a pool state.
type InvestorMetrics struct {
	CurrentRatio decimal.Decimal `json:"currentRatio"`
	EntryRatio   decimal.Decimal `json:"entryRatio"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	Gains        decimal.Decimal `json:"gains"`
	Commission   decimal.Decimal `json:"commission"`
	Share        decimal.Decimal `json:"share"`
}

// InvestorSnapshot is an InvestorMetrics entry of a batch, carrying display fields.
type InvestorSnapshot struct {
	InvestorMetrics
	Name    string          `json:"name"`
	Capital decimal.Decimal `json:"capital"`
}

// Snapshot maps investor IDs to their metrics, all computed from the same pool state.
type Snapshot map[string]InvestorSnapshot
