package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryType classifies a ledger event.
type HistoryType string

const (
	HistoryInvestorAdded        HistoryType = "investor_added"
	HistoryInvestorRemoved      HistoryType = "investor_removed"
	HistoryCapitalAdjusted      HistoryType = "capital_adjusted"
	HistoryProfit               HistoryType = "profit"
	HistoryLoss                 HistoryType = "loss"
	HistoryCommissionReinvested HistoryType = "commission_reinvested"
	HistoryCommissionWithdrawn  HistoryType = "commission_withdrawn"
)

// HistoryEntry is one recorded pool event. InvestorName is nil for pool-wide events.
type HistoryEntry struct {
	ID           int64           `json:"id"`
	Type         HistoryType     `json:"type"`
	InvestorName *string         `json:"investor,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"date"`
}
