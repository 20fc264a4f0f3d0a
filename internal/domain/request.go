package domain

import "github.com/shopspring/decimal"

// Action is what happens to a commission claim.
type Action string

const (
	ActionReinvest Action = "reinvest"
	ActionWithdraw Action = "withdraw"
)

// Valid reports whether a is a known action. The empty action is valid and means reinvest.
func (a Action) Valid() bool {
	return a == "" || a == ActionReinvest || a == ActionWithdraw
}

// ReinvestmentRequest is a proposed commission claim. A nil Amount claims the whole commission.
type ReinvestmentRequest struct {
	InvestorID string           `json:"investorId"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Action     Action           `json:"action,omitempty"`
}

// ValidatedRequest is a claim accepted against a snapshot.
type ValidatedRequest struct {
	InvestorID string          `json:"investorId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Action     Action          `json:"action"`
}

// ReinvestmentError describes a rejected claim. Requested and Max are set for over-claims only.
type ReinvestmentError struct {
	InvestorID string           `json:"investorId"`
	Name       string           `json:"name,omitempty"`
	Message    string           `json:"error"`
	Requested  *decimal.Decimal `json:"requested,omitempty"`
	Max        *decimal.Decimal `json:"max,omitempty"`
}

// ValidationResult is the outcome of checking a batch of claims.
type ValidationResult struct {
	Valid     bool                `json:"valid"`
	Errors    []ReinvestmentError `json:"errors"`
	Validated []ValidatedRequest  `json:"validated"`
}
