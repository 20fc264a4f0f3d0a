package pool

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
)

// InvestorNotFoundMessage is the message reported for requests naming an unknown investor.
const InvestorNotFoundMessage = "Investor not found"

// claimTolerance absorbs rounding slack between a displayed commission and a requested amount.
var claimTolerance = decimal.RequireFromString("0.01")

// ValidateReinvestments checks claims against a precomputed snapshot.
// Every request is judged against the same snapshot, so the result does not depend on request order.
// Non-positive amounts are dropped without error. The result is valid only when no request failed;
// applying the validated subset atomically is up to the caller.
func ValidateReinvestments(requests []domain.ReinvestmentRequest, snapshot domain.Snapshot) domain.ValidationResult {
	result := domain.ValidationResult{
		Errors:    []domain.ReinvestmentError{},
		Validated: []domain.ValidatedRequest{},
	}

	for _, r := range requests {
		m, ok := snapshot[r.InvestorID]
		if !ok {
			result.Errors = append(result.Errors, domain.ReinvestmentError{
				InvestorID: r.InvestorID,
				Message:    InvestorNotFoundMessage,
			})
			continue
		}

		available := m.Commission
		amount := available
		if r.Amount != nil {
			amount = *r.Amount
		}

		if amount.GreaterThan(available.Add(claimTolerance)) {
			requested, limit := amount, available
			result.Errors = append(result.Errors, domain.ReinvestmentError{
				InvestorID: r.InvestorID,
				Name:       m.Name,
				Message:    fmt.Sprintf("cannot claim %s, max is %s", amount, available),
				Requested:  &requested,
				Max:        &limit,
			})
			continue
		}

		if !amount.IsPositive() {
			continue
		}

		action := r.Action
		if action == "" {
			action = domain.ActionReinvest
		}
		result.Validated = append(result.Validated, domain.ValidatedRequest{
			InvestorID: r.InvestorID,
			Name:       m.Name,
			Amount:     domain.RoundToCents(decimal.Min(amount, available)),
			Action:     action,
		})
	}

	result.Valid = len(result.Errors) == 0
	return result
}
