package fund

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/poolshare/internal/domain"
)

var (
	ErrInvalidName    = errors.New("name is required")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidMode    = errors.New("mode must be reinvest or withdraw")
	ErrInvalidAction  = errors.New("action must be reinvest or withdraw")
	ErrNoCommission   = errors.New("no commission available")
	ErrNothingToApply = errors.New("no valid reinvestments to apply")
	ErrPoolDepleted   = errors.New("pool total is zero, record its current value before adding investors")
)

// ValidationError rejects a whole commission batch. Nothing from the batch was applied.
type ValidationError struct {
	Errors []domain.ReinvestmentError
}

func (e *ValidationError) Error() string {
	msgs := lo.Map(e.Errors, func(re domain.ReinvestmentError, _ int) string {
		return fmt.Sprintf("%s: %s", lo.CoalesceOrEmpty(re.Name, re.InvestorID), re.Message)
	})
	return "invalid commission batch: " + strings.Join(msgs, "; ")
}
