package fund

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
	"github.com/mtlprog/poolshare/internal/pool"
	"github.com/mtlprog/poolshare/internal/store"
)

// BatchResult reports an applied commission batch.
type BatchResult struct {
	Applied         int                       `json:"applied"`
	TotalReinvested decimal.Decimal           `json:"totalReinvested"`
	TotalWithdrawn  decimal.Decimal           `json:"totalWithdrawn"`
	Snapshot        domain.Snapshot           `json:"snapshot"`
	Details         []domain.ValidatedRequest `json:"details"`
	Pool            domain.PoolState          `json:"pool"`
}

// ApplyCommissions validates every request against one snapshot of the pool and
// applies them all in a single transaction, or none of them.
// Each acting investor's entry ratio is reset to the pool ratio after the whole batch,
// which zeroes their tracked gains so the same gains are never claimed twice.
func (s *Service) ApplyCommissions(ctx context.Context, requests []domain.ReinvestmentRequest) (BatchResult, error) {
	if len(requests) == 0 {
		return BatchResult{}, ErrNothingToApply
	}

	var result BatchResult
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		state, err := tx.LoadPool(ctx)
		if err != nil {
			return err
		}
		investors, err := tx.ListInvestors(ctx)
		if err != nil {
			return err
		}
		snapshot := pool.BatchMetrics(investors, state.TotalCapital, state.InitialCapital)

		if errs := checkRequests(requests); len(errs) > 0 {
			return &ValidationError{Errors: nameErrors(errs, snapshot)}
		}
		validation := pool.ValidateReinvestments(requests, snapshot)
		if !validation.Valid {
			return &ValidationError{Errors: validation.Errors}
		}
		if len(validation.Validated) == 0 {
			return ErrNothingToApply
		}

		next, err := applyClaims(ctx, tx, state, investors, validation.Validated)
		if err != nil {
			return err
		}

		result = BatchResult{
			Applied:         len(validation.Validated),
			TotalReinvested: sumByAction(validation.Validated, domain.ActionReinvest),
			TotalWithdrawn:  sumByAction(validation.Validated, domain.ActionWithdraw),
			Snapshot:        snapshot,
			Details:         validation.Validated,
			Pool:            next,
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("applying commissions: %w", err)
	}

	slog.Info("commission batch applied",
		"applied", result.Applied,
		"reinvested", result.TotalReinvested,
		"withdrawn", result.TotalWithdrawn,
	)
	return result, nil
}

// ApplyCommission claims one investor's commission. An amount above what is
// available is capped to it rather than rejected.
func (s *Service) ApplyCommission(ctx context.Context, req domain.ReinvestmentRequest) (domain.ValidatedRequest, error) {
	if !req.Action.Valid() {
		return domain.ValidatedRequest{}, ErrInvalidAction
	}

	var applied domain.ValidatedRequest
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		state, err := tx.LoadPool(ctx)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvestor(ctx, req.InvestorID)
		if err != nil {
			return err
		}
		investors, err := tx.ListInvestors(ctx)
		if err != nil {
			return err
		}
		snapshot := pool.BatchMetrics(investors, state.TotalCapital, state.InitialCapital)

		if req.Amount != nil {
			capped := decimal.Min(*req.Amount, snapshot[inv.ID].Commission)
			req.Amount = &capped
		}
		validation := pool.ValidateReinvestments([]domain.ReinvestmentRequest{req}, snapshot)
		if len(validation.Validated) == 0 {
			return ErrNoCommission
		}

		applied = validation.Validated[0]
		_, err = applyClaims(ctx, tx, state, investors, validation.Validated)
		return err
	})
	if err != nil {
		return domain.ValidatedRequest{}, fmt.Errorf("applying commission for %s: %w", req.InvestorID, err)
	}

	slog.Info("commission applied", "investor", applied.Name, "action", applied.Action, "amount", applied.Amount)
	return applied, nil
}

// applyClaims moves the pool through every claim, then resets each acting
// investor's entry ratio against the final totals.
func applyClaims(ctx context.Context, tx store.Tx, state domain.PoolState, investors []domain.Investor, claims []domain.ValidatedRequest) (domain.PoolState, error) {
	byID := lo.KeyBy(investors, func(inv domain.Investor) string { return inv.ID })

	for _, c := range claims {
		inv, ok := byID[c.InvestorID]
		if !ok {
			return domain.PoolState{}, fmt.Errorf("claim for %s: %w", c.InvestorID, store.ErrNotFound)
		}

		var entry domain.HistoryEntry
		switch c.Action {
		case domain.ActionWithdraw:
			state = pool.AfterWithdraw(state, c.Amount)
			entry = historyEntry(domain.HistoryCommissionWithdrawn, inv.Name, c.Amount.Neg())
		default:
			state = pool.AfterReinvest(state, c.Amount)
			inv.Capital = inv.Capital.Add(c.Amount)
			entry = historyEntry(domain.HistoryCommissionReinvested, inv.Name, c.Amount)
		}
		byID[c.InvestorID] = inv

		if err := tx.AddHistory(ctx, entry); err != nil {
			return domain.PoolState{}, err
		}
	}

	ratio := pool.EntryRatioAfterCommission(state.TotalCapital, state.InitialCapital)
	for _, id := range lo.Uniq(lo.Map(claims, func(c domain.ValidatedRequest, _ int) string { return c.InvestorID })) {
		inv := byID[id]
		inv.EntryRatio = &ratio
		if err := tx.UpdateInvestor(ctx, inv); err != nil {
			return domain.PoolState{}, err
		}
	}

	if err := tx.SavePool(ctx, state); err != nil {
		return domain.PoolState{}, err
	}
	return state, nil
}

// IsValidation reports whether err is a rejected batch, returning it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
