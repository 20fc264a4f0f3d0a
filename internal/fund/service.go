// Package fund runs pool operations against a store, one transaction per operation.
package fund

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/backup"
	"github.com/mtlprog/poolshare/internal/domain"
	"github.com/mtlprog/poolshare/internal/pool"
	"github.com/mtlprog/poolshare/internal/store"
)

// Options tunes a Service.
type Options struct {
	// DefaultCommissionRate applies to new investors that do not state a rate.
	DefaultCommissionRate decimal.Decimal
	// HistoryLimit caps the history returned with the portfolio.
	HistoryLimit int
}

// Service applies pool operations.
type Service struct {
	store store.Store
	opts  Options
	now   func() time.Time
}

// NewService creates a new fund Service. The store is required.
func NewService(st store.Store, opts Options) *Service {
	if st == nil {
		panic("fund.NewService: store is nil")
	}
	return &Service{store: st, opts: opts, now: time.Now}
}

// InvestorView is an investor with its metrics against the current pool.
type InvestorView struct {
	domain.Investor
	Metrics domain.InvestorMetrics `json:"metrics"`
}

// Portfolio is the full read model of the pool.
type Portfolio struct {
	domain.PoolState
	CurrentRatio decimal.Decimal       `json:"currentRatio"`
	Investors    []InvestorView        `json:"investors"`
	Totals       Totals                `json:"totals"`
	History      []domain.HistoryEntry `json:"history"`
}

// NewInvestor is the input for AddInvestor. A nil CommissionRate takes the default rate;
// an explicit zero is kept. An empty Mode means reinvest.
type NewInvestor struct {
	Name           string           `json:"name"`
	Capital        decimal.Decimal  `json:"capital"`
	CommissionRate *decimal.Decimal `json:"commissionRate,omitempty"`
	Mode           domain.Mode      `json:"mode,omitempty"`
}

// InvestorUpdate changes the present fields only.
type InvestorUpdate struct {
	Mode           *domain.Mode     `json:"mode,omitempty"`
	CommissionRate *decimal.Decimal `json:"commissionRate,omitempty"`
}

// CapitalAdjustment reports a capital correction.
type CapitalAdjustment struct {
	Investor   string          `json:"investor"`
	OldCapital decimal.Decimal `json:"oldCapital"`
	NewCapital decimal.Decimal `json:"newCapital"`
	Diff       decimal.Decimal `json:"capitalDiff"`
}

// TotalUpdate reports a market move.
type TotalUpdate struct {
	OldTotal decimal.Decimal `json:"oldTotal"`
	NewTotal decimal.Decimal `json:"newTotal"`
	Diff     decimal.Decimal `json:"diff"`
}

// Portfolio returns the pool, every investor's metrics and recent history.
func (s *Service) Portfolio(ctx context.Context) (Portfolio, error) {
	var p Portfolio
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		state, err := tx.LoadPool(ctx)
		if err != nil {
			return err
		}
		investors, err := tx.ListInvestors(ctx)
		if err != nil {
			return err
		}
		history, err := tx.ListHistory(ctx, s.opts.HistoryLimit)
		if err != nil {
			return err
		}

		snapshot := pool.BatchMetrics(investors, state.TotalCapital, state.InitialCapital)
		views := lo.Map(investors, func(inv domain.Investor, _ int) InvestorView {
			return InvestorView{Investor: inv, Metrics: snapshot[inv.ID].InvestorMetrics}
		})

		p = Portfolio{
			PoolState:    state,
			CurrentRatio: pool.CurrentRatio(state.TotalCapital, state.InitialCapital),
			Investors:    views,
			Totals:       calculateTotals(views),
			History:      history,
		}
		return nil
	})
	if err != nil {
		return Portfolio{}, fmt.Errorf("loading portfolio: %w", err)
	}
	return p, nil
}

// AddInvestor adds a participant at the current pool ratio.
// It fails with ErrPoolDepleted while the pool holds capital but is valued at zero.
func (s *Service) AddInvestor(ctx context.Context, in NewInvestor) (domain.Investor, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Investor{}, ErrInvalidName
	}
	if !in.Capital.IsPositive() {
		return domain.Investor{}, ErrInvalidAmount
	}
	mode := lo.CoalesceOrEmpty(in.Mode, domain.ModeReinvest)
	if !mode.Valid() {
		return domain.Investor{}, ErrInvalidMode
	}
	rate := clampRate(lo.FromPtrOr(in.CommissionRate, s.opts.DefaultCommissionRate))

	var created domain.Investor
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		state, err := tx.LoadPool(ctx)
		if err != nil {
			return err
		}

		next, entry := pool.AfterAddInvestor(state, in.Capital)
		if !entry.IsPositive() {
			return ErrPoolDepleted
		}
		created, err = tx.InsertInvestor(ctx, domain.Investor{
			Name:           name,
			Capital:        in.Capital,
			EntryRatio:     &entry,
			CommissionRate: &rate,
			Mode:           mode,
		})
		if err != nil {
			return err
		}
		if err := tx.SavePool(ctx, next); err != nil {
			return err
		}
		return tx.AddHistory(ctx, historyEntry(domain.HistoryInvestorAdded, name, in.Capital))
	})
	if err != nil {
		return domain.Investor{}, fmt.Errorf("adding investor %s: %w", name, err)
	}

	slog.Info("investor added", "id", created.ID, "name", name, "capital", in.Capital, "entryRatio", created.EntryRatio)
	return created, nil
}

// UpdateInvestor changes an investor's mode or commission rate. A zero rate is a real update.
func (s *Service) UpdateInvestor(ctx context.Context, id string, upd InvestorUpdate) (domain.Investor, error) {
	if upd.Mode != nil && !upd.Mode.Valid() {
		return domain.Investor{}, ErrInvalidMode
	}

	var inv domain.Investor
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		inv, err = tx.GetInvestor(ctx, id)
		if err != nil {
			return err
		}
		if upd.Mode != nil {
			inv.Mode = *upd.Mode
		}
		if upd.CommissionRate != nil {
			rate := clampRate(*upd.CommissionRate)
			inv.CommissionRate = &rate
		}
		return tx.UpdateInvestor(ctx, inv)
	})
	if err != nil {
		return domain.Investor{}, fmt.Errorf("updating investor %s: %w", id, err)
	}
	return inv, nil
}

// AdjustCapital corrects an investor's recorded capital. The total and the
// investor's entry ratio are unchanged.
func (s *Service) AdjustCapital(ctx context.Context, id string, newCapital decimal.Decimal) (CapitalAdjustment, error) {
	if !newCapital.IsPositive() {
		return CapitalAdjustment{}, ErrInvalidAmount
	}

	var adj CapitalAdjustment
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		state, err := tx.LoadPool(ctx)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvestor(ctx, id)
		if err != nil {
			return err
		}

		next, diff := pool.AfterCapitalAdjustment(state, inv.Capital, newCapital)
		adj = CapitalAdjustment{Investor: inv.Name, OldCapital: inv.Capital, NewCapital: newCapital, Diff: diff}

		inv.Capital = newCapital
		if err := tx.UpdateInvestor(ctx, inv); err != nil {
			return err
		}
		if err := tx.SavePool(ctx, next); err != nil {
			return err
		}
		return tx.AddHistory(ctx, historyEntry(domain.HistoryCapitalAdjusted, inv.Name, diff))
	})
	if err != nil {
		return CapitalAdjustment{}, fmt.Errorf("adjusting capital of %s: %w", id, err)
	}
	return adj, nil
}

// RemoveInvestor takes an investor out of the pool along with their share of the total.
// Other investors keep their entry ratios.
func (s *Service) RemoveInvestor(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		state, err := tx.LoadPool(ctx)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvestor(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteInvestor(ctx, id); err != nil {
			return err
		}
		if err := tx.SavePool(ctx, pool.AfterRemoveInvestor(state, inv.Capital)); err != nil {
			return err
		}
		return tx.AddHistory(ctx, historyEntry(domain.HistoryInvestorRemoved, inv.Name, inv.Capital.Neg()))
	})
	if err != nil {
		return fmt.Errorf("removing investor %s: %w", id, err)
	}

	slog.Info("investor removed", "id", id)
	return nil
}

// UpdateTotal records a new market value for the pool.
func (s *Service) UpdateTotal(ctx context.Context, newTotal decimal.Decimal) (TotalUpdate, error) {
	if newTotal.IsNegative() {
		return TotalUpdate{}, ErrInvalidAmount
	}

	var upd TotalUpdate
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		state, err := tx.LoadPool(ctx)
		if err != nil {
			return err
		}

		diff := newTotal.Sub(state.TotalCapital)
		upd = TotalUpdate{OldTotal: state.TotalCapital, NewTotal: newTotal, Diff: diff}

		state.TotalCapital = newTotal
		if err := tx.SavePool(ctx, state); err != nil {
			return err
		}
		typ := domain.HistoryProfit
		if diff.IsNegative() {
			typ = domain.HistoryLoss
		}
		return tx.AddHistory(ctx, domain.HistoryEntry{Type: typ, Amount: diff})
	})
	if err != nil {
		return TotalUpdate{}, fmt.Errorf("updating total: %w", err)
	}

	slog.Info("pool total updated", "old", upd.OldTotal, "new", upd.NewTotal, "diff", upd.Diff)
	return upd, nil
}

// Backup dumps the whole pool, including all history.
func (s *Service) Backup(ctx context.Context) (backup.Data, error) {
	data := backup.Data{ExportedAt: s.now().UTC()}
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if data.Pool, err = tx.LoadPool(ctx); err != nil {
			return err
		}
		if data.Investors, err = tx.ListInvestors(ctx); err != nil {
			return err
		}
		data.History, err = tx.ListHistory(ctx, 0)
		return err
	})
	if err != nil {
		return backup.Data{}, fmt.Errorf("reading backup data: %w", err)
	}
	return data, nil
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(rate, decimal.Zero), domain.Hundred)
}

func historyEntry(typ domain.HistoryType, investor string, amount decimal.Decimal) domain.HistoryEntry {
	return domain.HistoryEntry{Type: typ, InvestorName: &investor, Amount: amount}
}
