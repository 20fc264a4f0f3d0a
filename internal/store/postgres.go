package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/domain"
)

// PgStore implements Store with PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a store on an open connection pool. The schema must already be migrated.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LoadPool(ctx context.Context) (domain.PoolState, error) {
	var state domain.PoolState
	err := t.tx.QueryRow(ctx,
		`SELECT total_capital, initial_capital FROM portfolio WHERE id = 1 FOR UPDATE`,
	).Scan(&state.TotalCapital, &state.InitialCapital)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PoolState{}, nil
		}
		return domain.PoolState{}, fmt.Errorf("loading pool state: %w", err)
	}
	return state, nil
}

func (t *pgTx) SavePool(ctx context.Context, state domain.PoolState) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO portfolio (id, total_capital, initial_capital, updated_at)
		 VALUES (1, $1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET total_capital = $1, initial_capital = $2, updated_at = NOW()`,
		state.TotalCapital, state.InitialCapital)
	if err != nil {
		return fmt.Errorf("saving pool state: %w", err)
	}
	return nil
}

const investorColumns = `id::text, name, capital, entry_ratio, commission_rate, mode, created_at`

func scanInvestor(row pgx.Row) (domain.Investor, error) {
	var (
		inv        domain.Investor
		entryRatio decimal.NullDecimal
		rate       decimal.NullDecimal
		mode       string
	)
	if err := row.Scan(&inv.ID, &inv.Name, &inv.Capital, &entryRatio, &rate, &mode, &inv.CreatedAt); err != nil {
		return domain.Investor{}, err
	}
	inv.EntryRatio = nullToPtr(entryRatio)
	inv.CommissionRate = nullToPtr(rate)
	inv.Mode = domain.Mode(mode)
	return inv, nil
}

func (t *pgTx) ListInvestors(ctx context.Context) ([]domain.Investor, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+investorColumns+` FROM investors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing investors: %w", err)
	}
	defer rows.Close()

	var investors []domain.Investor
	for rows.Next() {
		inv, err := scanInvestor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning investor: %w", err)
		}
		investors = append(investors, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating investors: %w", err)
	}
	return investors, nil
}

func (t *pgTx) GetInvestor(ctx context.Context, id string) (domain.Investor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Investor{}, ErrNotFound
	}
	inv, err := scanInvestor(t.tx.QueryRow(ctx,
		`SELECT `+investorColumns+` FROM investors WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Investor{}, ErrNotFound
		}
		return domain.Investor{}, fmt.Errorf("getting investor %s: %w", id, err)
	}
	return inv, nil
}

func (t *pgTx) InsertInvestor(ctx context.Context, inv domain.Investor) (domain.Investor, error) {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO investors (name, capital, entry_ratio, commission_rate, mode)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id::text, created_at`,
		inv.Name, inv.Capital, ptrToNull(inv.EntryRatio), ptrToNull(inv.CommissionRate), string(inv.Mode),
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return domain.Investor{}, fmt.Errorf("inserting investor %s: %w", inv.Name, err)
	}
	return inv, nil
}

func (t *pgTx) UpdateInvestor(ctx context.Context, inv domain.Investor) error {
	if _, err := uuid.Parse(inv.ID); err != nil {
		return ErrNotFound
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE investors SET name = $2, capital = $3, entry_ratio = $4, commission_rate = $5, mode = $6
		 WHERE id = $1`,
		inv.ID, inv.Name, inv.Capital, ptrToNull(inv.EntryRatio), ptrToNull(inv.CommissionRate), string(inv.Mode))
	if err != nil {
		return fmt.Errorf("updating investor %s: %w", inv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteInvestor(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM investors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting investor %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) AddHistory(ctx context.Context, entry domain.HistoryEntry) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO history (type, investor_name, amount) VALUES ($1, $2, $3)`,
		string(entry.Type), entry.InvestorName, entry.Amount)
	if err != nil {
		return fmt.Errorf("recording %s history: %w", entry.Type, err)
	}
	return nil
}

func (t *pgTx) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := t.tx.Query(ctx,
		`SELECT id, type, investor_name, amount, created_at
		 FROM history
		 ORDER BY created_at DESC, id DESC
		 LIMIT NULLIF($1::bigint, 0)`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e   domain.HistoryEntry
			typ string
		)
		if err := rows.Scan(&e.ID, &typ, &e.InvestorName, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Type = domain.HistoryType(typ)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

func nullToPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	return &n.Decimal
}

func ptrToNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
