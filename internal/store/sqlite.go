package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mtlprog/poolshare/internal/domain"
)

// SQLiteStore implements Store on a single SQLite file.
// Amounts are stored as TEXT to keep decimal precision; timestamps as unix nanoseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database file and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// Every Tx takes the write lock at BEGIN (_txlock=immediate).
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}

	slog.Info("sqlite store opened", "path", path)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolio (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			total_capital   TEXT    NOT NULL DEFAULT '0',
			initial_capital TEXT    NOT NULL DEFAULT '0',
			updated_at      INTEGER NOT NULL DEFAULT 0
		)`,
		`INSERT OR IGNORE INTO portfolio (id, total_capital, initial_capital) VALUES (1, '0', '0')`,
		`CREATE TABLE IF NOT EXISTS investors (
			id              TEXT    PRIMARY KEY,
			name            TEXT    NOT NULL,
			capital         TEXT    NOT NULL,
			entry_ratio     TEXT,
			commission_rate TEXT,
			mode            TEXT    NOT NULL DEFAULT 'reinvest',
			created_at      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			type          TEXT    NOT NULL,
			investor_name TEXT,
			amount        TEXT    NOT NULL,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&sqliteTx{tx: tx, now: s.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("sqlite rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	tx  *sql.Tx
	now func() time.Time
}

func (t *sqliteTx) LoadPool(ctx context.Context) (domain.PoolState, error) {
	var state domain.PoolState
	err := t.tx.QueryRowContext(ctx,
		`SELECT total_capital, initial_capital FROM portfolio WHERE id = 1`,
	).Scan(&state.TotalCapital, &state.InitialCapital)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PoolState{}, nil
		}
		return domain.PoolState{}, fmt.Errorf("loading pool state: %w", err)
	}
	return state, nil
}

func (t *sqliteTx) SavePool(ctx context.Context, state domain.PoolState) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO portfolio (id, total_capital, initial_capital, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET total_capital = excluded.total_capital,
		 initial_capital = excluded.initial_capital, updated_at = excluded.updated_at`,
		state.TotalCapital.String(), state.InitialCapital.String(), t.now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving pool state: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteInvestor(row rowScanner) (domain.Investor, error) {
	var (
		inv        domain.Investor
		entryRatio decimal.NullDecimal
		rate       decimal.NullDecimal
		mode       string
		createdAt  int64
	)
	if err := row.Scan(&inv.ID, &inv.Name, &inv.Capital, &entryRatio, &rate, &mode, &createdAt); err != nil {
		return domain.Investor{}, err
	}
	inv.EntryRatio = nullToPtr(entryRatio)
	inv.CommissionRate = nullToPtr(rate)
	inv.Mode = domain.Mode(mode)
	inv.CreatedAt = time.Unix(0, createdAt).UTC()
	return inv, nil
}

const sqliteInvestorColumns = `id, name, capital, entry_ratio, commission_rate, mode, created_at`

func (t *sqliteTx) ListInvestors(ctx context.Context) ([]domain.Investor, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+sqliteInvestorColumns+` FROM investors ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing investors: %w", err)
	}
	defer rows.Close()

	var investors []domain.Investor
	for rows.Next() {
		inv, err := scanSQLiteInvestor(rows)
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

func (t *sqliteTx) GetInvestor(ctx context.Context, id string) (domain.Investor, error) {
	inv, err := scanSQLiteInvestor(t.tx.QueryRowContext(ctx,
		`SELECT `+sqliteInvestorColumns+` FROM investors WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Investor{}, ErrNotFound
		}
		return domain.Investor{}, fmt.Errorf("getting investor %s: %w", id, err)
	}
	return inv, nil
}

func (t *sqliteTx) InsertInvestor(ctx context.Context, inv domain.Investor) (domain.Investor, error) {
	inv.ID = uuid.NewString()
	now := t.now().UTC()
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO investors (id, name, capital, entry_ratio, commission_rate, mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Name, inv.Capital.String(), ptrToNull(inv.EntryRatio), ptrToNull(inv.CommissionRate),
		string(inv.Mode), now.UnixNano())
	if err != nil {
		return domain.Investor{}, fmt.Errorf("inserting investor %s: %w", inv.Name, err)
	}
	inv.CreatedAt = time.Unix(0, now.UnixNano()).UTC()
	return inv, nil
}

func (t *sqliteTx) UpdateInvestor(ctx context.Context, inv domain.Investor) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE investors SET name = ?, capital = ?, entry_ratio = ?, commission_rate = ?, mode = ?
		 WHERE id = ?`,
		inv.Name, inv.Capital.String(), ptrToNull(inv.EntryRatio), ptrToNull(inv.CommissionRate),
		string(inv.Mode), inv.ID)
	if err != nil {
		return fmt.Errorf("updating investor %s: %w", inv.ID, err)
	}
	return requireAffected(res)
}

func (t *sqliteTx) DeleteInvestor(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM investors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting investor %s: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *sqliteTx) AddHistory(ctx context.Context, entry domain.HistoryEntry) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO history (type, investor_name, amount, created_at) VALUES (?, ?, ?, ?)`,
		string(entry.Type), entry.InvestorName, entry.Amount.String(), t.now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording %s history: %w", entry.Type, err)
	}
	return nil
}

func (t *sqliteTx) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, type, investor_name, amount, created_at
		 FROM history
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e         domain.HistoryEntry
			typ       string
			name      sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &typ, &name, &e.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Type = domain.HistoryType(typ)
		if name.Valid {
			e.InvestorName = &name.String
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}
