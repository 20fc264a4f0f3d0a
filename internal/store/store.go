package store

import (
	"context"
	"errors"

	"github.com/mtlprog/poolshare/internal/domain"
)

// ErrNotFound indicates that the requested investor does not exist.
var ErrNotFound = errors.New("investor not found")

// Tx is a unit of work against the pool and its roster.
// LoadPool locks the pool state until the transaction ends, so every read that follows
// it sees one consistent snapshot.
type Tx interface {
	LoadPool(ctx context.Context) (domain.PoolState, error)
	SavePool(ctx context.Context, state domain.PoolState) error
	ListInvestors(ctx context.Context) ([]domain.Investor, error)
	GetInvestor(ctx context.Context, id string) (domain.Investor, error)
	InsertInvestor(ctx context.Context, inv domain.Investor) (domain.Investor, error)
	UpdateInvestor(ctx context.Context, inv domain.Investor) error
	DeleteInvestor(ctx context.Context, id string) error
	AddHistory(ctx context.Context, entry domain.HistoryEntry) error
	// ListHistory returns entries newest first. A limit of zero or less returns all of them.
	ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Store runs transactions. Changes made through the Tx are committed only if fn returns nil.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
