package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mtlprog/poolshare/internal/domain"
)

type memoryData struct {
	pool      domain.PoolState
	investors []domain.Investor
	history   []domain.HistoryEntry
	historyID int64
}

func (d memoryData) clone() memoryData {
	d.investors = slices.Clone(d.investors)
	d.history = slices.Clone(d.history)
	return d
}

// MemoryStore keeps everything in process memory. Transactions are serialized.
type MemoryStore struct {
	mu   sync.Mutex
	data memoryData
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(&memoryTx{data: &work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *MemoryStore) Close() error { return nil }

type memoryTx struct {
	data *memoryData
	now  func() time.Time
}

func (t *memoryTx) LoadPool(_ context.Context) (domain.PoolState, error) {
	return t.data.pool, nil
}

func (t *memoryTx) SavePool(_ context.Context, state domain.PoolState) error {
	t.data.pool = state
	return nil
}

func (t *memoryTx) ListInvestors(_ context.Context) ([]domain.Investor, error) {
	return slices.Clone(t.data.investors), nil
}

func (t *memoryTx) GetInvestor(_ context.Context, id string) (domain.Investor, error) {
	inv, ok := lo.Find(t.data.investors, func(i domain.Investor) bool { return i.ID == id })
	if !ok {
		return domain.Investor{}, ErrNotFound
	}
	return inv, nil
}

func (t *memoryTx) InsertInvestor(_ context.Context, inv domain.Investor) (domain.Investor, error) {
	inv.ID = uuid.NewString()
	inv.CreatedAt = t.now().UTC()
	t.data.investors = append(t.data.investors, inv)
	return inv, nil
}

func (t *memoryTx) UpdateInvestor(_ context.Context, inv domain.Investor) error {
	_, idx, ok := lo.FindIndexOf(t.data.investors, func(i domain.Investor) bool { return i.ID == inv.ID })
	if !ok {
		return ErrNotFound
	}
	inv.CreatedAt = t.data.investors[idx].CreatedAt
	t.data.investors[idx] = inv
	return nil
}

func (t *memoryTx) DeleteInvestor(_ context.Context, id string) error {
	_, idx, ok := lo.FindIndexOf(t.data.investors, func(i domain.Investor) bool { return i.ID == id })
	if !ok {
		return ErrNotFound
	}
	t.data.investors = slices.Delete(t.data.investors, idx, idx+1)
	return nil
}

func (t *memoryTx) AddHistory(_ context.Context, entry domain.HistoryEntry) error {
	t.data.historyID++
	entry.ID = t.data.historyID
	entry.CreatedAt = t.now().UTC()
	t.data.history = append(t.data.history, entry)
	return nil
}

// ListHistory returns the newest entries first.
func (t *memoryTx) ListHistory(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	entries := slices.Clone(t.data.history)
	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
