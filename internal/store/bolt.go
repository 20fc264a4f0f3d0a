package store

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	bolt "go.etcd.io/bbolt"

	"github.com/mtlprog/poolshare/internal/domain"
)

var (
	poolBucket      = []byte("pool")
	investorsBucket = []byte("investors")
	historyBucket   = []byte("history")
	poolStateKey    = []byte("state")
)

// BoltStore implements Store on a bbolt file. Records are JSON; history keys are
// the bucket sequence in big-endian so cursor order is insertion order.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) the bbolt file and its buckets.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating bolt dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{poolBucket, investorsBucket, historyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx, now: s.now})
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// boltInvestor is the stored investor record. Seq orders investors created in the same instant.
type boltInvestor struct {
	domain.Investor
	Seq uint64 `json:"seq"`
}

type boltTx struct {
	tx  *bolt.Tx
	now func() time.Time
}

func (t *boltTx) LoadPool(_ context.Context) (domain.PoolState, error) {
	var state domain.PoolState
	data := t.tx.Bucket(poolBucket).Get(poolStateKey)
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.PoolState{}, fmt.Errorf("decoding pool state: %w", err)
	}
	return state, nil
}

func (t *boltTx) SavePool(_ context.Context, state domain.PoolState) error {
	return putJSON(t.tx.Bucket(poolBucket), poolStateKey, state)
}

func (t *boltTx) ListInvestors(_ context.Context) ([]domain.Investor, error) {
	var records []boltInvestor
	err := t.tx.Bucket(investorsBucket).ForEach(func(_, v []byte) error {
		var rec boltInvestor
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("decoding investor: %w", err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(records, func(a, b boltInvestor) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	return lo.Map(records, func(rec boltInvestor, _ int) domain.Investor { return rec.Investor }), nil
}

func (t *boltTx) GetInvestor(_ context.Context, id string) (domain.Investor, error) {
	rec, err := t.investor(id)
	if err != nil {
		return domain.Investor{}, err
	}
	return rec.Investor, nil
}

func (t *boltTx) investor(id string) (boltInvestor, error) {
	data := t.tx.Bucket(investorsBucket).Get([]byte(id))
	if len(data) == 0 {
		return boltInvestor{}, ErrNotFound
	}
	var rec boltInvestor
	if err := json.Unmarshal(data, &rec); err != nil {
		return boltInvestor{}, fmt.Errorf("decoding investor %s: %w", id, err)
	}
	return rec, nil
}

func (t *boltTx) InsertInvestor(_ context.Context, inv domain.Investor) (domain.Investor, error) {
	b := t.tx.Bucket(investorsBucket)
	seq, err := b.NextSequence()
	if err != nil {
		return domain.Investor{}, fmt.Errorf("allocating investor sequence: %w", err)
	}
	inv.ID = uuid.NewString()
	inv.CreatedAt = t.now().UTC()
	if err := putJSON(b, []byte(inv.ID), boltInvestor{Investor: inv, Seq: seq}); err != nil {
		return domain.Investor{}, fmt.Errorf("inserting investor %s: %w", inv.Name, err)
	}
	return inv, nil
}

func (t *boltTx) UpdateInvestor(_ context.Context, inv domain.Investor) error {
	existing, err := t.investor(inv.ID)
	if err != nil {
		return err
	}
	inv.CreatedAt = existing.CreatedAt
	return putJSON(t.tx.Bucket(investorsBucket), []byte(inv.ID), boltInvestor{Investor: inv, Seq: existing.Seq})
}

func (t *boltTx) DeleteInvestor(_ context.Context, id string) error {
	b := t.tx.Bucket(investorsBucket)
	if b.Get([]byte(id)) == nil {
		return ErrNotFound
	}
	return b.Delete([]byte(id))
}

func (t *boltTx) AddHistory(_ context.Context, entry domain.HistoryEntry) error {
	b := t.tx.Bucket(historyBucket)
	seq, err := b.NextSequence()
	if err != nil {
		return fmt.Errorf("allocating history id: %w", err)
	}
	entry.ID = int64(seq)
	entry.CreatedAt = t.now().UTC()
	return putJSON(b, sequenceKey(seq), entry)
}

func (t *boltTx) ListHistory(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	c := t.tx.Bucket(historyBucket).Cursor()
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		var e domain.HistoryEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return nil, fmt.Errorf("decoding history entry: %w", err)
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return b.Put(key, data)
}
