package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"smartmoney-lab/internal/domain"
	"smartmoney-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
// The published snapshot for a chain is swapped wholesale under a lock, so
// readers see the old or the new row set, never a mixture.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.WalletRow

	// Now allows tests to pin the creation timestamp.
	Now func() time.Time
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.WalletRow),
		Now:  time.Now,
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// ReplaceSnapshot atomically replaces the published rows for a chain.
func (s *SnapshotStore) ReplaceSnapshot(_ context.Context, chain string, rows []*domain.WalletRow, nativePrice float64) (int, error) {
	if chain == "" {
		return 0, storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return 0, nil
	}

	createdAt := s.Now()

	stored := make([]*domain.WalletRow, len(rows))
	for i, r := range rows {
		rowCopy := *r
		rowCopy.ID = int64(i + 1)
		rowCopy.Chain = chain
		rowCopy.RealizedPnLUSD7d = rowCopy.RealizedPnLNative7d * nativePrice
		rowCopy.RealizedPnLUSD30d = rowCopy.RealizedPnLNative30d * nativePrice
		rowCopy.NativePriceUSD = nativePrice
		rowCopy.CreatedAt = createdAt
		stored[i] = &rowCopy
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[chain] = stored

	return len(stored), nil
}

// Count returns the number of published rows for a chain.
func (s *SnapshotStore) Count(_ context.Context, chain string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data[chain])), nil
}

// TopByPnL returns up to limit published rows for a chain, ordered by
// descending 30-day USD PnL.
func (s *SnapshotStore) TopByPnL(_ context.Context, chain string, limit int) ([]*domain.WalletRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*domain.WalletRow, len(s.data[chain]))
	for i, r := range s.data[chain] {
		rowCopy := *r
		rows[i] = &rowCopy
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RealizedPnLUSD30d != rows[j].RealizedPnLUSD30d {
			return rows[i].RealizedPnLUSD30d > rows[j].RealizedPnLUSD30d
		}
		return rows[i].Wallet < rows[j].Wallet
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
