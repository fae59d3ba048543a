package storage

import (
	"context"

	"smartmoney-lab/internal/domain"
)

// SnapshotStore persists and serves the published wallet leaderboard.
// Implementations must guarantee that readers observe either the previous
// snapshot in full or the new snapshot in full, never a mixture and never
// zero rows for a chain that has been refreshed successfully before.
type SnapshotStore interface {
	// ReplaceSnapshot atomically replaces the published rows for a chain.
	// It stamps every row with the native price (and the derived USD
	// figures) and a uniform creation timestamp, then removes all rows
	// from prior runs. An empty row set publishes nothing and returns 0,
	// preserving the last good snapshot.
	ReplaceSnapshot(ctx context.Context, chain string, rows []*domain.WalletRow, nativePrice float64) (int, error)

	// Count returns the number of published rows for a chain.
	Count(ctx context.Context, chain string) (int64, error)

	// TopByPnL returns up to limit published rows for a chain, ordered by
	// descending 30-day USD PnL.
	TopByPnL(ctx context.Context, chain string, limit int) ([]*domain.WalletRow, error)
}
