package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"smartmoney-lab/internal/domain"
	"smartmoney-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
//
// The refresh protocol runs in a single transaction: capture a cutover
// timestamp from the database clock, bulk-insert the new rows stamped with
// that timestamp, then delete every row for the chain created before it.
// Readers outside the transaction see the old snapshot in full until
// commit, the new one in full after; a rollback leaves the old snapshot
// untouched.
type SnapshotStore struct {
	pool   *Pool
	logger *log.Logger
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool, logger *log.Logger) *SnapshotStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SnapshotStore{pool: pool, logger: logger}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

var snapshotColumns = []string{
	"chain", "wallet_address",
	"transactions_7d", "buys_7d", "sells_7d", "unique_tokens_7d",
	"realized_pnl_native_7d", "realized_pnl_usd_7d", "winrate_percent_7d",
	"transactions_30d", "buys_30d", "sells_30d", "unique_tokens_30d",
	"realized_pnl_native_30d", "realized_pnl_usd_30d", "winrate_percent_30d",
	"native_price_usd", "created_at",
}

// ReplaceSnapshot atomically replaces the published rows for a chain.
// An empty row set is "nothing to publish": no transaction is started and
// the prior snapshot stays intact.
func (s *SnapshotStore) ReplaceSnapshot(ctx context.Context, chain string, rows []*domain.WalletRow, nativePrice float64) (int, error) {
	if chain == "" {
		return 0, storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		s.logger.Printf("No rows to publish for chain %s, keeping previous snapshot", chain)
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// NOW() is fixed for the transaction, so every inserted row shares the
	// cutover timestamp and survives the delete below.
	var cutover time.Time
	if err := tx.QueryRow(ctx, "SELECT NOW()").Scan(&cutover); err != nil {
		return 0, fmt.Errorf("capture cutover timestamp: %w", err)
	}

	inserted, err := tx.CopyFrom(ctx,
		pgx.Identifier{"wallet_snapshots"},
		snapshotColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				chain, r.Wallet,
				r.Transactions7d, r.Buys7d, r.Sells7d, r.UniqueTokens7d,
				r.RealizedPnLNative7d, r.RealizedPnLNative7d * nativePrice, r.WinRatePercent7d,
				r.Transactions30d, r.Buys30d, r.Sells30d, r.UniqueTokens30d,
				r.RealizedPnLNative30d, r.RealizedPnLNative30d * nativePrice, r.WinRatePercent30d,
				nativePrice, cutover,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot rows: %w", err)
	}
	s.logger.Printf("Inserted %d fresh wallet rows for chain %s", inserted, chain)

	tag, err := tx.Exec(ctx,
		"DELETE FROM wallet_snapshots WHERE chain = $1 AND created_at < $2",
		chain, cutover,
	)
	if err != nil {
		return 0, fmt.Errorf("delete superseded rows: %w", err)
	}
	s.logger.Printf("Deleted %d superseded rows for chain %s", tag.RowsAffected(), chain)

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return len(rows), nil
}

// Count returns the number of published rows for a chain.
func (s *SnapshotStore) Count(ctx context.Context, chain string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM wallet_snapshots WHERE chain = $1", chain,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count snapshot rows: %w", err)
	}
	return count, nil
}

// TopByPnL returns up to limit published rows for a chain, ordered by
// descending 30-day USD PnL.
func (s *SnapshotStore) TopByPnL(ctx context.Context, chain string, limit int) ([]*domain.WalletRow, error) {
	query := `
		SELECT id, chain, wallet_address,
			transactions_7d, buys_7d, sells_7d, unique_tokens_7d,
			realized_pnl_native_7d, realized_pnl_usd_7d, winrate_percent_7d,
			transactions_30d, buys_30d, sells_30d, unique_tokens_30d,
			realized_pnl_native_30d, realized_pnl_usd_30d, winrate_percent_30d,
			native_price_usd, created_at
		FROM wallet_snapshots
		WHERE chain = $1
		ORDER BY realized_pnl_usd_30d DESC, wallet_address ASC
		LIMIT $2
	`

	pgRows, err := s.pool.Query(ctx, query, chain, limit)
	if err != nil {
		return nil, fmt.Errorf("get top wallets: %w", err)
	}
	defer pgRows.Close()

	var rows []*domain.WalletRow
	for pgRows.Next() {
		var r domain.WalletRow
		err := pgRows.Scan(
			&r.ID, &r.Chain, &r.Wallet,
			&r.Transactions7d, &r.Buys7d, &r.Sells7d, &r.UniqueTokens7d,
			&r.RealizedPnLNative7d, &r.RealizedPnLUSD7d, &r.WinRatePercent7d,
			&r.Transactions30d, &r.Buys30d, &r.Sells30d, &r.UniqueTokens30d,
			&r.RealizedPnLNative30d, &r.RealizedPnLUSD30d, &r.WinRatePercent30d,
			&r.NativePriceUSD, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		rows = append(rows, &r)
	}
	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}

	return rows, nil
}
