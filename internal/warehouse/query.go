package warehouse

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"smartmoney-lab/internal/chains"
	"smartmoney-lab/internal/domain"
)

const (
	// Query execution settings. A unique session id per execution plus a
	// bounded execution time keep a hung query from holding warehouse
	// resources indefinitely.
	sessionTimeoutSeconds   = 900
	maxExecutionTimeSeconds = 900

	// windowDays is the widest aggregation window; nothing older is fetched.
	windowDays = 30
)

// buildSwapEventQuery builds the raw swap-event fetch for a chain:
// all events in the last 30 days where either side of the trade is part of
// the chain's native asset set.
func buildSwapEventQuery(spec chains.Spec) (string, []any) {
	cols := []string{
		spec.WalletColumn,
		"block_time",
		"base_coin",
		"quote_coin",
		"base_coin_amount",
		"quote_coin_amount",
	}
	if spec.HasDecimals {
		cols = append(cols, "base_coin_decimals", "quote_coin_decimals")
	}

	natives := spec.NativeAssets.Tokens()
	in := strings.TrimSuffix(strings.Repeat("?, ", len(natives)), ", ")

	prewhere := fmt.Sprintf("block_time >= now() - INTERVAL %d DAY", windowDays)
	args := make([]any, 0, 1+2*len(natives))
	if spec.FilterByChain {
		prewhere = "chain = ? AND " + prewhere
		args = append(args, spec.ID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		PREWHERE %s
		WHERE (base_coin IN (%s) OR quote_coin IN (%s))
	`, strings.Join(cols, ", "), spec.Table, prewhere, in, in)

	for _, t := range natives {
		args = append(args, t)
	}
	for _, t := range natives {
		args = append(args, t)
	}
	return query, args
}

// swapQuerier runs one swap-event fetch attempt against the warehouse.
type swapQuerier interface {
	QuerySwapEvents(ctx context.Context, spec chains.Spec) ([]domain.SwapEvent, error)
	Close() error
}

// clickhouseQuerier implements swapQuerier over a live ClickHouse connection.
type clickhouseQuerier struct {
	conn   *Conn
	logger *log.Logger
}

var _ swapQuerier = (*clickhouseQuerier)(nil)

func (q *clickhouseQuerier) QuerySwapEvents(ctx context.Context, spec chains.Spec) ([]domain.SwapEvent, error) {
	query, args := buildSwapEventQuery(spec)

	qctx := clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"session_id":         uuid.NewString(),
		"session_timeout":    sessionTimeoutSeconds,
		"max_execution_time": maxExecutionTimeSeconds,
	}))

	rows, err := q.conn.Query(qctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query swap events: %w", err)
	}
	defer rows.Close()

	var (
		events  []domain.SwapEvent
		skipped int
	)
	for rows.Next() {
		var (
			ev        domain.SwapEvent
			blockTime time.Time
		)
		if spec.HasDecimals {
			err = rows.Scan(&ev.Wallet, &blockTime, &ev.BaseCoin, &ev.QuoteCoin,
				&ev.BaseAmount, &ev.QuoteAmount, &ev.BaseDecimals, &ev.QuoteDecimals)
		} else {
			err = rows.Scan(&ev.Wallet, &blockTime, &ev.BaseCoin, &ev.QuoteCoin,
				&ev.BaseAmount, &ev.QuoteAmount)
		}
		if err != nil {
			return nil, fmt.Errorf("scan swap event: %w", err)
		}

		if !spec.ValidAddress(ev.Wallet) {
			skipped++
			continue
		}

		ev.Timestamp = blockTime.UnixMilli()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap events: %w", err)
	}

	if skipped > 0 {
		q.logger.Printf("Skipped %d rows with malformed wallet addresses", skipped)
	}
	return events, nil
}

func (q *clickhouseQuerier) Close() error {
	return q.conn.Close()
}
