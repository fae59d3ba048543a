package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"smartmoney-lab/internal/chains"
	"smartmoney-lab/internal/domain"
)

// ErrQueryFailed is returned when a swap-event fetch fails for good, after
// the single lock-triggered retry. The run must abort; nothing is published.
var ErrQueryFailed = errors.New("warehouse query failed")

// sessionLockedCode is the ClickHouse SESSION_IS_LOCKED exception code.
const sessionLockedCode = 373

// Executor fetches swap events with session-retry semantics: if an attempt
// fails because the warehouse session is locked, it reconnects with a fresh
// session and retries exactly once. Any other failure, or a second
// consecutive lock failure, is terminal.
type Executor struct {
	querier   swapQuerier
	reconnect func(ctx context.Context) (swapQuerier, error)
	logger    *log.Logger

	// OnSessionRetry, when set, is invoked each time a locked session
	// forces a reconnect. OnQueryDone receives the total fetch duration,
	// retries included. Both are used for metrics.
	OnSessionRetry func()
	OnQueryDone    func(elapsed time.Duration)
}

// Dial connects to the warehouse at dsn and returns an Executor that
// reconnects to the same dsn on session-lock retries.
func Dial(ctx context.Context, dsn string, logger *log.Logger) (*Executor, error) {
	if logger == nil {
		logger = log.Default()
	}

	connect := func(ctx context.Context) (swapQuerier, error) {
		conn, err := NewConn(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &clickhouseQuerier{conn: conn, logger: logger}, nil
	}

	querier, err := connect(ctx)
	if err != nil {
		return nil, err
	}

	return &Executor{querier: querier, reconnect: connect, logger: logger}, nil
}

// newExecutor wires an Executor from parts; used by tests.
func newExecutor(q swapQuerier, reconnect func(ctx context.Context) (swapQuerier, error), logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{querier: q, reconnect: reconnect, logger: logger}
}

// FetchSwapEvents returns all swap events for the chain's 30-day window that
// touch its native asset set.
func (e *Executor) FetchSwapEvents(ctx context.Context, spec chains.Spec) ([]domain.SwapEvent, error) {
	e.logger.Printf("Executing swap event query for chain %s...", spec.ID)

	if e.OnQueryDone != nil {
		started := time.Now()
		defer func() { e.OnQueryDone(time.Since(started)) }()
	}

	events, err := e.querier.QuerySwapEvents(ctx, spec)
	if err == nil {
		e.logger.Printf("Query completed: %d events", len(events))
		return events, nil
	}
	if !isSessionLocked(err) {
		return nil, fmt.Errorf("%w: %s", ErrQueryFailed, err)
	}

	// Locked session: open a fresh one and retry exactly once.
	e.logger.Printf("Session locked, reconnecting...")
	if e.OnSessionRetry != nil {
		e.OnSessionRetry()
	}

	fresh, rerr := e.reconnect(ctx)
	if rerr != nil {
		return nil, fmt.Errorf("%w: reconnect after locked session: %s", ErrQueryFailed, rerr)
	}
	e.querier.Close()
	e.querier = fresh

	events, err = e.querier.QuerySwapEvents(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrQueryFailed, err)
	}
	e.logger.Printf("Query completed after retry: %d events", len(events))
	return events, nil
}

// Close releases the warehouse connection.
func (e *Executor) Close() error {
	return e.querier.Close()
}

// isSessionLocked reports whether err is the SESSION_IS_LOCKED condition,
// the only failure class that is retried.
func isSessionLocked(err error) bool {
	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		return ex.Code == sessionLockedCode
	}
	msg := err.Error()
	return strings.Contains(msg, "SESSION_IS_LOCKED") || strings.Contains(msg, "code: 373")
}
