// Package analyzer wires the per-chain smart-money refresh: resolve the
// native asset price, fetch the 30-day swap events, compute the wallet
// leaderboard, and publish it as an atomic snapshot.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"time"

	"smartmoney-lab/internal/chains"
	"smartmoney-lab/internal/domain"
	"smartmoney-lab/internal/metrics"
	"smartmoney-lab/internal/pricing"
	"smartmoney-lab/internal/storage"
)

// SwapEventSource fetches a chain's windowed swap events from the warehouse.
type SwapEventSource interface {
	FetchSwapEvents(ctx context.Context, spec chains.Spec) ([]domain.SwapEvent, error)
}

// Options for creating an Analyzer.
type Options struct {
	// Required collaborators
	Prices    pricing.Source
	Warehouse SwapEventSource
	Snapshots storage.SnapshotStore

	// Optional
	Logger *log.Logger
	Clock  func() time.Time // defaults to time.Now
}

// Analyzer runs the refresh for one chain at a time. A single run is
// synchronous and single-threaded; concurrent runs for different chains are
// safe, concurrent runs for the same chain are not.
type Analyzer struct {
	prices    pricing.Source
	warehouse SwapEventSource
	snapshots storage.SnapshotStore
	logger    *log.Logger
	clock     func() time.Time
}

// New creates a new Analyzer.
func New(opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Analyzer{
		prices:    opts.Prices,
		warehouse: opts.Warehouse,
		snapshots: opts.Snapshots,
		logger:    logger,
		clock:     clock,
	}
}

// Result is the outcome record of one refresh run.
type Result struct {
	Chain            string
	EventsFetched    int
	RowsProcessed    int
	NativePriceUSD   float64
	RowsStored       int
	TotalRowsInStore int64
	Elapsed          time.Duration
}

// Run executes one refresh for the chain: price → fetch → compute → publish.
// Any failure aborts the run without partial publication; an empty result
// set ends the run early with the prior snapshot untouched. Callers own the
// injected clients and release them regardless of outcome.
func (a *Analyzer) Run(ctx context.Context, chainID string, limit int) (*Result, error) {
	started := a.clock()

	spec, err := chains.Get(chainID)
	if err != nil {
		return nil, err
	}

	a.logger.Printf("Smart money refresh started: chain=%s limit=%d", spec.ID, limit)

	price, err := a.prices.NativePrice(ctx, spec.PriceKey)
	if err != nil {
		return nil, fmt.Errorf("resolve native price for %s: %w", spec.ID, err)
	}
	a.logger.Printf("Native price: $%.2f", price)

	events, err := a.warehouse.FetchSwapEvents(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("fetch swap events for %s: %w", spec.ID, err)
	}

	rows := metrics.Compute(events, spec, a.clock(), limit)
	a.logger.Printf("Computed %d wallet rows from %d swap events", len(rows), len(events))

	result := &Result{
		Chain:          spec.ID,
		EventsFetched:  len(events),
		RowsProcessed:  len(rows),
		NativePriceUSD: price,
	}

	if len(rows) == 0 {
		a.logger.Printf("No qualifying wallets for %s, previous snapshot kept", spec.ID)
		result.Elapsed = a.clock().Sub(started)
		return result, nil
	}

	stored, err := a.snapshots.ReplaceSnapshot(ctx, spec.ID, rows, price)
	if err != nil {
		return nil, fmt.Errorf("publish snapshot for %s: %w", spec.ID, err)
	}
	result.RowsStored = stored

	total, err := a.snapshots.Count(ctx, spec.ID)
	if err != nil {
		return nil, fmt.Errorf("count stored rows for %s: %w", spec.ID, err)
	}
	result.TotalRowsInStore = total

	result.Elapsed = a.clock().Sub(started)
	a.logger.Printf("Refresh complete: chain=%s rows=%d stored=%d total=%d elapsed=%s",
		spec.ID, result.RowsProcessed, result.RowsStored, result.TotalRowsInStore, result.Elapsed.Round(time.Millisecond))

	return result, nil
}
