// Package main runs one smart-money refresh for a single chain and exits.
// Intended to be invoked on a fixed external schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"smartmoney-lab/internal/analyzer"
	"smartmoney-lab/internal/chains"
	"smartmoney-lab/internal/config"
	"smartmoney-lab/internal/pricing"
	"smartmoney-lab/internal/storage/migrations"
	pgstore "smartmoney-lab/internal/storage/postgres"
	"smartmoney-lab/internal/warehouse"
)

func main() {
	chain := flag.String("chain", "solana", fmt.Sprintf("Chain to refresh (%s)", strings.Join(chains.IDs(), ", ")))
	limit := flag.Int("limit", 0, "Maximum wallets to publish (0 = configured default)")
	flag.Parse()

	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags)

	cfg := config.Load()
	if *limit <= 0 {
		*limit = cfg.DefaultLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

	if err := run(ctx, logger, cfg, *chain, *limit); err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// run dials all clients, executes one refresh, and releases everything on
// every exit path.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config, chain string, limit int) error {
	prices, err := pricing.NewRedisSource(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("connect price cache: %w", err)
	}
	defer prices.Close()

	executor, err := warehouse.Dial(ctx, cfg.ClickHouseDSN, logger)
	if err != nil {
		return fmt.Errorf("connect warehouse: %w", err)
	}
	defer executor.Close()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect snapshot store: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	a := analyzer.New(analyzer.Options{
		Prices:    prices,
		Warehouse: executor,
		Snapshots: pgstore.NewSnapshotStore(pool, logger),
		Logger:    logger,
	})

	result, err := a.Run(ctx, chain, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Results: chain=%s rows_processed=%d native_price_usd=%.2f rows_stored=%d total_rows=%d elapsed=%s\n",
		result.Chain, result.RowsProcessed, result.NativePriceUSD,
		result.RowsStored, result.TotalRowsInStore, result.Elapsed)
	return nil
}
