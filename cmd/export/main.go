// Package main exports the currently published snapshot for a chain to CSV.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"smartmoney-lab/internal/config"
	"smartmoney-lab/internal/domain"
	pgstore "smartmoney-lab/internal/storage/postgres"
)

func main() {
	chainFlag := flag.String("chain", "solana", "Chain whose snapshot to export")
	limitFlag := flag.Int("limit", 0, "Max rows to export (0 = all)")
	outFlag := flag.String("o", "", "Output file (default smart_money_<chain>_<date>.csv)")
	flag.Parse()

	logger := log.New(os.Stdout, "[export] ", log.LstdFlags)

	if err := run(*chainFlag, *limitFlag, *outFlag, logger); err != nil {
		logger.Printf("Export failed: %v", err)
		os.Exit(1)
	}
}

func run(chain string, limit int, outPath string, logger *log.Logger) error {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect snapshot store: %w", err)
	}
	defer pool.Close()

	store := pgstore.NewSnapshotStore(pool, logger)
	rows, err := store.TopByPnL(ctx, chain, limit)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if len(rows) == 0 {
		logger.Printf("No snapshot rows for chain %s", chain)
		return nil
	}

	if outPath == "" {
		outPath = fmt.Sprintf("smart_money_%s_%s.csv", chain, time.Now().UTC().Format("2006-01-02"))
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := writeCSV(f, rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	logger.Printf("Exported %d rows for chain %s to %s", len(rows), chain, outPath)
	return nil
}

func writeCSV(f *os.File, rows []*domain.WalletRow) error {
	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"wallet", "chain",
		"transactions_7d", "buys_7d", "sells_7d", "unique_tokens_7d",
		"realized_pnl_native_7d", "realized_pnl_usd_7d", "win_rate_percent_7d",
		"transactions_30d", "buys_30d", "sells_30d", "unique_tokens_30d",
		"realized_pnl_native_30d", "realized_pnl_usd_30d", "win_rate_percent_30d",
		"native_price_usd", "created_at",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.Wallet, r.Chain,
			strconv.Itoa(r.Transactions7d), strconv.Itoa(r.Buys7d), strconv.Itoa(r.Sells7d), strconv.Itoa(r.UniqueTokens7d),
			formatFloat(r.RealizedPnLNative7d), formatFloat(r.RealizedPnLUSD7d), formatFloat(r.WinRatePercent7d),
			strconv.Itoa(r.Transactions30d), strconv.Itoa(r.Buys30d), strconv.Itoa(r.Sells30d), strconv.Itoa(r.UniqueTokens30d),
			formatFloat(r.RealizedPnLNative30d), formatFloat(r.RealizedPnLUSD30d), formatFloat(r.WinRatePercent30d),
			formatFloat(r.NativePriceUSD), r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
