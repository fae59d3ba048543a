// Package main runs scheduled smart-money refreshes: an hourly leaderboard
// refresh and a deeper daily one, per configured chain, with Prometheus
// metrics on the side.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"smartmoney-lab/internal/analyzer"
	"smartmoney-lab/internal/config"
	"smartmoney-lab/internal/observability"
	"smartmoney-lab/internal/pricing"
	"smartmoney-lab/internal/storage/migrations"
	pgstore "smartmoney-lab/internal/storage/postgres"
	"smartmoney-lab/internal/warehouse"
)

// job describes one scheduled refresh.
type job struct {
	name     string
	schedule string // standard 5-field cron expression
	limit    int
}

func main() {
	chainFlag := flag.String("chains", "solana", "Comma-separated chains to refresh")
	hourlyLimit := flag.Int("hourly-limit", 10000, "Wallet limit for the hourly refresh")
	dailyLimit := flag.Int("daily-limit", 50000, "Wallet limit for the daily refresh")
	flag.Parse()

	logger := log.New(os.Stdout, "[scheduler] ", log.LstdFlags)
	cfg := config.Load()
	metrics := observability.NewMetrics("")

	chainList := splitChains(*chainFlag)
	if len(chainList) == 0 {
		logger.Fatal("No chains specified")
	}

	jobs := []job{
		{name: "hourly", schedule: "0 * * * *", limit: *hourlyLimit},
		{name: "daily", schedule: "30 0 * * *", limit: *dailyLimit},
	}

	// Same-chain runs must never interleave, including across jobs.
	chainLocks := make(map[string]*sync.Mutex, len(chainList))
	for _, chain := range chainList {
		chainLocks[chain] = &sync.Mutex{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics endpoint
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// A refresh may overrun its slot; skip rather than stack same-chain runs.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, j := range jobs {
		j := j
		_, err := c.AddFunc(j.schedule, func() {
			for _, chain := range chainList {
				lock := chainLocks[chain]
				lock.Lock()
				runJob(ctx, logger, cfg, metrics, j, chain)
				lock.Unlock()
			}
		})
		if err != nil {
			logger.Fatalf("Register %s job: %v", j.name, err)
		}
		logger.Printf("Registered %s refresh (%s) limit=%d chains=%v", j.name, j.schedule, j.limit, chainList)
	}

	c.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("Received signal %v, stopping scheduler...", sig)

	cancel()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Println("Graceful shutdown timed out after 30s")
	}
	logger.Println("Shutdown complete")
}

// runJob executes one refresh with freshly dialed, run-scoped clients and
// records the outcome in metrics.
func runJob(ctx context.Context, logger *log.Logger, cfg *config.Config, metrics *observability.Metrics, j job, chain string) {
	logger.Printf("[%s] Refresh started for chain %s", j.name, chain)
	started := time.Now()

	result, err := runOnce(ctx, logger, cfg, metrics, chain, j.limit)
	metrics.RunDuration.WithLabelValues(chain).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues(chain, "error").Inc()
		logger.Printf("[%s] Refresh failed for chain %s: %v", j.name, chain, err)
		return
	}

	metrics.RunsTotal.WithLabelValues(chain, "success").Inc()
	metrics.EventsFetched.WithLabelValues(chain).Set(float64(result.EventsFetched))
	metrics.RowsStored.WithLabelValues(chain).Set(float64(result.RowsStored))
	metrics.SnapshotTotalRows.WithLabelValues(chain).Set(float64(result.TotalRowsInStore))
	metrics.LastSuccessfulRun.WithLabelValues(chain).SetToCurrentTime()
	logger.Printf("[%s] Refresh complete for chain %s: rows=%d stored=%d total=%d elapsed=%s",
		j.name, chain, result.RowsProcessed, result.RowsStored, result.TotalRowsInStore, result.Elapsed)
}

func runOnce(ctx context.Context, logger *log.Logger, cfg *config.Config, metrics *observability.Metrics, chain string, limit int) (*analyzer.Result, error) {
	prices, err := pricing.NewRedisSource(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connect price cache: %w", err)
	}
	defer prices.Close()

	executor, err := warehouse.Dial(ctx, cfg.ClickHouseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("connect warehouse: %w", err)
	}
	defer executor.Close()
	executor.OnSessionRetry = metrics.SessionRetries.Inc
	executor.OnQueryDone = func(elapsed time.Duration) {
		metrics.QueryDuration.WithLabelValues(chain).Observe(elapsed.Seconds())
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect snapshot store: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	a := analyzer.New(analyzer.Options{
		Prices:    prices,
		Warehouse: executor,
		Snapshots: pgstore.NewSnapshotStore(pool, logger),
		Logger:    logger,
	})
	return a.Run(ctx, chain, limit)
}

func splitChains(raw string) []string {
	var chainList []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			chainList = append(chainList, c)
		}
	}
	return chainList
}
