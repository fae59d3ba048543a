package metrics

import (
	"math"
	"testing"
	"time"

	"smartmoney-lab/internal/domain"
)

// Fixed run clock; window edges derive from it.
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

var (
	tsOld    = testNow.AddDate(0, 0, -20).UnixMilli() // inside 30d, outside 7d
	tsRecent = testNow.AddDate(0, 0, -1).UnixMilli()  // inside 7d
)

// buyEvent is a native-for-token trade: the wallet spends lamports.
func buyEvent(wallet, token string, lamports, tokens float64, ts int64) domain.SwapEvent {
	return domain.SwapEvent{
		Wallet:      wallet,
		Timestamp:   ts,
		BaseCoin:    solMint,
		QuoteCoin:   token,
		BaseAmount:  lamports,
		QuoteAmount: tokens,
	}
}

// sellEvent is a token-for-native trade: the wallet receives lamports.
func sellEvent(wallet, token string, tokens, lamports float64, ts int64) domain.SwapEvent {
	return domain.SwapEvent{
		Wallet:      wallet,
		Timestamp:   ts,
		BaseCoin:    token,
		QuoteCoin:   solMint,
		BaseAmount:  tokens,
		QuoteAmount: lamports,
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCompute_RealizedPnLSingleToken(t *testing.T) {
	spec := mustSpec(t, "solana")

	// Buy 10 tokens for 100 SOL, sell 8 of them for 96 SOL.
	// Avg buy 10 SOL, avg sell 12 SOL, matched volume 8 → +16 SOL realized.
	events := []domain.SwapEvent{
		buyEvent("wallet-1", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-1", "token-A", 8, 96e9, tsOld),
	}

	rows := Compute(events, spec, testNow, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.Wallet != "wallet-1" {
		t.Errorf("expected wallet-1, got %s", r.Wallet)
	}
	if r.Chain != "solana" {
		t.Errorf("expected chain solana, got %s", r.Chain)
	}
	if !approxEqual(r.RealizedPnLNative30d, 16) {
		t.Errorf("expected 30d PnL 16 SOL, got %v", r.RealizedPnLNative30d)
	}
	if r.WinRatePercent30d != 100 {
		t.Errorf("expected 30d win rate 100, got %v", r.WinRatePercent30d)
	}
	if r.Transactions30d != 2 || r.Buys30d != 1 || r.Sells30d != 1 || r.UniqueTokens30d != 1 {
		t.Errorf("30d counters wrong: tx=%d buys=%d sells=%d tokens=%d",
			r.Transactions30d, r.Buys30d, r.Sells30d, r.UniqueTokens30d)
	}

	// Nothing happened inside the 7-day sub-window.
	if r.Transactions7d != 0 || r.Buys7d != 0 || r.Sells7d != 0 || r.UniqueTokens7d != 0 {
		t.Errorf("7d counters must be zero: tx=%d buys=%d sells=%d tokens=%d",
			r.Transactions7d, r.Buys7d, r.Sells7d, r.UniqueTokens7d)
	}
	if r.RealizedPnLNative7d != 0 || r.WinRatePercent7d != 0 {
		t.Errorf("7d PnL and win rate must be zero, got %v / %v",
			r.RealizedPnLNative7d, r.WinRatePercent7d)
	}
}

func TestCompute_OneSidedPositionsExcluded(t *testing.T) {
	spec := mustSpec(t, "solana")

	events := []domain.SwapEvent{
		// Buys only; unrealized, never a row.
		buyEvent("buyer", "token-A", 50e9, 5, tsOld),
		buyEvent("buyer", "token-A", 30e9, 3, tsRecent),
		// Sells only.
		sellEvent("seller", "token-B", 4, 40e9, tsOld),
	}

	rows := Compute(events, spec, testNow, 0)
	if len(rows) != 0 {
		t.Fatalf("expected no rows for one-sided positions, got %d", len(rows))
	}
}

func TestCompute_SevenDayRequiresMatchedVolume(t *testing.T) {
	spec := mustSpec(t, "solana")

	// Eligible over 30 days; the 7-day sub-window has a buy but no sell,
	// so the position realizes nothing and wins nothing in 7d, yet still
	// counts as a 7d-active token.
	events := []domain.SwapEvent{
		buyEvent("wallet-1", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-1", "token-A", 8, 96e9, tsOld),
		buyEvent("wallet-1", "token-A", 30e9, 2, tsRecent),
	}

	rows := Compute(events, spec, testNow, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.RealizedPnLNative7d != 0 {
		t.Errorf("expected 7d PnL 0 without a matched pair, got %v", r.RealizedPnLNative7d)
	}
	if r.WinRatePercent7d != 0 {
		t.Errorf("expected 7d win rate 0, got %v", r.WinRatePercent7d)
	}
	if r.Buys7d != 1 || r.Sells7d != 0 {
		t.Errorf("7d trade counts wrong: buys=%d sells=%d", r.Buys7d, r.Sells7d)
	}
	if r.UniqueTokens7d != 1 {
		t.Errorf("7d-active token must still count, got %d", r.UniqueTokens7d)
	}
	if r.Transactions7d != 1 {
		t.Errorf("expected 1 transaction in 7d, got %d", r.Transactions7d)
	}

	// 30d totals fold in the recent buy: bought 12 for 130 SOL, sold 8
	// for 96 SOL → (12 − 130/12) × 8 = 9.333333 SOL.
	if !approxEqual(r.RealizedPnLNative30d, 9.333333) {
		t.Errorf("expected 30d PnL 9.333333, got %v", r.RealizedPnLNative30d)
	}
	if r.Buys30d != 2 || r.Sells30d != 1 || r.Transactions30d != 3 {
		t.Errorf("30d counters wrong: buys=%d sells=%d tx=%d", r.Buys30d, r.Sells30d, r.Transactions30d)
	}
}

func TestCompute_WinRateDenominatorsDiffer(t *testing.T) {
	spec := mustSpec(t, "solana")

	events := []domain.SwapEvent{
		// token-A: profitable, fully inside the 7-day sub-window.
		buyEvent("wallet-1", "token-A", 100e9, 10, tsRecent),
		sellEvent("wallet-1", "token-A", 10, 150e9, tsRecent),
		// token-B: losing, older than 7 days.
		buyEvent("wallet-1", "token-B", 100e9, 10, tsOld),
		sellEvent("wallet-1", "token-B", 10, 50e9, tsOld),
	}

	rows := Compute(events, spec, testNow, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	// 30d: 1 winner out of 2 eligible positions.
	if r.WinRatePercent30d != 50 {
		t.Errorf("expected 30d win rate 50, got %v", r.WinRatePercent30d)
	}
	// 7d: only token-A has a 7d buy+sell pair, and it won.
	if r.WinRatePercent7d != 100 {
		t.Errorf("expected 7d win rate 100, got %v", r.WinRatePercent7d)
	}
	if r.UniqueTokens30d != 2 || r.UniqueTokens7d != 1 {
		t.Errorf("token counts wrong: 30d=%d 7d=%d", r.UniqueTokens30d, r.UniqueTokens7d)
	}
	if !approxEqual(r.RealizedPnLNative30d, 0) { // +50 and −50 cancel
		t.Errorf("expected 30d PnL 0, got %v", r.RealizedPnLNative30d)
	}
	if !approxEqual(r.RealizedPnLNative7d, 50) {
		t.Errorf("expected 7d PnL 50, got %v", r.RealizedPnLNative7d)
	}
}

func TestCompute_TransactionsCountAllNativeSwaps(t *testing.T) {
	spec := mustSpec(t, "solana")

	// token-C never becomes eligible, but its swaps still count toward the
	// wallet's raw transaction totals.
	events := []domain.SwapEvent{
		buyEvent("wallet-1", "token-D", 100e9, 10, tsOld),
		sellEvent("wallet-1", "token-D", 10, 120e9, tsOld),
		buyEvent("wallet-1", "token-C", 10e9, 1, tsOld),
		buyEvent("wallet-1", "token-C", 10e9, 1, tsRecent),
	}

	rows := Compute(events, spec, testNow, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.Transactions30d != 4 {
		t.Errorf("expected 4 transactions in 30d, got %d", r.Transactions30d)
	}
	if r.Transactions7d != 1 {
		t.Errorf("expected 1 transaction in 7d, got %d", r.Transactions7d)
	}
	// Trade counters cover eligible positions only.
	if r.Buys30d != 1 || r.Sells30d != 1 || r.UniqueTokens30d != 1 {
		t.Errorf("eligible counters wrong: buys=%d sells=%d tokens=%d",
			r.Buys30d, r.Sells30d, r.UniqueTokens30d)
	}
}

func TestCompute_RankingAndLimit(t *testing.T) {
	spec := mustSpec(t, "solana")

	// One eligible position per wallet; delta between sell and buy proceeds
	// is the realized PnL.
	events := []domain.SwapEvent{
		buyEvent("wallet-mid", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-mid", "token-A", 10, 120e9, tsOld),

		buyEvent("wallet-top", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-top", "token-A", 10, 130e9, tsOld),

		buyEvent("wallet-low", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-low", "token-A", 10, 110e9, tsOld),
	}

	rows := Compute(events, spec, testNow, 2)
	if len(rows) != 2 {
		t.Fatalf("expected limit to cap rows at 2, got %d", len(rows))
	}
	if rows[0].Wallet != "wallet-top" || rows[1].Wallet != "wallet-mid" {
		t.Errorf("expected [wallet-top wallet-mid], got [%s %s]", rows[0].Wallet, rows[1].Wallet)
	}

	all := Compute(events, spec, testNow, 0)
	if len(all) != 3 {
		t.Fatalf("expected limit 0 to keep all rows, got %d", len(all))
	}
	if all[2].Wallet != "wallet-low" {
		t.Errorf("expected wallet-low last, got %s", all[2].Wallet)
	}
}

func TestCompute_TieBreakByWallet(t *testing.T) {
	spec := mustSpec(t, "solana")

	events := []domain.SwapEvent{
		buyEvent("wallet-b", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-b", "token-A", 10, 115e9, tsOld),

		buyEvent("wallet-a", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-a", "token-A", 10, 115e9, tsOld),
	}

	rows := Compute(events, spec, testNow, 0)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Wallet != "wallet-a" || rows[1].Wallet != "wallet-b" {
		t.Errorf("equal PnL must order by wallet asc, got [%s %s]", rows[0].Wallet, rows[1].Wallet)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	spec := mustSpec(t, "solana")

	events := []domain.SwapEvent{
		buyEvent("wallet-1", "token-A", 100e9, 10, tsOld),
		sellEvent("wallet-1", "token-A", 8, 96e9, tsRecent),
		buyEvent("wallet-2", "token-B", 60e9, 6, tsRecent),
		sellEvent("wallet-2", "token-B", 6, 90e9, tsRecent),
		buyEvent("wallet-3", "token-A", 10e9, 1, tsOld),
	}

	first := Compute(events, spec, testNow, 0)
	for run := 0; run < 5; run++ {
		again := Compute(events, spec, testNow, 0)
		if len(again) != len(first) {
			t.Fatalf("run %d: row count changed: %d vs %d", run, len(again), len(first))
		}
		for i := range again {
			if *again[i] != *first[i] {
				t.Errorf("run %d: row %d differs: %+v vs %+v", run, i, again[i], first[i])
			}
		}
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	spec := mustSpec(t, "solana")
	if rows := Compute(nil, spec, testNow, 100); len(rows) != 0 {
		t.Errorf("expected no rows from empty input, got %d", len(rows))
	}
}
