package metrics

import (
	"math"
	"sort"
	"time"

	"smartmoney-lab/internal/chains"
	"smartmoney-lab/internal/domain"
)

// tokenPnL is the realized outcome of one eligible position.
type tokenPnL struct {
	Wallet string
	Token  string

	PnL30        float64 // native units, unscaled
	Profitable30 bool

	// 7-day figures default to zero when the sub-window lacks a matched
	// buy+sell volume pair; the position still appears in 30d aggregates.
	PnL7        float64
	Profitable7 bool

	Buys30, Sells30 int
	Buys7, Sells7   int
}

// computePnL derives the weighted-average-cost realization for an eligible
// position: (avg sell price − avg buy price) × matched volume. This is not
// lot tracking; only the overlap of bought and sold volume realizes PnL.
func computePnL(p *positionStat) tokenPnL {
	avgBuy30 := p.W30.NativeSpent / p.W30.Bought
	avgSell30 := p.W30.NativeReceived / p.W30.Sold

	out := tokenPnL{
		Wallet:       p.Wallet,
		Token:        p.Token,
		PnL30:        (avgSell30 - avgBuy30) * math.Min(p.W30.Bought, p.W30.Sold),
		Profitable30: avgSell30 > avgBuy30,
		Buys30:       p.W30.Buys,
		Sells30:      p.W30.Sells,
		Buys7:        p.W7.Buys,
		Sells7:       p.W7.Sells,
	}

	if p.W7.Bought > 0 && p.W7.Sold > 0 {
		avgBuy7 := p.W7.NativeSpent / p.W7.Bought
		avgSell7 := p.W7.NativeReceived / p.W7.Sold
		out.PnL7 = (avgSell7 - avgBuy7) * math.Min(p.W7.Bought, p.W7.Sold)
		out.Profitable7 = avgSell7 > avgBuy7
	}

	return out
}

// walletAgg accumulates eligible positions into one wallet's metrics.
type walletAgg struct {
	PnL30       float64
	PnL7        float64
	Positions30 int // all eligible positions; 30d win-rate denominator
	Winners30   int

	// The 7d win-rate denominator is narrower than the 30d one: only
	// positions with nonzero 7d buy and sell counts qualify. Preserved
	// as observed in the reference semantics.
	Positions7 int
	Winners7   int

	Buys30, Sells30 int
	Buys7, Sells7   int

	UniqueTokens30 int
	UniqueTokens7  int // eligible positions with any 7d activity
}

// txCount holds raw wallet-level swap counts over all native-touching
// events. Broader than the eligibility set; feeds the transactions_7d/30d
// display fields only.
type txCount struct {
	Total30 int
	Total7  int
}

// Compute runs the full aggregation model over raw warehouse events and
// returns wallet rows ranked by descending 30-day realized native PnL,
// truncated to limit (limit <= 0 keeps everything). USD fields are left
// zero; the snapshot store stamps them at publish time.
//
// now anchors the 7-day sub-window; callers pass the run's wall clock.
func Compute(events []domain.SwapEvent, spec chains.Spec, now time.Time, limit int) []*domain.WalletRow {
	cutoff7 := now.Add(-7 * 24 * time.Hour).UnixMilli()

	swaps := Normalize(events, spec)

	// Raw per-wallet transaction counts over every native-touching swap.
	counts := make(map[string]*txCount)
	for _, s := range swaps {
		c, ok := counts[s.Wallet]
		if !ok {
			c = &txCount{}
			counts[s.Wallet] = c
		}
		c.Total30++
		if s.Timestamp >= cutoff7 {
			c.Total7++
		}
	}

	// Group, filter eligible, realize PnL, aggregate per wallet.
	aggs := make(map[string]*walletAgg)
	for _, p := range groupPositions(swaps, cutoff7) {
		if !p.eligible() {
			continue
		}
		pnl := computePnL(p)

		a, ok := aggs[pnl.Wallet]
		if !ok {
			a = &walletAgg{}
			aggs[pnl.Wallet] = a
		}

		a.PnL30 += pnl.PnL30
		a.PnL7 += pnl.PnL7
		a.Positions30++
		if pnl.Profitable30 {
			a.Winners30++
		}
		if pnl.Buys7 > 0 && pnl.Sells7 > 0 {
			a.Positions7++
		}
		if pnl.Profitable7 {
			a.Winners7++
		}
		a.Buys30 += pnl.Buys30
		a.Sells30 += pnl.Sells30
		a.Buys7 += pnl.Buys7
		a.Sells7 += pnl.Sells7
		a.UniqueTokens30++
		if pnl.Buys7 > 0 || pnl.Sells7 > 0 {
			a.UniqueTokens7++
		}
	}

	rows := make([]*domain.WalletRow, 0, len(aggs))
	for wallet, a := range aggs {
		c := counts[wallet]

		row := &domain.WalletRow{
			Wallet: wallet,
			Chain:  spec.ID,

			Transactions7d:      c.Total7,
			Buys7d:              a.Buys7,
			Sells7d:             a.Sells7,
			UniqueTokens7d:      a.UniqueTokens7,
			RealizedPnLNative7d: round6(a.PnL7 / spec.NativeDivisor),
			WinRatePercent7d:    round2(winRate(a.Winners7, a.Positions7)),

			Transactions30d:      c.Total30,
			Buys30d:              a.Buys30,
			Sells30d:             a.Sells30,
			UniqueTokens30d:      a.UniqueTokens30,
			RealizedPnLNative30d: round6(a.PnL30 / spec.NativeDivisor),
			WinRatePercent30d:    round2(winRate(a.Winners30, a.Positions30)),
		}
		rows = append(rows, row)
	}

	// Rank by unscaled 30d PnL; wallet address breaks ties deterministically.
	rawPnL := make(map[string]float64, len(aggs))
	for wallet, a := range aggs {
		rawPnL[wallet] = a.PnL30
	}
	sort.Slice(rows, func(i, j int) bool {
		pi, pj := rawPnL[rows[i].Wallet], rawPnL[rows[j].Wallet]
		if pi != pj {
			return pi > pj
		}
		return rows[i].Wallet < rows[j].Wallet
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// winRate is a null-safe percentage: zero qualifying positions yields 0.
func winRate(winners, positions int) float64 {
	if positions == 0 {
		return 0
	}
	return 100 * float64(winners) / float64(positions)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
