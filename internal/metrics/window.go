package metrics

import "smartmoney-lab/internal/domain"

// windowStat accumulates one (wallet, token) group over a single window.
type windowStat struct {
	Bought         float64 // traded-token volume bought
	Sold           float64 // traded-token volume sold
	NativeSpent    float64
	NativeReceived float64
	Buys           int
	Sells          int
}

func (w *windowStat) add(s domain.NormalizedSwap) {
	if s.Action == domain.ActionBuy {
		w.Bought += s.TradedAmount
		w.NativeSpent += s.NativeAmount
		w.Buys++
	} else {
		w.Sold += s.TradedAmount
		w.NativeReceived += s.NativeAmount
		w.Sells++
	}
}

// positionStat holds both windows for one (wallet, token) group.
type positionStat struct {
	Wallet string
	Token  string
	W30    windowStat
	W7     windowStat
}

// eligible reports whether the position qualifies for PnL at all: realized
// PnL requires at least one buy and one sell with nonzero volume in the
// 30-day window, and nonzero native flow in both directions.
func (p *positionStat) eligible() bool {
	return p.W30.Buys > 0 && p.W30.Sells > 0 &&
		p.W30.Bought > 0 && p.W30.Sold > 0 &&
		p.W30.NativeSpent > 0 && p.W30.NativeReceived > 0
}

type walletToken struct {
	wallet string
	token  string
}

// groupPositions folds normalized swaps into per-position window stats.
// Every swap counts toward the 30-day window; swaps at or after cutoff7
// also count toward the 7-day sub-window.
func groupPositions(swaps []domain.NormalizedSwap, cutoff7 int64) map[walletToken]*positionStat {
	groups := make(map[walletToken]*positionStat)
	for _, s := range swaps {
		key := walletToken{wallet: s.Wallet, token: s.Token}
		p, ok := groups[key]
		if !ok {
			p = &positionStat{Wallet: s.Wallet, Token: s.Token}
			groups[key] = p
		}
		p.W30.add(s)
		if s.Timestamp >= cutoff7 {
			p.W7.add(s)
		}
	}
	return groups
}
