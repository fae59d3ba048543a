// Package metrics implements the wallet aggregation model as staged, pure
// transforms over in-process data: normalize swap events against the native
// asset set, group per (wallet, token) with 7d/30d windows, filter eligible
// positions, compute realized PnL, and aggregate to ranked wallet rows.
// It has no storage dependencies and is deterministic for a fixed clock.
package metrics

import (
	"math"

	"smartmoney-lab/internal/chains"
	"smartmoney-lab/internal/domain"
)

// Normalize reorients raw swap events around the chain's native asset.
// An event whose base side is native is a buy of the quote token; an event
// whose quote side is native is a sell of the base token. Events touching
// the native set on neither side are dropped.
//
// When the chain's warehouse carries per-token decimals, raw amounts are
// scaled to whole token units here; otherwise they pass through unscaled
// (Solana keeps lamports until rows are emitted).
func Normalize(events []domain.SwapEvent, spec chains.Spec) []domain.NormalizedSwap {
	normalized := make([]domain.NormalizedSwap, 0, len(events))

	for _, ev := range events {
		baseAmount := ev.BaseAmount
		quoteAmount := ev.QuoteAmount
		if spec.HasDecimals {
			baseAmount = scaleByDecimals(baseAmount, ev.BaseDecimals)
			quoteAmount = scaleByDecimals(quoteAmount, ev.QuoteDecimals)
		}

		switch {
		case spec.NativeAssets.Contains(ev.BaseCoin):
			normalized = append(normalized, domain.NormalizedSwap{
				Wallet:       ev.Wallet,
				Token:        ev.QuoteCoin,
				Action:       domain.ActionBuy,
				NativeAmount: baseAmount,
				TradedAmount: quoteAmount,
				Timestamp:    ev.Timestamp,
			})
		case spec.NativeAssets.Contains(ev.QuoteCoin):
			normalized = append(normalized, domain.NormalizedSwap{
				Wallet:       ev.Wallet,
				Token:        ev.BaseCoin,
				Action:       domain.ActionSell,
				NativeAmount: quoteAmount,
				TradedAmount: baseAmount,
				Timestamp:    ev.Timestamp,
			})
		}
	}

	return normalized
}

func scaleByDecimals(amount float64, decimals uint8) float64 {
	if decimals == 0 {
		return amount
	}
	return amount / math.Pow10(int(decimals))
}
