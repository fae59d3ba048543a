package domain

import "time"

// WalletRow is one published leaderboard record for a wallet.
// Corresponds to the wallet_snapshots table in PostgreSQL.
//
// Native PnL figures are produced by the aggregation model; the USD figures,
// the price used, and CreatedAt are stamped by the snapshot store at publish
// time so that every row of a snapshot carries the same price sample and the
// same creation timestamp.
type WalletRow struct {
	ID     int64 // BIGSERIAL primary key, 0 until stored
	Wallet string
	Chain  string

	Transactions7d      int
	Buys7d              int
	Sells7d             int
	UniqueTokens7d      int
	RealizedPnLNative7d float64
	RealizedPnLUSD7d    float64
	WinRatePercent7d    float64

	Transactions30d      int
	Buys30d              int
	Sells30d             int
	UniqueTokens30d      int
	RealizedPnLNative30d float64
	RealizedPnLUSD30d    float64
	WinRatePercent30d    float64

	NativePriceUSD float64
	CreatedAt      time.Time
}
