package domain

// SwapEvent is a raw swap row fetched from the analytical warehouse.
// Events are immutable and externally sourced; the pipeline never writes them.
type SwapEvent struct {
	Wallet        string  // signing / sending wallet address
	Timestamp     int64   // Unix timestamp in milliseconds
	BaseCoin      string  // token identifier of the base side
	QuoteCoin     string  // token identifier of the quote side
	BaseAmount    float64 // raw base amount as stored in the warehouse
	QuoteAmount   float64 // raw quote amount as stored in the warehouse
	BaseDecimals  uint8   // 0 when the warehouse stores pre-scaled amounts
	QuoteDecimals uint8
}

// Action classifies a normalized swap relative to the chain's native asset.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// NormalizedSwap is a swap event reoriented around the native asset:
// a buy spends native for the traded token, a sell receives native for it.
type NormalizedSwap struct {
	Wallet       string
	Token        string // traded (non-native) token
	Action       Action
	NativeAmount float64
	TradedAmount float64
	Timestamp    int64 // Unix timestamp in milliseconds
}
