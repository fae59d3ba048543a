// Package chains holds the per-chain configuration the pipeline needs:
// which token identifiers count as the native (quote) asset, where the
// native USD price lives in the cache, and how wallet addresses look.
// Adding a chain is a new registry entry, not new branching.
package chains

import (
	"fmt"
	"sort"
	"strings"
)

// NativeAssetSet is the set of token identifiers treated as the pricing
// asset for a chain (the gas token plus wrapped variants). Static, never
// mutated at runtime.
type NativeAssetSet map[string]struct{}

// Contains reports whether token is part of the native asset set.
func (s NativeAssetSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Tokens returns the set members in sorted order, for stable query building.
func (s NativeAssetSet) Tokens() []string {
	tokens := make([]string, 0, len(s))
	for t := range s {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

func newNativeAssetSet(tokens ...string) NativeAssetSet {
	s := make(NativeAssetSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Spec describes one supported chain.
type Spec struct {
	ID           string
	NativeAssets NativeAssetSet

	// PriceKey is the cache key holding the native asset's USD price.
	PriceKey string

	// Warehouse layout for this chain's swap events.
	Table        string // fully qualified table name
	WalletColumn string // column holding the signing/sending wallet
	// FilterByChain is set when the table is shared across chains and
	// rows must be restricted by a chain column.
	FilterByChain bool
	// HasDecimals is set when raw amounts need per-token decimal scaling
	// during normalization (EVM tables carry decimals columns).
	HasDecimals bool

	// NativeDivisor converts raw native units to whole native units when
	// emitting final rows (1e9 for lamports; 1 when amounts are already
	// scaled at normalization).
	NativeDivisor float64

	validAddress func(string) bool
}

// ValidAddress reports whether addr is a plausible wallet address for the
// chain. Used to drop malformed wallets at the warehouse boundary.
func (s Spec) ValidAddress(addr string) bool {
	if s.validAddress == nil {
		return addr != ""
	}
	return s.validAddress(addr)
}

// Wrapped SOL mint; the only native identifier on Solana.
const solNativeMint = "So11111111111111111111111111111111111111112"

var registry = map[string]Spec{
	"solana": {
		ID:            "solana",
		NativeAssets:  newNativeAssetSet(solNativeMint),
		PriceKey:      "solana:price_usd",
		Table:         "solana.swaps",
		WalletColumn:  "signing_wallet",
		NativeDivisor: 1e9, // lamports
		validAddress:  validSolanaAddress,
	},
	"eth": {
		ID: "eth",
		NativeAssets: newNativeAssetSet(
			"0x0000000000000000000000000000000000000000",
			"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
			"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
		),
		PriceKey:      "ethereum:price_usd",
		Table:         "evm.swap_events",
		WalletColumn:  "tx_from_address",
		FilterByChain: true,
		HasDecimals:   true,
		NativeDivisor: 1,
		validAddress:  validEvmAddress,
	},
	"polygon": {
		ID: "polygon",
		NativeAssets: newNativeAssetSet(
			"0x0000000000000000000000000000000000000000",
			"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
			"0x0000000000000000000000000000000000001010", // MATIC precompile
			"0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270", // WMATIC
			"0x7ceb23fd6bc0add59e62ac25578270cff1b9f619", // WETH on Polygon
		),
		PriceKey:      "polygon:price_usd",
		Table:         "evm.swap_events",
		WalletColumn:  "tx_from_address",
		FilterByChain: true,
		HasDecimals:   true,
		NativeDivisor: 1,
		validAddress:  validEvmAddress,
	},
}

// Get returns the spec for a chain identifier.
func Get(id string) (Spec, error) {
	spec, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Spec{}, fmt.Errorf("unknown chain %q (supported: %s)", id, strings.Join(IDs(), ", "))
	}
	return spec, nil
}

// IDs returns all supported chain identifiers in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
