// Package pricing resolves the current USD price of a chain's native asset
// from a fast external cache. Price absence is fatal for a run: there is no
// retry and no stale-price fallback.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrPriceUnavailable is returned when the price key is missing, the cached
// value is not a positive number, or the cache is unreachable.
var ErrPriceUnavailable = errors.New("native price unavailable")

// Source provides the current USD price of a native asset.
type Source interface {
	// NativePrice returns the price stored under key. The result is
	// strictly positive or the call fails with ErrPriceUnavailable.
	NativePrice(ctx context.Context, key string) (float64, error)
}

// parsePrice validates a cached price string.
func parsePrice(key, raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q holds non-numeric value %q", ErrPriceUnavailable, key, raw)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: key %q holds non-positive value %v", ErrPriceUnavailable, key, price)
	}
	return price, nil
}
