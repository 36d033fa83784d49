// Package quote fetches last prices for instruments from a rate-limited
// upstream scanner API.
package quote

import (
	"context"
	"errors"

	"swingwatch-go/internal/market"
)

// ErrRateLimited marks a fetch rejected by upstream throttling; callers may
// retry after a delay.
var ErrRateLimited = errors.New("quote: rate limited")

// ErrUnavailable marks any other fetch failure; callers should skip the tick
// rather than spend retry budget on it.
var ErrUnavailable = errors.New("quote: unavailable")

// Source is the single capability the engine needs from the quote layer:
// fetch the last price for an instrument at a resolution.
type Source interface {
	Fetch(ctx context.Context, inst market.Instrument, res market.Resolution) (float64, error)
}
