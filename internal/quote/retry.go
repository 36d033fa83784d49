package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"swingwatch-go/internal/market"
	"swingwatch-go/internal/metrics"
)

// SleepFunc blocks for d or returns early with the context's error. Injected
// so tests can run the retry loop without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// FetchWithRetry fetches through src, retrying only rate-limit rejections.
// It attempts at most retries fetches with delay between them; any other
// failure returns immediately.
func FetchWithRetry(ctx context.Context, src Source, inst market.Instrument, res market.Resolution, retries int, delay time.Duration, sleep SleepFunc, log zerolog.Logger) (float64, error) {
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; ; attempt++ {
		price, err := src.Fetch(ctx, inst, res)
		if err == nil {
			return price, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return 0, err
		}
		if attempt >= retries {
			return 0, fmt.Errorf("gave up after %d attempts: %w", retries, ErrRateLimited)
		}
		metrics.RetriesTotal.WithLabelValues(inst.Ticker).Inc()
		log.Warn().
			Str("ticker", inst.Ticker).
			Int("attempt", attempt).
			Int("retries", retries).
			Dur("delay", delay).
			Msg("rate limit hit, retrying")
		if err := sleep(ctx, delay); err != nil {
			return 0, err
		}
	}
}
