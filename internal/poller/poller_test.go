package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"swingwatch-go/internal/market"
	"swingwatch-go/internal/quote"
	"swingwatch-go/internal/record"
	"swingwatch-go/internal/session"
)

// fakeClock advances instantly on every sleep so session transitions can be
// driven without real time passing.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return nil
}

type scriptedSource struct {
	calls int
	fn    func(call int, res market.Resolution) (float64, error)
}

func (s *scriptedSource) Fetch(ctx context.Context, inst market.Instrument, res market.Resolution) (float64, error) {
	s.calls++
	return s.fn(s.calls, res)
}

func newTestPolicy(t *testing.T, close string, highFreqDuration time.Duration) session.Policy {
	t.Helper()
	p, err := session.NewPolicy("09:30", close, "America/New_York", time.Minute, highFreqDuration, 10*time.Minute)
	if err != nil {
		t.Fatalf("NewPolicy returned error: %v", err)
	}
	return p
}

func easternClock(t *testing.T, hour, min int) *fakeClock {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return &fakeClock{now: time.Date(2024, time.March, 8, hour, min, 0, 0, loc)}
}

var tsla = market.Instrument{Ticker: "TSLA", Exchange: "NASDAQ", Screener: "america"}

func TestRunEmitsSingleRecordForAscendingPrices(t *testing.T) {
	clock := easternClock(t, 9, 29)
	source := &scriptedSource{fn: func(call int, res market.Resolution) (float64, error) {
		return float64(call), nil
	}}
	sink := record.NewMemory()
	p := New(Config{
		Instruments: []market.Instrument{tsla},
		ShortPeriod: 5,
		LongPeriod:  15,
		Retries:     3,
		RetryDelay:  5 * time.Second,
	}, source, sink, newTestPolicy(t, "16:00", 30*time.Minute), clock, zerolog.Nop())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	records := sink.Snapshot()
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d: %+v", len(records), records)
	}
	rec := records[0]
	if rec.Signal != market.SignalBuy {
		t.Fatalf("expected BUY, got %v", rec.Signal)
	}
	if rec.Ticker != "TSLA" {
		t.Fatalf("unexpected ticker %s", rec.Ticker)
	}
	if rec.Price != 15 {
		t.Fatalf("expected price 15 at the crossover tick, got %v", rec.Price)
	}
	if rec.ShortAvg != 13 || rec.LongAvg != 8 {
		t.Fatalf("expected averages 13/8, got %v/%v", rec.ShortAvg, rec.LongAvg)
	}
}

func TestRunLogsOnlyTransitions(t *testing.T) {
	clock := easternClock(t, 9, 30)
	// Ascend to a BUY, collapse to 0.5 for a SELL, stay flat until the
	// window equalizes into a HOLD, then hold flat to the close.
	source := &scriptedSource{fn: func(call int, res market.Resolution) (float64, error) {
		if call <= 15 {
			return float64(call), nil
		}
		return 0.5, nil
	}}
	sink := record.NewMemory()
	p := New(Config{
		Instruments: []market.Instrument{tsla},
		ShortPeriod: 5,
		LongPeriod:  15,
		Retries:     3,
		RetryDelay:  time.Second,
	}, source, sink, newTestPolicy(t, "10:30", time.Hour), clock, zerolog.Nop())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	records := sink.Snapshot()
	if len(records) != 3 {
		t.Fatalf("expected three transitions, got %d: %+v", len(records), records)
	}
	want := []market.Signal{market.SignalBuy, market.SignalSell, market.SignalHold}
	for i, sig := range want {
		if records[i].Signal != sig {
			t.Fatalf("transition %d: expected %v, got %v", i, sig, records[i].Signal)
		}
	}
}

func TestRunSkipsInstrumentOnExhaustedRateLimit(t *testing.T) {
	clock := easternClock(t, 9, 30)
	source := &scriptedSource{fn: func(call int, res market.Resolution) (float64, error) {
		return 0, quote.ErrRateLimited
	}}
	sink := record.NewMemory()
	p := New(Config{
		Instruments: []market.Instrument{tsla},
		ShortPeriod: 5,
		LongPeriod:  15,
		Retries:     3,
		RetryDelay:  5 * time.Second,
	}, source, sink, newTestPolicy(t, "10:00", 30*time.Minute), clock, zerolog.Nop())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(sink.Snapshot()) != 0 {
		t.Fatalf("expected no records for failed fetches")
	}
	if source.calls == 0 || source.calls%3 != 0 {
		t.Fatalf("expected retry budget of 3 per tick, got %d total calls", source.calls)
	}
	state := p.states["TSLA"]
	if state.winHigh.Len() != 0 || state.winLow.Len() != 0 {
		t.Fatalf("skipped ticks must not mutate windows")
	}
	if state.last != market.SignalPending {
		t.Fatalf("skipped ticks must not touch the last signal")
	}
}

func TestRunFailureIsolationAcrossInstruments(t *testing.T) {
	msft := market.Instrument{Ticker: "MSFT", Exchange: "NASDAQ", Screener: "america"}
	clock := easternClock(t, 9, 30)
	msftCalls := 0
	// The sweep fetches TSLA then MSFT in order; fail every TSLA fetch.
	source := &scriptedSource{fn: func(call int, res market.Resolution) (float64, error) {
		if call%2 == 1 {
			return 0, quote.ErrUnavailable
		}
		msftCalls++
		return float64(msftCalls), nil
	}}
	sink := record.NewMemory()
	p := New(Config{
		Instruments: []market.Instrument{tsla, msft},
		ShortPeriod: 5,
		LongPeriod:  15,
		Retries:     3,
		RetryDelay:  time.Second,
		Stagger:     time.Second,
	}, source, sink, newTestPolicy(t, "10:30", time.Hour), clock, zerolog.Nop())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	records := sink.Snapshot()
	if len(records) != 1 {
		t.Fatalf("expected one MSFT record, got %d: %+v", len(records), records)
	}
	if records[0].Ticker != "MSFT" || records[0].Signal != market.SignalBuy {
		t.Fatalf("unexpected record %+v", records[0])
	}
	if p.states["TSLA"].winHigh.Len() != 0 {
		t.Fatalf("failing instrument must not accumulate window data")
	}
}

func TestPreloadFillsWindowPerResolutionIndependently(t *testing.T) {
	clock := easternClock(t, 9, 0)
	source := &scriptedSource{fn: func(call int, res market.Resolution) (float64, error) {
		if res == market.Res15Min {
			return 0, quote.ErrRateLimited
		}
		return 42, nil
	}}
	p := New(Config{
		Instruments:    []market.Instrument{tsla},
		ShortPeriod:    5,
		LongPeriod:     15,
		PreloadStagger: 1500 * time.Millisecond,
	}, source, record.NewMemory(), newTestPolicy(t, "16:00", 30*time.Minute), clock, zerolog.Nop())

	if err := p.Preload(context.Background()); err != nil {
		t.Fatalf("Preload returned error: %v", err)
	}

	state := p.states["TSLA"]
	if !state.winHigh.Full() {
		t.Fatalf("expected high-frequency window preloaded")
	}
	if avg := state.winHigh.Avg(state.winHigh.Cap()); avg != 42 {
		t.Fatalf("expected preloaded average 42, got %v", avg)
	}
	if state.winLow.Len() != 0 {
		t.Fatalf("rate-limited preload must leave the window empty")
	}
	if source.calls != 2 {
		t.Fatalf("preload must fetch once per resolution, got %d calls", source.calls)
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clock := easternClock(t, 9, 30)
	source := &scriptedSource{fn: func(call int, res market.Resolution) (float64, error) {
		return 1, nil
	}}
	p := New(Config{
		Instruments: []market.Instrument{tsla},
		ShortPeriod: 5,
		LongPeriod:  15,
	}, source, record.NewMemory(), newTestPolicy(t, "16:00", 30*time.Minute), clock, zerolog.Nop())

	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
