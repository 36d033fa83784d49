// Package poller runs the session-aware polling loop: fetch quotes, update
// moving averages, and persist signal transitions.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"swingwatch-go/internal/market"
	"swingwatch-go/internal/metrics"
	"swingwatch-go/internal/quote"
	"swingwatch-go/internal/record"
	"swingwatch-go/internal/session"
	"swingwatch-go/internal/strategy"
	"swingwatch-go/internal/window"
)

// Config carries the tunables the poller needs beyond its collaborators.
type Config struct {
	Instruments    []market.Instrument
	ShortPeriod    int
	LongPeriod     int
	Retries        int
	RetryDelay     time.Duration
	Stagger        time.Duration
	PreloadStagger time.Duration
}

// instrumentState is the per-ticker mutable state: one window per resolution
// plus the last emitted signal. Owned exclusively by the poller loop.
type instrumentState struct {
	winHigh *window.Window
	winLow  *window.Window
	last    market.Signal
}

func (s *instrumentState) window(res market.Resolution) *window.Window {
	if res == market.Res1Min {
		return s.winHigh
	}
	return s.winLow
}

// Poller owns all mutable tracking state and drives the single-loop schedule.
type Poller struct {
	cfg    Config
	source quote.Source
	sink   record.Writer
	policy session.Policy
	clock  Clock
	log    zerolog.Logger
	strat  *strategy.Crossover
	states map[string]*instrumentState
}

// New assembles a poller. A nil clock falls back to the system clock.
func New(cfg Config, source quote.Source, sink record.Writer, policy session.Policy, clock Clock, log zerolog.Logger) *Poller {
	if clock == nil {
		clock = SystemClock{}
	}
	strat := strategy.NewCrossover(cfg.ShortPeriod, cfg.LongPeriod)
	states := make(map[string]*instrumentState, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		states[inst.Ticker] = &instrumentState{
			winHigh: window.New(strat.LongPeriod()),
			winLow:  window.New(strat.LongPeriod()),
		}
	}
	return &Poller{
		cfg:    cfg,
		source: source,
		sink:   sink,
		policy: policy,
		clock:  clock,
		log:    log,
		strat:  strat,
		states: states,
	}
}

// Preload warms each instrument's windows with one fetched price per
// resolution so averages are computable from the first live tick. Failures
// leave the window empty; it then fills naturally during the session.
func (p *Poller) Preload(ctx context.Context) error {
	resolutions := []market.Resolution{market.Res1Min, market.Res15Min}
	for _, inst := range p.cfg.Instruments {
		for _, res := range resolutions {
			price, err := p.source.Fetch(ctx, inst, res)
			switch {
			case err == nil:
				w := p.states[inst.Ticker].window(res)
				for i := 0; i < w.Cap(); i++ {
					w.Push(price)
				}
				p.log.Info().
					Str("ticker", inst.Ticker).
					Str("resolution", string(res)).
					Float64("price", price).
					Msg("preloaded window")
			case errors.Is(err, quote.ErrRateLimited):
				p.log.Info().
					Str("ticker", inst.Ticker).
					Str("resolution", string(res)).
					Msg("preload rate limited, window will fill from live ticks")
			default:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.log.Warn().Err(err).
					Str("ticker", inst.Ticker).
					Str("resolution", string(res)).
					Msg("preload failed")
			}
			if err := p.clock.Sleep(ctx, p.cfg.PreloadStagger); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes the polling loop until the session closes or the context is
// canceled. Session close returns nil; cancellation returns the context error.
func (p *Poller) Run(ctx context.Context) error {
	lastPhase := session.Phase(-1)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := p.clock.Now()
		phase := p.policy.Phase(now)
		metrics.SessionPhase.Set(float64(phase))
		if phase != lastPhase {
			p.log.Info().Str("phase", phase.String()).Msg("session phase")
			lastPhase = phase
		}

		switch phase {
		case session.PhaseClosed:
			p.log.Info().Msg("market closed, monitoring ended")
			return nil
		case session.PhaseBeforeOpen:
			wait := p.policy.NextTick(now, phase)
			p.log.Info().Dur("wait", wait).Msg("waiting for market open")
			if err := p.clock.Sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if err := p.sweep(ctx, p.policy.Resolution(phase)); err != nil {
			return err
		}
		if err := p.clock.Sleep(ctx, p.policy.NextTick(p.clock.Now(), phase)); err != nil {
			return err
		}
	}
}

// sweep processes every instrument once at the given resolution. Fetch
// failures skip that instrument only; the returned error is always a context
// error.
func (p *Poller) sweep(ctx context.Context, res market.Resolution) error {
	for i, inst := range p.cfg.Instruments {
		if i > 0 {
			if err := p.clock.Sleep(ctx, p.cfg.Stagger); err != nil {
				return err
			}
		}

		price, err := quote.FetchWithRetry(ctx, p.source, inst, res, p.cfg.Retries, p.cfg.RetryDelay, p.clock.Sleep, p.log)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			outcome := "unavailable"
			if errors.Is(err, quote.ErrRateLimited) {
				outcome = "rate_limited"
			}
			metrics.FetchesTotal.WithLabelValues(inst.Ticker, outcome).Inc()
			p.log.Warn().Err(err).Str("ticker", inst.Ticker).Msg("fetch failed, skipping tick")
			continue
		}
		metrics.FetchesTotal.WithLabelValues(inst.Ticker, "ok").Inc()

		state := p.states[inst.Ticker]
		sig, shortAvg, longAvg := p.strat.Observe(state.window(res), price)
		if sig == market.SignalPending || sig == state.last {
			continue
		}

		rec := market.SignalRecord{
			Ts:       p.clock.Now(),
			Ticker:   inst.Ticker,
			Price:    price,
			ShortAvg: shortAvg,
			LongAvg:  longAvg,
			Signal:   sig,
		}
		if err := p.sink.Write(rec); err != nil {
			p.log.Error().Err(err).Str("ticker", inst.Ticker).Msg("write signal record")
		}
		metrics.SignalChangesTotal.WithLabelValues(inst.Ticker, sig.String()).Inc()
		p.log.Info().
			Str("ticker", inst.Ticker).
			Float64("price", price).
			Float64("short_ma", shortAvg).
			Float64("long_ma", longAvg).
			Str("signal", sig.String()).
			Msg("signal change")
		state.last = sig
	}
	return nil
}
