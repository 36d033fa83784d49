// Package session maps wall-clock time onto the trading day and decides when
// the poller should wake next.
package session

import (
	"fmt"
	"time"

	"swingwatch-go/internal/market"
)

// Phase is the part of the trading day governing polling cadence.
type Phase int

const (
	PhaseBeforeOpen Phase = iota
	PhaseHighFreq
	PhaseLowFreq
	PhaseClosed
)

// String names the phase for logs.
func (p Phase) String() string {
	switch p {
	case PhaseBeforeOpen:
		return "before-open"
	case PhaseHighFreq:
		return "high-frequency"
	case PhaseLowFreq:
		return "low-frequency"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Policy derives the session phase and the next wake time from a timestamp.
// It is stateless; the open/close anchors are recomputed for the timestamp's
// own trading day on every call.
type Policy struct {
	loc        *time.Location
	openHour   int
	openMinute int
	closeHour  int
	closeMin   int

	highFreqDuration time.Duration
	highFreqInterval time.Duration
	grid             time.Duration
	preOpenFloor     time.Duration
	lowFreqFloor     time.Duration
}

// NewPolicy parses "HH:MM" open/close times in the given IANA timezone.
// highFreqDuration is how long after open the fixed high-frequency interval
// applies; grid is the wall-clock alignment period used afterwards.
func NewPolicy(open, close, timezone string, highFreqInterval, highFreqDuration, grid time.Duration) (Policy, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Policy{}, fmt.Errorf("load timezone: %w", err)
	}
	openT, err := time.Parse("15:04", open)
	if err != nil {
		return Policy{}, fmt.Errorf("parse open time: %w", err)
	}
	closeT, err := time.Parse("15:04", close)
	if err != nil {
		return Policy{}, fmt.Errorf("parse close time: %w", err)
	}
	if highFreqInterval <= 0 {
		highFreqInterval = time.Minute
	}
	if highFreqDuration < 0 {
		highFreqDuration = 0
	}
	if grid <= 0 {
		grid = 10 * time.Minute
	}
	return Policy{
		loc:              loc,
		openHour:         openT.Hour(),
		openMinute:       openT.Minute(),
		closeHour:        closeT.Hour(),
		closeMin:         closeT.Minute(),
		highFreqDuration: highFreqDuration,
		highFreqInterval: highFreqInterval,
		grid:             grid,
		preOpenFloor:     30 * time.Second,
		lowFreqFloor:     5 * time.Second,
	}, nil
}

func (p Policy) anchors(now time.Time) (open, highFreqEnd, close time.Time) {
	now = now.In(p.loc)
	open = time.Date(now.Year(), now.Month(), now.Day(), p.openHour, p.openMinute, 0, 0, p.loc)
	close = time.Date(now.Year(), now.Month(), now.Day(), p.closeHour, p.closeMin, 0, 0, p.loc)
	return open, open.Add(p.highFreqDuration), close
}

// Phase reports which part of the trading day now falls in. The
// high-frequency window is half-open: the instant it ends already belongs to
// the low-frequency phase, and the close instant itself is still in session.
func (p Policy) Phase(now time.Time) Phase {
	open, highFreqEnd, close := p.anchors(now)
	now = now.In(p.loc)
	switch {
	case now.Before(open):
		return PhaseBeforeOpen
	case now.Before(highFreqEnd):
		return PhaseHighFreq
	case !now.After(close):
		return PhaseLowFreq
	default:
		return PhaseClosed
	}
}

// Resolution returns the quote granularity matching a polling phase.
func (p Policy) Resolution(phase Phase) market.Resolution {
	if phase == PhaseHighFreq {
		return market.Res1Min
	}
	return market.Res15Min
}

// NextTick computes how long to sleep after a tick in the given phase.
// Closed returns zero; the loop is expected to exit instead of sleeping.
func (p Policy) NextTick(now time.Time, phase Phase) time.Duration {
	switch phase {
	case PhaseBeforeOpen:
		open, _, _ := p.anchors(now)
		wait := open.Sub(now.In(p.loc))
		if wait < p.preOpenFloor {
			wait = p.preOpenFloor
		}
		return wait
	case PhaseHighFreq:
		return p.highFreqInterval
	case PhaseLowFreq:
		wait := p.NextBoundary(now).Sub(now.In(p.loc))
		if wait < p.lowFreqFloor {
			wait = p.lowFreqFloor
		}
		return wait
	default:
		return 0
	}
}

// NextBoundary rounds now up to the next wall-clock multiple of the grid
// period. A timestamp already on a boundary advances a full period so the
// result is always strictly in the future.
func (p Policy) NextBoundary(now time.Time) time.Time {
	now = now.In(p.loc)
	gridMinutes := int(p.grid / time.Minute)
	if gridMinutes < 1 {
		gridMinutes = 1
	}
	next := now.Truncate(time.Minute)
	next = next.Add(-time.Duration(next.Minute()%gridMinutes) * time.Minute)
	next = next.Add(p.grid)
	if !next.After(now) {
		next = next.Add(p.grid)
	}
	return next
}
