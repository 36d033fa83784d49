// Package strategy derives trading signals from recent price history.
package strategy

import (
	"swingwatch-go/internal/market"
	"swingwatch-go/internal/window"
)

// Crossover compares a short-period simple moving average against a
// long-period one over the same window and emits BUY/SELL/HOLD on the
// relationship between the two.
type Crossover struct {
	shortPeriod int
	longPeriod  int
}

// NewCrossover builds a crossover tracker with the given periods, defaulting
// to 5/15 and clamping the short period to the long one.
func NewCrossover(short, long int) *Crossover {
	if short <= 0 {
		short = 5
	}
	if long <= 0 {
		long = 15
	}
	if short > long {
		short = long
	}
	return &Crossover{shortPeriod: short, longPeriod: long}
}

// ShortPeriod returns the short average length.
func (c *Crossover) ShortPeriod() int { return c.shortPeriod }

// LongPeriod returns the long average length, which is also the window
// capacity trackers should allocate.
func (c *Crossover) LongPeriod() int { return c.longPeriod }

// Observe pushes price into the window and returns the resulting signal with
// both averages. Until the window holds LongPeriod prices the result is
// SignalPending with zero averages.
func (c *Crossover) Observe(w *window.Window, price float64) (market.Signal, float64, float64) {
	w.Push(price)
	if w.Len() < c.longPeriod {
		return market.SignalPending, 0, 0
	}
	shortAvg := w.Avg(c.shortPeriod)
	longAvg := w.Avg(c.longPeriod)
	switch {
	case shortAvg > longAvg:
		return market.SignalBuy, shortAvg, longAvg
	case shortAvg < longAvg:
		return market.SignalSell, shortAvg, longAvg
	default:
		return market.SignalHold, shortAvg, longAvg
	}
}
