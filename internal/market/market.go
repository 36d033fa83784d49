// Package market standardizes payloads shared between the quote, strategy, and
// persistence layers.
package market

import "time"

// Instrument identifies one tracked ticker on a venue. Configured at startup,
// never mutated afterwards.
type Instrument struct {
	Ticker   string
	Exchange string
	Screener string
}

// ScanSymbol renders the exchange-qualified symbol the scanner API expects,
// e.g. "NASDAQ:TSLA".
func (i Instrument) ScanSymbol() string {
	if i.Exchange == "" {
		return i.Ticker
	}
	return i.Exchange + ":" + i.Ticker
}

// Resolution is the sampling granularity of a quote.
type Resolution string

const (
	// Res1Min samples one-minute bars, used while polling at high frequency.
	Res1Min Resolution = "1m"
	// Res15Min samples fifteen-minute bars, used for the rest of the session.
	Res15Min Resolution = "15m"
)

// CloseColumn maps the resolution onto the scanner API's close-price column.
func (r Resolution) CloseColumn() string {
	switch r {
	case Res1Min:
		return "close|1"
	case Res15Min:
		return "close|15"
	default:
		return "close"
	}
}

// Signal expresses the crossover bias for one instrument.
type Signal int

const (
	// SignalPending means the window has not filled yet; it is not a real
	// signal and is never persisted.
	SignalPending Signal = iota
	SignalBuy
	SignalSell
	SignalHold
)

// String renders the persisted form of the signal; Pending renders empty.
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	case SignalHold:
		return "HOLD"
	default:
		return ""
	}
}

// PriceSample is one observed price for an instrument.
type PriceSample struct {
	Instrument Instrument
	Price      float64
	Ts         time.Time
}

// SignalRecord is the row appended to the signal log on every change event.
type SignalRecord struct {
	Ts       time.Time
	Ticker   string
	Price    float64
	ShortAvg float64
	LongAvg  float64
	Signal   Signal
}
