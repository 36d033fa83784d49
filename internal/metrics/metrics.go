package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_fetches_total", Help: "Quote fetch attempts by final outcome"},
		[]string{"ticker", "outcome"},
	)
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_retries_total", Help: "Rate-limit retries performed"},
		[]string{"ticker"},
	)
	SignalChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signal_changes_total", Help: "Signal transitions written to the log"},
		[]string{"ticker", "signal"},
	)
	SessionPhase = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "session_phase", Help: "Current session phase (0 before open, 1 high frequency, 2 low frequency, 3 closed)"},
	)
)

func init() {
	prometheus.MustRegister(FetchesTotal, RetriesTotal, SignalChangesTotal, SessionPhase)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
