package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"swingwatch-go/internal/config"
	"swingwatch-go/internal/metrics"
	"swingwatch-go/internal/poller"
	"swingwatch-go/internal/quote"
	"swingwatch-go/internal/record"
	"swingwatch-go/internal/session"
	"swingwatch-go/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	log := util.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	policy, err := session.NewPolicy(
		cfg.Session.Open,
		cfg.Session.Close,
		cfg.Session.Timezone,
		cfg.Session.HighFreqInterval(),
		cfg.Session.HighFreqDuration(),
		cfg.Session.LowFreqGrid(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build session policy")
	}

	client := quote.NewClient(
		quote.WithBaseURL(cfg.Quote.BaseURL),
		quote.WithTimeout(cfg.Quote.Timeout()),
	)

	sink, err := record.NewCSV(cfg.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("open signal log")
	}
	defer sink.Close()

	p := poller.New(poller.Config{
		Instruments:    cfg.Instruments(),
		ShortPeriod:    cfg.Strategy.ShortPeriod,
		LongPeriod:     cfg.Strategy.LongPeriod,
		Retries:        cfg.Quote.RetryCount,
		RetryDelay:     cfg.Quote.RetryDelay(),
		Stagger:        cfg.Poll.Stagger(),
		PreloadStagger: cfg.Poll.PreloadStagger(),
	}, client, sink, policy, poller.SystemClock{}, log)

	log.Info().
		Int("tickers", len(cfg.Tickers)).
		Str("open", cfg.Session.Open).
		Str("close", cfg.Session.Close).
		Str("timezone", cfg.Session.Timezone).
		Str("log_file", cfg.LogFile).
		Msg("swingwatch started")

	if err := p.Preload(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Fatal().Err(err).Msg("preload")
	}

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("poller stopped")
	}
	log.Info().Msg("shutting down")
}
