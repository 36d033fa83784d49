// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"swingwatch-go/internal/market"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// Ticker names one tracked instrument.
type Ticker struct {
	Ticker   string `yaml:"ticker"`
	Exchange string `yaml:"exchange"`
}

// Strategy holds the moving-average periods.
type Strategy struct {
	ShortPeriod int `yaml:"short_period"`
	LongPeriod  int `yaml:"long_period"`
}

// Session describes the trading day and the polling cadence within it.
type Session struct {
	Open                 string `yaml:"open"`
	Close                string `yaml:"close"`
	Timezone             string `yaml:"timezone"`
	HighFreqIntervalSecs int    `yaml:"high_freq_interval_secs"`
	HighFreqDurationMins int    `yaml:"high_freq_duration_mins"`
	LowFreqGridMins      int    `yaml:"low_freq_grid_mins"`
}

// Quote configures the scanner endpoint and the caller-side retry policy.
type Quote struct {
	BaseURL        string `yaml:"base_url" envconfig:"QUOTE_BASE_URL"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
	RetryCount     int    `yaml:"retry_count"`
	RetryDelaySecs int    `yaml:"retry_delay_secs"`
}

// Poll tunes the delays that spread upstream load.
type Poll struct {
	StaggerMs        int `yaml:"stagger_ms"`
	PreloadStaggerMs int `yaml:"preload_stagger_ms"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Screener string   `yaml:"screener"`
	Tickers  []Ticker `yaml:"tickers"`
	Strategy Strategy `yaml:"strategy"`
	Session  Session  `yaml:"session"`
	Quote    Quote    `yaml:"quote"`
	Poll     Poll     `yaml:"poll"`
	LogFile  string   `yaml:"log_file" envconfig:"SIGNAL_LOG_FILE"`
}

// Load reads a YAML file, overlays environment variables (a .env file is
// honored when present), and applies defaults for anything left unset.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	_ = godotenv.Load()
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "swingwatch"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Screener == "" {
		c.Screener = "america"
	}
	if len(c.Tickers) == 0 {
		c.Tickers = []Ticker{
			{Ticker: "TSLA", Exchange: "NASDAQ"},
			{Ticker: "MSFT", Exchange: "NASDAQ"},
			{Ticker: "NVDA", Exchange: "NASDAQ"},
			{Ticker: "PLTR", Exchange: "NASDAQ"},
		}
	}
	if c.Strategy.ShortPeriod == 0 {
		c.Strategy.ShortPeriod = 5
	}
	if c.Strategy.LongPeriod == 0 {
		c.Strategy.LongPeriod = 15
	}
	if c.Session.Open == "" {
		c.Session.Open = "09:30"
	}
	if c.Session.Close == "" {
		c.Session.Close = "16:00"
	}
	if c.Session.Timezone == "" {
		c.Session.Timezone = "America/New_York"
	}
	if c.Session.HighFreqIntervalSecs == 0 {
		c.Session.HighFreqIntervalSecs = 60
	}
	if c.Session.HighFreqDurationMins == 0 {
		c.Session.HighFreqDurationMins = 30
	}
	if c.Session.LowFreqGridMins == 0 {
		c.Session.LowFreqGridMins = 10
	}
	if c.Quote.TimeoutSecs == 0 {
		c.Quote.TimeoutSecs = 10
	}
	if c.Quote.RetryCount == 0 {
		c.Quote.RetryCount = 3
	}
	if c.Quote.RetryDelaySecs == 0 {
		c.Quote.RetryDelaySecs = 5
	}
	if c.Poll.StaggerMs == 0 {
		c.Poll.StaggerMs = 1000
	}
	if c.Poll.PreloadStaggerMs == 0 {
		c.Poll.PreloadStaggerMs = 1500
	}
	if c.LogFile == "" {
		c.LogFile = "signals.csv"
	}
}

// Instruments expands the configured tickers into market instruments carrying
// the screener tag.
func (c *Config) Instruments() []market.Instrument {
	out := make([]market.Instrument, 0, len(c.Tickers))
	for _, t := range c.Tickers {
		out = append(out, market.Instrument{Ticker: t.Ticker, Exchange: t.Exchange, Screener: c.Screener})
	}
	return out
}

// HighFreqInterval returns the fixed polling interval used right after open.
func (s Session) HighFreqInterval() time.Duration {
	return time.Duration(s.HighFreqIntervalSecs) * time.Second
}

// HighFreqDuration returns how long the high-frequency phase lasts.
func (s Session) HighFreqDuration() time.Duration {
	return time.Duration(s.HighFreqDurationMins) * time.Minute
}

// LowFreqGrid returns the wall-clock alignment period for the rest of the day.
func (s Session) LowFreqGrid() time.Duration {
	return time.Duration(s.LowFreqGridMins) * time.Minute
}

// Timeout returns the per-request HTTP timeout.
func (q Quote) Timeout() time.Duration {
	return time.Duration(q.TimeoutSecs) * time.Second
}

// RetryDelay returns the pause between rate-limit retries.
func (q Quote) RetryDelay() time.Duration {
	return time.Duration(q.RetryDelaySecs) * time.Second
}

// Stagger returns the inter-instrument delay within a tick.
func (p Poll) Stagger() time.Duration {
	return time.Duration(p.StaggerMs) * time.Millisecond
}

// PreloadStagger returns the delay between preload calls at startup.
func (p Poll) PreloadStagger() time.Duration {
	return time.Duration(p.PreloadStaggerMs) * time.Millisecond
}
