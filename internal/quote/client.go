package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"swingwatch-go/internal/market"
)

const (
	defaultBaseURL = "https://scanner.tradingview.com"
	defaultTimeout = 10 * time.Second
)

// Client fetches last close prices from a scanner-style screener endpoint.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

// Option configures Client construction parameters.
type Option func(*Client)

// WithBaseURL overrides the scanner endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a scanner client with sane defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		baseURL:   defaultBaseURL,
		userAgent: "swingwatch-go/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scanRequest struct {
	Symbols scanSymbols `json:"symbols"`
	Columns []string    `json:"columns"`
}

type scanSymbols struct {
	Tickers []string `json:"tickers"`
}

type scanResponse struct {
	Data []scanRow `json:"data"`
}

type scanRow struct {
	Symbol string    `json:"s"`
	Values []float64 `json:"d"`
}

// Fetch posts a single-symbol scan and returns the close price at the
// requested resolution. HTTP 429 maps to ErrRateLimited; everything else that
// goes wrong wraps ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, inst market.Instrument, res market.Resolution) (float64, error) {
	payload, err := json.Marshal(scanRequest{
		Symbols: scanSymbols{Tickers: []string{inst.ScanSymbol()}},
		Columns: []string{res.CloseColumn()},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal scan request: %w", ErrUnavailable)
	}

	screener := inst.Screener
	if screener == "" {
		screener = "america"
	}
	url := fmt.Sprintf("%s/%s/scan", c.baseURL, screener)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", ErrUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http do: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var parsed scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode response: %v: %w", err, ErrUnavailable)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Values) == 0 {
		return 0, fmt.Errorf("no data for %s: %w", inst.ScanSymbol(), ErrUnavailable)
	}
	price := parsed.Data[0].Values[0]
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price for %s: %w", inst.ScanSymbol(), ErrUnavailable)
	}
	return price, nil
}
