// Package record persists signal change events to an append-only sink.
package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"swingwatch-go/internal/market"
)

// Writer is implemented by every signal sink.
type Writer interface {
	Write(rec market.SignalRecord) error
}

const timestampLayout = "2006-01-02 15:04:05"

var header = []string{"Timestamp", "Ticker", "Price", "Short_MA", "Long_MA", "Signal"}

// CSV appends signal records to a file, creating it with a header row when it
// does not exist yet.
type CSV struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewCSV creates/opens the target file, writing the header if the file is new.
func NewCSV(path string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open signal log: %w", err)
	}
	w := csv.NewWriter(file)

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat signal log: %w", err)
	}
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
	}
	return &CSV{file: file, w: w}, nil
}

// Write appends one record and flushes it to disk.
func (c *CSV) Write(rec market.SignalRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	row := []string{
		rec.Ts.Format(timestampLayout),
		rec.Ticker,
		fmt.Sprintf("%.2f", rec.Price),
		fmt.Sprintf("%.2f", rec.ShortAvg),
		fmt.Sprintf("%.2f", rec.LongAvg),
		rec.Signal.String(),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	c.w.Flush()
	err := c.file.Close()
	c.file = nil
	return err
}
