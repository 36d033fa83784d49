package record

import (
	"sync"

	"swingwatch-go/internal/market"
)

// Memory keeps records in a slice for quick inspection in tests.
type Memory struct {
	mu      sync.Mutex
	records []market.SignalRecord
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Write appends the record.
func (m *Memory) Write(rec market.SignalRecord) error {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the recorded entries.
func (m *Memory) Snapshot() []market.SignalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]market.SignalRecord, len(m.records))
	copy(out, m.records)
	return out
}
