package alert

import (
	"sync"
)

const (
	// DefaultHistorySize is how many records are kept in memory.
	DefaultHistorySize = 500
	// RecentCount is how many records the API exposes.
	RecentCount = 50
)

// History records the last N alert records, oldest first.
type History struct {
	MaxRecordCount int
	records        []Record
	mu             *sync.Mutex
}

// NewHistory returns a new History.
func NewHistory(maxRecordCount int) *History {
	if maxRecordCount <= 0 {
		maxRecordCount = DefaultHistorySize
	}
	return &History{
		MaxRecordCount: maxRecordCount,
		records:        make([]Record, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecord appends r, dropping the oldest record when full.
func (h *History) AddRecord(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.records) >= h.MaxRecordCount {
		h.records = h.records[1:]
	}
	h.records = append(h.records, r)
}

// GetRecords returns a copy of all records.
func (h *History) GetRecords() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// GetLastRecords returns a copy of the most recent n records, oldest first.
func (h *History) GetLastRecords(n int) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > len(h.records) {
		n = len(h.records)
	}
	out := make([]Record, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

// Len returns the number of stored records.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.records)
}
