// Package capture runs the continuous log capture engine: a subprocess
// stream feeding a bounded in-memory buffer, with synchronous observers and
// destructive reads.
package capture

import (
	"sync"

	"github.com/xcwatch/xcwatch/internal/metrics"
	"github.com/xcwatch/xcwatch/internal/oslog"
)

// DefaultBufferSize is the ring capacity used when the configuration does
// not name one.
const DefaultBufferSize = 1000

// Buffer is a bounded FIFO of captured records. Appending to a full buffer
// evicts the oldest record, so long sessions keep the newest window instead
// of growing without bound.
type Buffer struct {
	mu       sync.Mutex
	records  []oslog.Record
	capacity int
}

// NewBuffer builds a buffer holding at most capacity records.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{capacity: capacity}
}

// Append adds a record, evicting the oldest when full.
func (b *Buffer) Append(rec oslog.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) >= b.capacity {
		b.records = b.records[1:]
		metrics.RecordsDropped.Inc()
	}
	b.records = append(b.records, rec)
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Drain removes and returns up to n records from the front of the queue,
// oldest first; n <= 0 drains everything. Records beyond n stay buffered
// for the next reader, so each record is delivered to at most one reader.
func (b *Buffer) Drain(n int) []oslog.Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n >= len(b.records) {
		records := b.records
		b.records = nil
		return records
	}
	records := b.records[:n:n]
	b.records = b.records[n:]
	return records
}
