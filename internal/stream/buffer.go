package stream

import (
	"sync"
	"time"
)

// RingBuffer stores the records of one (symbol, kind) pair. A capacity of
// zero or less means unbounded growth; otherwise the oldest record is
// evicted when an append would exceed the capacity.
//
// One writer (the ingestion handler) and any number of concurrent readers
// are supported; readers always get copies, never the live slice.
type RingBuffer struct {
	mu         sync.Mutex
	capacity   int
	records    []Record // circular when bounded and full
	head       int      // index of the oldest record when bounded
	totalAdded int64
	lastUpdate time.Time
}

// BufferStats is a point-in-time view of one buffer's accounting.
// Capacity is 0 for unbounded buffers; TotalAdded counts all-time appends,
// not the retained length.
type BufferStats struct {
	CurrentSize int
	Capacity    int
	TotalAdded  int64
	LastUpdate  time.Time
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &RingBuffer{capacity: capacity}
}

// Append adds a record at the end, evicting the oldest one first when the
// buffer is bounded and full. O(1).
func (b *RingBuffer) Append(rec Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity > 0 && len(b.records) == b.capacity {
		b.records[b.head] = rec
		b.head = (b.head + 1) % b.capacity
	} else {
		b.records = append(b.records, rec)
	}
	b.totalAdded++
	b.lastUpdate = time.Now()
}

// SnapshotAll returns a copy of the current contents, oldest first.
func (b *RingBuffer) SnapshotAll() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// SnapshotRecent returns a copy of the records received within the given
// window of now, oldest first. A zero or negative window yields nothing.
func (b *RingBuffer) SnapshotRecent(window time.Duration) []Record {
	if window <= 0 {
		return nil
	}

	cutoff := time.Now().Add(-window)

	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshotLocked()
	// Records are in arrival order, so scan back to the first one inside
	// the window instead of filtering the whole slice.
	i := len(all)
	for i > 0 && !all[i-1].Received.Before(cutoff) {
		i--
	}
	return all[i:]
}

// Stats returns the buffer's current accounting.
func (b *RingBuffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		CurrentSize: len(b.records),
		Capacity:    b.capacity,
		TotalAdded:  b.totalAdded,
		LastUpdate:  b.lastUpdate,
	}
}

// Len returns the number of currently retained records.
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Clear empties the buffer and resets its counters. Clearing is a hard
// reset, not an eviction: TotalAdded starts from zero again. Capacity is
// kept.
func (b *RingBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = nil
	b.head = 0
	b.totalAdded = 0
	b.lastUpdate = time.Time{}
}

func (b *RingBuffer) snapshotLocked() []Record {
	out := make([]Record, 0, len(b.records))
	for i := 0; i < len(b.records); i++ {
		out = append(out, b.records[(b.head+i)%len(b.records)])
	}
	return out
}
