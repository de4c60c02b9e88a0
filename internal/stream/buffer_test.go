package stream

import (
	"testing"
	"time"
)

func tradeRecord(symbol string, price float64, at time.Time) Record {
	return Record{
		Symbol:   symbol,
		Kind:     KindTrades,
		Received: at,
		Trade:    &TradeData{Price: price, Size: 100, Timestamp: at},
	}
}

// go test -v --run TestRingBufferEviction
func TestRingBufferEviction(t *testing.T) {
	buf := NewRingBuffer(3)
	now := time.Now()

	for i, price := range []float64{1, 2, 3, 4, 5} {
		buf.Append(tradeRecord("AAPL", price, now.Add(time.Duration(i)*time.Second)))
	}

	records := buf.SnapshotAll()
	if len(records) != 3 {
		t.Fatalf("expected 3 records after eviction, got %d", len(records))
	}
	// Oldest first: 3, 4, 5 survive
	for i, want := range []float64{3, 4, 5} {
		if got := records[i].Trade.Price; got != want {
			t.Errorf("record %d: expected price %v, got %v", i, want, got)
		}
	}

	stats := buf.Stats()
	if stats.TotalAdded != 5 {
		t.Errorf("expected total_added 5, got %d", stats.TotalAdded)
	}
	if stats.CurrentSize != 3 {
		t.Errorf("expected current_size 3, got %d", stats.CurrentSize)
	}
	if stats.Capacity != 3 {
		t.Errorf("expected capacity 3, got %d", stats.Capacity)
	}
}

// go test -v --run TestRingBufferUnbounded
func TestRingBufferUnbounded(t *testing.T) {
	buf := NewRingBuffer(0)
	now := time.Now()

	for i := 0; i < 1000; i++ {
		buf.Append(tradeRecord("AAPL", float64(i), now))
	}

	if buf.Len() != 1000 {
		t.Fatalf("unbounded buffer dropped records: %d", buf.Len())
	}
	if cap := buf.Stats().Capacity; cap != 0 {
		t.Errorf("expected capacity 0 for unbounded buffer, got %d", cap)
	}
}

// go test -v --run TestRingBufferSnapshotRecent
func TestRingBufferSnapshotRecent(t *testing.T) {
	buf := NewRingBuffer(0)
	now := time.Now()

	buf.Append(tradeRecord("AAPL", 1, now.Add(-30*time.Second)))
	buf.Append(tradeRecord("AAPL", 2, now.Add(-10*time.Second)))
	buf.Append(tradeRecord("AAPL", 3, now.Add(-1*time.Second)))

	recent := buf.SnapshotRecent(15 * time.Second)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent records, got %d", len(recent))
	}
	if recent[0].Trade.Price != 2 {
		t.Errorf("expected oldest recent record price 2, got %v", recent[0].Trade.Price)
	}

	if got := buf.SnapshotRecent(0); got != nil {
		t.Errorf("expected nil for non-positive window, got %d records", len(got))
	}
}

// go test -v --run TestRingBufferClear
func TestRingBufferClear(t *testing.T) {
	buf := NewRingBuffer(10)
	buf.Append(tradeRecord("AAPL", 1, time.Now()))
	buf.Append(tradeRecord("AAPL", 2, time.Now()))

	buf.Clear()

	stats := buf.Stats()
	if stats.CurrentSize != 0 {
		t.Errorf("expected empty buffer after clear, got %d", stats.CurrentSize)
	}
	if stats.TotalAdded != 0 {
		t.Errorf("expected total_added reset after clear, got %d", stats.TotalAdded)
	}

	// Buffer stays usable after a clear.
	buf.Append(tradeRecord("AAPL", 3, time.Now()))
	if buf.Len() != 1 {
		t.Errorf("expected 1 record after re-append, got %d", buf.Len())
	}
}

// go test -v --run TestRingBufferEmptyStats
func TestRingBufferEmptyStats(t *testing.T) {
	stats := NewRingBuffer(5).Stats()
	if stats.CurrentSize != 0 || stats.TotalAdded != 0 {
		t.Errorf("expected zero stats for fresh buffer, got %+v", stats)
	}
	if !stats.LastUpdate.IsZero() {
		t.Errorf("expected zero last_update for fresh buffer, got %v", stats.LastUpdate)
	}
}
