package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradestream/pkg/alpaca"
)

type captivePublisher struct {
	mu      sync.Mutex
	records []Record
}

func (p *captivePublisher) Publish(rec Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

func startWithPublisher(t *testing.T, pub RecordPublisher) (*Manager, *fakeStream) {
	t.Helper()
	fake := &fakeStream{}
	m := NewManager(Options{
		Connect:    func(feed alpaca.Feed) (MarketStream, error) { return fake, nil },
		Publisher:  pub,
		ReadyDelay: time.Millisecond,
	})
	_, err := m.Start(context.Background(), StartOptions{
		Symbols: []string{"AAPL"},
		Kinds:   AllKinds(),
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { m.Stop() })
	return m, fake
}

// go test -v --run TestHandlerIngestsFrame
func TestHandlerIngestsFrame(t *testing.T) {
	m, fake := startWithPublisher(t, nil)

	// One frame carrying a trade, a quote, a bar, and a status event.
	fake.emit([]byte(`[
		{"T":"t","S":"AAPL","p":150.25,"s":100,"t":"2026-01-02T15:04:05Z","c":["@"],"x":"V"},
		{"T":"q","S":"AAPL","bp":150.20,"bs":3,"ap":150.30,"as":5,"t":"2026-01-02T15:04:05Z"},
		{"T":"b","S":"AAPL","o":150.0,"h":151.0,"l":149.5,"c":150.5,"v":10000,"t":"2026-01-02T15:04:00Z"},
		{"T":"s","S":"AAPL","sc":"T","sm":"Trading","t":"2026-01-02T15:04:05Z"}
	]`))

	checks := []struct {
		kind Kind
		want int
	}{
		{KindTrades, 1},
		{KindQuotes, 1},
		{KindBars, 1},
		{KindStatuses, 1},
	}
	for _, c := range checks {
		buf := m.Registry().Get("AAPL", c.kind)
		if buf == nil {
			t.Fatalf("missing %s buffer", c.kind)
		}
		if buf.Len() != c.want {
			t.Errorf("%s: expected %d records, got %d", c.kind, c.want, buf.Len())
		}
	}

	status, err := m.Status()
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.TotalEvents != 4 {
		t.Errorf("expected 4 events counted, got %d", status.TotalEvents)
	}
}

// go test -v --run TestHandlerQuoteMissingSide
func TestHandlerQuoteMissingSide(t *testing.T) {
	m, fake := startWithPublisher(t, nil)

	// One-sided quote: no ask fields at all.
	fake.emit([]byte(`[{"T":"q","S":"AAPL","bp":150.20,"bs":3,"t":"2026-01-02T15:04:05Z"}]`))

	buf := m.Registry().Get("AAPL", KindQuotes)
	if buf == nil || buf.Len() != 1 {
		t.Fatal("expected one quote record")
	}

	q := buf.SnapshotAll()[0].Quote
	if q.BidPrice == nil || *q.BidPrice != 150.20 {
		t.Errorf("expected bid 150.20, got %v", q.BidPrice)
	}
	if q.AskPrice != nil {
		t.Errorf("missing ask must stay nil, got %v", *q.AskPrice)
	}
}

// go test -v --run TestHandlerMalformedEvent
func TestHandlerMalformedEvent(t *testing.T) {
	m, fake := startWithPublisher(t, nil)

	// The malformed trade must not poison the valid one in the same frame.
	fake.emit([]byte(`[
		{"T":"t","S":"AAPL","p":"not-a-number"},
		{"T":"t","S":"AAPL","p":150.25,"s":100,"t":"2026-01-02T15:04:05Z"}
	]`))
	fake.emit([]byte(`this is not json`))

	buf := m.Registry().Get("AAPL", KindTrades)
	if buf == nil {
		t.Fatal("missing trade buffer")
	}
	if buf.Len() != 1 {
		t.Errorf("expected exactly the valid trade, got %d records", buf.Len())
	}
}

// go test -v --run TestHandlerDropsEmptySymbol
func TestHandlerDropsEmptySymbol(t *testing.T) {
	m, fake := startWithPublisher(t, nil)

	fake.emit([]byte(`[{"T":"t","p":150.25,"s":100,"t":"2026-01-02T15:04:05Z"}]`))

	status, err := m.Status()
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.TotalEvents != 0 {
		t.Errorf("symbol-less event must be dropped, counted %d", status.TotalEvents)
	}
}

// go test -v --run TestHandlerPublishesRecords
func TestHandlerPublishesRecords(t *testing.T) {
	pub := &captivePublisher{}
	_, fake := startWithPublisher(t, pub)

	fake.emit([]byte(`[{"T":"t","S":"AAPL","p":150.25,"s":100,"t":"2026-01-02T15:04:05Z"}]`))

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.records) != 1 {
		t.Fatalf("expected 1 published record, got %d", len(pub.records))
	}
	rec := pub.records[0]
	if rec.Symbol != "AAPL" || rec.Kind != KindTrades || rec.Trade == nil {
		t.Errorf("unexpected published record: %+v", rec)
	}
}
