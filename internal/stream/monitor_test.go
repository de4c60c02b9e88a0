package stream

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quoteRecord(symbol string, bid, ask float64, at time.Time) Record {
	return Record{
		Symbol:   symbol,
		Kind:     KindQuotes,
		Received: at,
		Quote:    &QuoteData{BidPrice: &bid, AskPrice: &ask, Timestamp: at},
	}
}

// go test -v --run TestPriceMonitorRequiresStream
func TestPriceMonitorRequiresStream(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.PriceMonitor(context.Background(), "AAPL", 0)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

// go test -v --run TestPriceMonitorFullSignal
func TestPriceMonitorFullSignal(t *testing.T) {
	m := startedManager(t)
	now := time.Now()

	quotes := m.Registry().GetOrCreate("AAPL", KindQuotes, 0)
	quotes.Append(quoteRecord("AAPL", 99.0, 101.0, now.Add(-3*time.Second)))
	quotes.Append(quoteRecord("AAPL", 99.5, 100.5, now.Add(-1*time.Second)))

	trades := m.Registry().GetOrCreate("AAPL", KindTrades, 0)
	for i, price := range []float64{99.8, 100.2, 100.0} {
		rec := tradeRecord("AAPL", price, now.Add(-time.Duration(3-i)*time.Second))
		rec.Trade.Size = 200
		trades.Append(rec)
	}

	report, err := m.PriceMonitor(context.Background(), "aapl", 10*time.Second)
	if err != nil {
		t.Fatalf("monitor failed: %v", err)
	}

	// Newest two-sided quote wins: mid of 99.5/100.5.
	if report.CurrentPrice == nil || *report.CurrentPrice != 100.0 {
		t.Errorf("expected mid price 100.0, got %v", report.CurrentPrice)
	}
	if report.Spread == nil || *report.Spread != 1.0 {
		t.Errorf("expected spread 1.0, got %v", report.Spread)
	}
	if report.SpreadPct == nil || *report.SpreadPct != 1.0 {
		t.Errorf("expected spread pct 1.0, got %v", report.SpreadPct)
	}

	if report.TradeCount != 3 || report.TotalVolume != 600 || report.AvgTradeSize != 200 {
		t.Errorf("unexpected trade aggregates: %+v", report)
	}
	if report.PriceLow == nil || *report.PriceLow != 99.8 {
		t.Errorf("expected low 99.8, got %v", report.PriceLow)
	}
	if report.PriceHigh == nil || *report.PriceHigh != 100.2 {
		t.Errorf("expected high 100.2, got %v", report.PriceHigh)
	}
	if report.LastTradePrice == nil || *report.LastTradePrice != 100.0 {
		t.Errorf("expected last trade 100.0, got %v", report.LastTradePrice)
	}
}

// go test -v --run TestPriceMonitorTradeFallback
func TestPriceMonitorTradeFallback(t *testing.T) {
	m := startedManager(t)
	now := time.Now()

	// Trades only, no quote buffer data: current price falls back to the
	// last trade and the spread degrades with a note.
	m.Registry().GetOrCreate("AAPL", KindQuotes, 0)
	trades := m.Registry().GetOrCreate("AAPL", KindTrades, 0)
	trades.Append(tradeRecord("AAPL", 10.5, now.Add(-2*time.Second)))
	trades.Append(tradeRecord("AAPL", 11.0, now.Add(-1*time.Second)))

	report, err := m.PriceMonitor(context.Background(), "AAPL", 0)
	if err != nil {
		t.Fatalf("monitor failed: %v", err)
	}

	if report.Window != 10*time.Second {
		t.Errorf("expected default 10s window, got %v", report.Window)
	}
	if report.CurrentPrice == nil || *report.CurrentPrice != 11.0 {
		t.Errorf("expected fallback price 11.0, got %v", report.CurrentPrice)
	}
	if report.Spread != nil {
		t.Errorf("expected nil spread, got %v", *report.Spread)
	}
	if len(report.Notes) == 0 {
		t.Error("expected degradation notes")
	}
}

// go test --run TestPriceMonitorOneSidedQuotes -v
func TestPriceMonitorOneSidedQuotes(t *testing.T) {
	m := startedManager(t)
	now := time.Now()

	bid := 50.0
	quotes := m.Registry().GetOrCreate("AAPL", KindQuotes, 0)
	quotes.Append(Record{
		Symbol:   "AAPL",
		Kind:     KindQuotes,
		Received: now,
		Quote:    &QuoteData{BidPrice: &bid, Timestamp: now},
	})
	m.Registry().GetOrCreate("AAPL", KindTrades, 0)

	report, err := m.PriceMonitor(context.Background(), "AAPL", 10*time.Second)
	if err != nil {
		t.Fatalf("monitor failed: %v", err)
	}

	// A one-sided quote carries no spread and no mid price.
	if report.CurrentPrice != nil {
		t.Errorf("expected no price from one-sided quote, got %v", *report.CurrentPrice)
	}
	if report.Spread != nil {
		t.Errorf("expected no spread from one-sided quote, got %v", *report.Spread)
	}
}
