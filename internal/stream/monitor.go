package stream

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// MonitorReport is the derived trading signal for one symbol, reconstructed
// from the buffered quote and trade windows. Pointer fields are nil when the
// underlying data was unavailable; Notes records which side degraded.
type MonitorReport struct {
	Symbol string
	Window time.Duration

	CurrentPrice *float64
	Spread       *float64
	SpreadPct    *float64

	TradeCount     int
	TotalVolume    int64
	AvgTradeSize   int64
	PriceLow       *float64
	PriceHigh      *float64
	LastTradePrice *float64

	Notes []string
}

// PriceMonitor pulls the last window of quotes and trades concurrently and
// derives mid-price, spread, and volume aggregates directly from the
// structured records. Either side failing degrades the report instead of
// failing the call; with no quote in the window the current price falls
// back to the last trade.
func (m *Manager) PriceMonitor(ctx context.Context, symbol string, window time.Duration) (*MonitorReport, error) {
	if !m.Active() {
		return nil, ErrNoActiveSession
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	symbol = normalizeSymbol(symbol)

	var (
		quotes, trades *DataResult
		quoteErr       error
		tradeErr       error
	)

	// Two independent reads with no ordering dependency; each is wrapped
	// so one side failing leaves the other usable.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		quotes, quoteErr = m.GetData(DataRequest{Symbol: symbol, Kind: KindQuotes, Window: window})
		return nil
	})
	g.Go(func() error {
		trades, tradeErr = m.GetData(DataRequest{Symbol: symbol, Kind: KindTrades, Window: window})
		return nil
	})
	_ = g.Wait()

	report := &MonitorReport{Symbol: symbol, Window: window}

	if quoteErr != nil {
		report.Notes = append(report.Notes, fmt.Sprintf("quotes unavailable: %v", quoteErr))
	} else {
		applyQuoteSignal(report, quotes.Records)
	}

	if tradeErr != nil {
		report.Notes = append(report.Notes, fmt.Sprintf("trades unavailable: %v", tradeErr))
	} else {
		applyTradeSignal(report, trades.Records)
	}

	if report.CurrentPrice == nil && report.LastTradePrice != nil {
		price := *report.LastTradePrice
		report.CurrentPrice = &price
		report.Notes = append(report.Notes, "no quote in window; price from last trade")
	}
	if report.Spread == nil {
		report.Notes = append(report.Notes, "spread unavailable")
	}

	return report, nil
}

// applyQuoteSignal derives mid-price and spread from the newest two-sided
// quote in the window.
func applyQuoteSignal(report *MonitorReport, records []Record) {
	for i := len(records) - 1; i >= 0; i-- {
		q := records[i].Quote
		if q == nil || q.BidPrice == nil || q.AskPrice == nil {
			continue
		}
		mid := (*q.BidPrice + *q.AskPrice) / 2
		spread := *q.AskPrice - *q.BidPrice
		report.CurrentPrice = &mid
		report.Spread = &spread
		if mid > 0 {
			pct := spread / mid * 100
			report.SpreadPct = &pct
		}
		return
	}
}

// applyTradeSignal derives count, volume, and price-range aggregates from
// every trade in the window.
func applyTradeSignal(report *MonitorReport, records []Record) {
	for _, rec := range records {
		t := rec.Trade
		if t == nil {
			continue
		}
		report.TradeCount++
		report.TotalVolume += t.Size

		price := t.Price
		if report.PriceLow == nil || price < *report.PriceLow {
			p := price
			report.PriceLow = &p
		}
		if report.PriceHigh == nil || price > *report.PriceHigh {
			p := price
			report.PriceHigh = &p
		}
		p := price
		report.LastTradePrice = &p
	}
	if report.TradeCount > 0 {
		report.AvgTradeSize = report.TotalVolume / int64(report.TradeCount)
	}
}
