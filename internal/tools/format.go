package tools

import (
	"fmt"
	"strings"
	"time"

	"tradestream/internal/stream"
)

// Text rendering for tool results. Formatting is an output-only concern:
// every number here comes from structured records, never from re-parsing
// display text.

func fmtMinutes(d time.Duration) string {
	return fmt.Sprintf("%.1f minutes", d.Minutes())
}

func fmtClock(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05.000")
}

func utilization(stats stream.BufferStats) string {
	if stats.Capacity <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", stats.CurrentSize, stats.Capacity,
		float64(stats.CurrentSize)/float64(stats.Capacity)*100)
}

func capacityLabel(capacity int) string {
	if capacity <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%s items per buffer", groupInt(int64(capacity)))
}

func durationLabel(d time.Duration) string {
	if d <= 0 {
		return "indefinite"
	}
	return fmt.Sprintf("%s seconds", groupInt(int64(d.Seconds())))
}

func kindList(kinds []stream.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

func formatStartResult(res *stream.StartResult) string {
	var b strings.Builder
	b.WriteString("STOCK STREAM STARTED\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "  Symbols: %s (%d)\n", strings.Join(res.Symbols, ", "), len(res.Symbols))
	fmt.Fprintf(&b, "  Data Kinds: %s\n", kindList(res.Kinds))
	fmt.Fprintf(&b, "  Feed: %s\n", strings.ToUpper(string(res.Feed)))
	fmt.Fprintf(&b, "  Duration: %s\n", durationLabel(res.Duration))
	fmt.Fprintf(&b, "  Buffer Size per Symbol: %s\n", capacityLabel(res.BufferCapacity))
	fmt.Fprintf(&b, "  Start Time: %s\n", res.StartedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("\nData Access:\n")
	b.WriteString("  get_stock_stream_data - recent records for a symbol\n")
	b.WriteString("  get_stock_stream_buffer_stats - buffer statistics\n")
	b.WriteString("  list_active_stock_streams - stream status\n")
	b.WriteString("  stream_aware_price_monitor - derived price/volume signal\n")
	b.WriteString("\nManagement:\n")
	b.WriteString("  add_symbols_to_stock_stream - add more symbols\n")
	b.WriteString("  stop_global_stock_stream - stop streaming\n")
	return b.String()
}

func formatAlreadyActive(status *stream.StatusReport) string {
	var b strings.Builder
	b.WriteString("Error: stock stream already active\n\n")
	if status != nil {
		b.WriteString("Current Stream:\n")
		symbols := make(map[string]struct{})
		for _, list := range status.Subscriptions {
			for _, sym := range list {
				symbols[sym] = struct{}{}
			}
		}
		var kinds []string
		for k := range status.Subscriptions {
			kinds = append(kinds, string(k))
		}
		fmt.Fprintf(&b, "  Symbols: %d subscribed\n", len(symbols))
		fmt.Fprintf(&b, "  Data Kinds: %s\n", strings.Join(kinds, ", "))
		fmt.Fprintf(&b, "  Feed: %s\n", strings.ToUpper(string(status.Feed)))
		fmt.Fprintf(&b, "  Runtime: %s\n", fmtMinutes(status.Elapsed))
		b.WriteString("\n")
	}
	b.WriteString("Options:\n")
	b.WriteString("  add_symbols_to_stock_stream - add symbols to the running stream\n")
	b.WriteString("  stop_global_stock_stream - stop the current stream\n")
	b.WriteString("  replace_existing=true - replace the current stream\n")
	return b.String()
}

func formatStopResult(res *stream.StopResult) string {
	var b strings.Builder
	b.WriteString("STOCK STREAM STOPPED\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	b.WriteString("Final Statistics:\n")
	fmt.Fprintf(&b, "  Runtime: %s\n", fmtMinutes(res.Runtime))
	fmt.Fprintf(&b, "  Total Events Processed: %s\n", groupInt(res.TotalEvents))
	fmt.Fprintf(&b, "  Items in Buffers: %s\n", groupInt(res.BufferedItems))
	if mins := res.Runtime.Minutes(); mins > 0 {
		fmt.Fprintf(&b, "  Average Rate: %.1f events/min\n", float64(res.TotalEvents)/mins)
	}

	if len(res.EventsByKind) > 0 {
		b.WriteString("\nEvent Breakdown:\n")
		for _, k := range stream.AllKinds() {
			count, ok := res.EventsByKind[k]
			if !ok {
				continue
			}
			pct := 0.0
			if res.TotalEvents > 0 {
				pct = float64(count) / float64(res.TotalEvents) * 100
			}
			fmt.Fprintf(&b, "  %s: %s (%.1f%%)\n", k, groupInt(count), pct)
		}
	}

	b.WriteString("\nData Retention:\n")
	fmt.Fprintf(&b, "  Buffers: %d remain in memory\n", res.BufferCount)
	b.WriteString("  Restart streaming to query them, or clear_stock_stream_buffers to free memory\n")
	return b.String()
}

func formatAddResult(res *stream.AddResult) string {
	var b strings.Builder
	b.WriteString("SYMBOLS ADDED TO STOCK STREAM\n\n")
	fmt.Fprintf(&b, "Added: %s\n", strings.Join(res.Added, ", "))
	fmt.Fprintf(&b, "Data Kinds: %s\n", kindList(res.Kinds))
	fmt.Fprintf(&b, "Total Symbols: %d\n", res.TotalSymbols)
	fmt.Fprintf(&b, "Buffers Created: %d\n", res.BuffersCreated)
	fmt.Fprintf(&b, "Runtime: %s\n", fmtMinutes(res.Runtime))
	fmt.Fprintf(&b, "Total Events: %s\n", groupInt(res.TotalEvents))
	return b.String()
}

func formatDataResult(res *stream.DataResult) string {
	timeFilter := "all time"
	if res.Window > 0 {
		timeFilter = fmt.Sprintf("last %ds", int(res.Window.Seconds()))
	}

	if len(res.Records) == 0 {
		return fmt.Sprintf("No %s data found for %s (%s)", res.Kind, res.Symbol, timeFilter)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "STOCK STREAM DATA: %s - %s\n", res.Symbol, strings.ToUpper(string(res.Kind)))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	fmt.Fprintf(&b, "Filter: %s", timeFilter)
	if res.Limited {
		fmt.Fprintf(&b, ", limited to %d items", res.Limit)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Results: %d items\n", len(res.Records))
	fmt.Fprintf(&b, "Buffer: %d items (utilization: %s)\n\n", res.Buffer.CurrentSize, utilization(res.Buffer))

	switch res.Kind {
	case stream.KindTrades:
		b.WriteString("Recent Trades:\n")
		for i, rec := range tail(res.Records, 10) {
			t := rec.Trade
			if t == nil {
				continue
			}
			fmt.Fprintf(&b, "  %2d. $%8.4f x %s @ %s\n", i+1, t.Price, groupInt(t.Size), fmtClock(t.Timestamp))
		}
		writeTradeAnalysis(&b, res.Records)
	case stream.KindQuotes:
		b.WriteString("Recent Quotes:\n")
		for i, rec := range tail(res.Records, 10) {
			q := rec.Quote
			if q == nil {
				continue
			}
			fmt.Fprintf(&b, "  %2d. bid %s / ask %s @ %s\n", i+1,
				priceOrNA(q.BidPrice), priceOrNA(q.AskPrice), fmtClock(q.Timestamp))
		}
	case stream.KindBars, stream.KindUpdatedBars, stream.KindDailyBars:
		b.WriteString("Recent Bars:\n")
		for i, rec := range tail(res.Records, 5) {
			bar := rec.Bar
			if bar == nil {
				continue
			}
			fmt.Fprintf(&b, "  %d. O:$%.4f H:$%.4f L:$%.4f C:$%.4f V:%s\n",
				i+1, bar.Open, bar.High, bar.Low, bar.Close, groupInt(bar.Volume))
		}
	case stream.KindStatuses:
		b.WriteString("Recent Statuses:\n")
		for i, rec := range tail(res.Records, 10) {
			s := rec.Status
			if s == nil {
				continue
			}
			fmt.Fprintf(&b, "  %2d. %s (tape %s) @ %s\n", i+1, s.Status, s.Tape, fmtClock(s.Timestamp))
		}
	}

	return b.String()
}

func writeTradeAnalysis(b *strings.Builder, records []stream.Record) {
	var (
		count  int
		volume int64
		low    float64
		high   float64
		last   float64
	)
	for _, rec := range records {
		t := rec.Trade
		if t == nil {
			continue
		}
		if count == 0 || t.Price < low {
			low = t.Price
		}
		if count == 0 || t.Price > high {
			high = t.Price
		}
		last = t.Price
		volume += t.Size
		count++
	}
	if count < 2 {
		return
	}

	b.WriteString("\nQuick Analysis:\n")
	fmt.Fprintf(b, "  Price Range: $%.4f - $%.4f\n", low, high)
	fmt.Fprintf(b, "  Last Price: $%.4f\n", last)
	fmt.Fprintf(b, "  Total Volume: %s shares\n", groupInt(volume))
	fmt.Fprintf(b, "  Avg Trade Size: %s shares\n", groupInt(volume/int64(count)))
}

func priceOrNA(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.4f", *p)
}

func formatStatus(status *stream.StatusReport) string {
	var b strings.Builder
	b.WriteString("ACTIVE STOCK STREAMING STATUS\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("Stream Configuration:\n")
	fmt.Fprintf(&b, "  Feed: %s\n", strings.ToUpper(string(status.Feed)))
	fmt.Fprintf(&b, "  Runtime: %s\n", fmtMinutes(status.Elapsed))
	fmt.Fprintf(&b, "  Buffer Size: %s\n", capacityLabel(status.BufferCapacity))
	if status.Duration > 0 {
		fmt.Fprintf(&b, "  Duration: %s (%s remaining)\n",
			fmtMinutes(status.Duration), fmtMinutes(status.Remaining))
	} else {
		b.WriteString("  Duration: indefinite\n")
	}

	b.WriteString("\nActive Subscriptions:\n")
	for _, k := range stream.AllKinds() {
		symbols, ok := status.Subscriptions[k]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s (%d symbols)\n",
			strings.ToUpper(string(k)), strings.Join(symbols, ", "), len(symbols))
	}
	fmt.Fprintf(&b, "\nTotal Unique Symbols: %d\n", status.TotalSymbols)

	b.WriteString("\nStreaming Statistics:\n")
	fmt.Fprintf(&b, "  Total Events: %s\n", groupInt(status.TotalEvents))
	if status.EventsPerMin > 0 {
		fmt.Fprintf(&b, "  Rate: %.1f events/min\n", status.EventsPerMin)
	}
	for _, k := range stream.AllKinds() {
		if count, ok := status.EventsByKind[k]; ok {
			fmt.Fprintf(&b, "  %s: %s\n", k, groupInt(count))
		}
	}

	b.WriteString("\nBuffer Status:\n")
	fmt.Fprintf(&b, "  Total Buffers: %d\n", status.BufferCount)
	fmt.Fprintf(&b, "  Total Items Buffered: %s\n", groupInt(status.BufferedItems))
	return b.String()
}

func formatRegistryReport(report *stream.RegistryReport) string {
	var b strings.Builder
	b.WriteString("STOCK STREAM BUFFER STATISTICS\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "  Total Buffers: %d\n", report.TotalBuffers)
	fmt.Fprintf(&b, "  Total Items: %s\n", groupInt(report.TotalItems))
	fmt.Fprintf(&b, "  Unique Symbols: %d\n", len(report.Symbols))
	if report.TotalBuffers > 0 {
		fmt.Fprintf(&b, "  Avg Items per Buffer: %.1f\n",
			float64(report.TotalItems)/float64(report.TotalBuffers))
	}

	b.WriteString("\nPer-Symbol Breakdown:\n")
	for _, sym := range report.Symbols {
		fmt.Fprintf(&b, "  %s:\n", sym.Symbol)
		fmt.Fprintf(&b, "    Buffers: %d (%s)\n", sym.Buffers, kindList(sym.Kinds))
		fmt.Fprintf(&b, "    Items: %s\n", groupInt(sym.Items))
	}

	b.WriteString("\nDetailed Buffer Information:\n")
	for _, buf := range report.Buffers {
		fmt.Fprintf(&b, "  %s/%s:\n", buf.Key.Symbol, buf.Key.Kind)
		fmt.Fprintf(&b, "    Size: %s\n", utilization(buf.Stats))
		fmt.Fprintf(&b, "    Total Added: %s\n", groupInt(buf.Stats.TotalAdded))
		fmt.Fprintf(&b, "    Last Update: %s\n", fmtClock(buf.Stats.LastUpdate))
	}

	fmt.Fprintf(&b, "\nEstimated Memory Usage: %.1f MB (heuristic)\n",
		float64(report.EstimatedBytes)/(1024*1024))
	return b.String()
}

func formatClearResult(res *stream.ClearResult) string {
	var b strings.Builder
	b.WriteString("STOCK STREAM BUFFERS CLEARED\n\n")
	fmt.Fprintf(&b, "Buffers Cleared: %d\n", res.BuffersCleared)
	fmt.Fprintf(&b, "Items Removed: %s\n", groupInt(res.ItemsRemoved))
	fmt.Fprintf(&b, "Memory Freed: ~%.1f MB (estimate)\n", float64(res.FreedBytesEst)/(1024*1024))
	b.WriteString("\nBuffers remain allocated but empty; streaming continues if active.\n")
	return b.String()
}

func formatMonitorReport(report *stream.MonitorReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "STREAM-AWARE MONITORING: %s\n", report.Symbol)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	if report.CurrentPrice != nil {
		fmt.Fprintf(&b, "Current Price: $%.4f\n", *report.CurrentPrice)
	} else {
		b.WriteString("Current Price: pending data\n")
	}
	if report.Spread != nil {
		fmt.Fprintf(&b, "Bid-Ask Spread: $%.4f\n", *report.Spread)
	} else {
		b.WriteString("Bid-Ask Spread: N/A\n")
	}

	fmt.Fprintf(&b, "\nVolume Analysis (%ds):\n", int(report.Window.Seconds()))
	fmt.Fprintf(&b, "  Trades: %d\n", report.TradeCount)
	fmt.Fprintf(&b, "  Total Volume: %s shares\n", groupInt(report.TotalVolume))
	fmt.Fprintf(&b, "  Avg Trade Size: %s shares\n", groupInt(report.AvgTradeSize))
	if report.PriceLow != nil && report.PriceHigh != nil {
		fmt.Fprintf(&b, "  Price Range: $%.4f - $%.4f\n", *report.PriceLow, *report.PriceHigh)
	} else {
		b.WriteString("  Price Range: N/A\n")
	}

	if report.SpreadPct != nil {
		b.WriteString("\nTrading Conditions:\n")
		label := "(tight)"
		if *report.SpreadPct >= 0.5 {
			label = "(wide)"
		}
		fmt.Fprintf(&b, "  Spread: %.3f%% %s\n", *report.SpreadPct, label)
		liquidity := "limited"
		if report.TradeCount > 5 {
			liquidity = "good"
		}
		fmt.Fprintf(&b, "  Liquidity: %s\n", liquidity)
	}

	if len(report.Notes) > 0 {
		b.WriteString("\nNotes:\n")
		for _, note := range report.Notes {
			fmt.Fprintf(&b, "  - %s\n", note)
		}
	}
	return b.String()
}

func formatOrderResult(res *stream.OrderResult) string {
	var b strings.Builder
	b.WriteString("STREAM-OPTIMIZED ORDER PLACEMENT\n")
	b.WriteString(strings.Repeat("=", 45) + "\n\n")

	b.WriteString("Stream Pricing:\n")
	fmt.Fprintf(&b, "  Symbol: %s\n", res.Symbol)
	fmt.Fprintf(&b, "  Side: %s\n", res.Side)
	fmt.Fprintf(&b, "  Quantity: %g\n", res.Quantity)
	fmt.Fprintf(&b, "  Limit Price: $%.4f (from stream %s)\n", res.LimitPrice, res.Reference)
	fmt.Fprintf(&b, "  Order Type: %s\n", strings.ToUpper(res.OrderType))
	b.WriteString("  Execution: IOC\n")

	if res.Order != nil {
		b.WriteString("\nOrder Result:\n")
		fmt.Fprintf(&b, "  ID: %s\n", res.Order.ID)
		fmt.Fprintf(&b, "  Status: %s\n", res.Order.Status)
		fmt.Fprintf(&b, "  Filled Qty: %s\n", res.Order.FilledQty)
		if !res.Order.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "  Created: %s\n", res.Order.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return b.String()
}

func tail(records []stream.Record, n int) []stream.Record {
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
