package stream

import (
	"fmt"
	"sort"
	"time"
)

// bytesPerRecordEst is the heuristic used for memory footprint reporting.
// An estimate, not an exact measure.
const bytesPerRecordEst = 200

// DataRequest selects a slice of one buffer.
type DataRequest struct {
	Symbol string
	Kind   Kind
	Window time.Duration // 0 = all retained data
	Limit  int           // keep the most recent N, 0 = no limit
}

// DataResult is a windowed read of one buffer.
type DataResult struct {
	Symbol  string
	Kind    Kind
	Window  time.Duration
	Limit   int
	Limited bool
	Records []Record
	Buffer  BufferStats
}

// GetData returns records for a (symbol, kind) pair, applying the time
// filter first and then the count limit, which keeps the most recent items.
// It requires an active session: buffers may still hold data after a stop,
// but reading through a stopped stream is deliberately gated.
func (m *Manager) GetData(req DataRequest) (*DataResult, error) {
	if !m.Active() {
		return nil, ErrNoActiveSession
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("invalid data kind: %q (valid: %v)", req.Kind, allKinds)
	}

	symbol := normalizeSymbol(req.Symbol)
	buf := m.registry.Get(symbol, req.Kind)
	if buf == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownBuffer, symbol, req.Kind)
	}

	var records []Record
	if req.Window > 0 {
		records = buf.SnapshotRecent(req.Window)
	} else {
		records = buf.SnapshotAll()
	}

	limited := false
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[len(records)-req.Limit:]
		limited = true
	}

	return &DataResult{
		Symbol:  symbol,
		Kind:    req.Kind,
		Window:  req.Window,
		Limit:   req.Limit,
		Limited: limited,
		Records: records,
		Buffer:  buf.Stats(),
	}, nil
}

// BufferReport is the per-buffer entry of a registry statistics report.
type BufferReport struct {
	Key   BufferKey
	Stats BufferStats
}

// SymbolStats groups buffer accounting per symbol.
type SymbolStats struct {
	Symbol  string
	Buffers int
	Items   int64
	Kinds   []Kind
}

// RegistryReport aggregates statistics across every registered buffer.
type RegistryReport struct {
	TotalBuffers   int
	TotalItems     int64
	Symbols        []SymbolStats // sorted by symbol
	Buffers        []BufferReport
	EstimatedBytes int64
}

// BufferStatsReport aggregates buffer statistics grouped by symbol. Fails
// with ErrNoBuffers when nothing has been registered yet.
func (m *Manager) BufferStatsReport() (*RegistryReport, error) {
	buffers := m.registry.All()
	if len(buffers) == 0 {
		return nil, ErrNoBuffers
	}

	report := &RegistryReport{TotalBuffers: len(buffers)}
	perSymbol := make(map[string]*SymbolStats)

	for key, buf := range buffers {
		stats := buf.Stats()
		report.TotalItems += int64(stats.CurrentSize)
		report.Buffers = append(report.Buffers, BufferReport{Key: key, Stats: stats})

		sym, ok := perSymbol[key.Symbol]
		if !ok {
			sym = &SymbolStats{Symbol: key.Symbol}
			perSymbol[key.Symbol] = sym
		}
		sym.Buffers++
		sym.Items += int64(stats.CurrentSize)
		sym.Kinds = append(sym.Kinds, key.Kind)
	}

	for _, sym := range perSymbol {
		sort.Slice(sym.Kinds, func(i, j int) bool { return sym.Kinds[i] < sym.Kinds[j] })
		report.Symbols = append(report.Symbols, *sym)
	}
	sort.Slice(report.Symbols, func(i, j int) bool {
		return report.Symbols[i].Symbol < report.Symbols[j].Symbol
	})
	sort.Slice(report.Buffers, func(i, j int) bool {
		a, b := report.Buffers[i].Key, report.Buffers[j].Key
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Kind < b.Kind
	})

	report.EstimatedBytes = report.TotalItems * bytesPerRecordEst
	return report, nil
}

// ClearResult summarizes a bulk buffer clear.
type ClearResult struct {
	BuffersCleared int
	ItemsRemoved   int64
	FreedBytesEst  int64
}

// ClearBuffers empties every registered buffer. The buffers stay allocated
// and registered; streaming, if active, continues into them.
func (m *Manager) ClearBuffers() *ClearResult {
	result := &ClearResult{
		BuffersCleared: m.registry.Len(),
		ItemsRemoved:   m.registry.TotalItems(),
	}
	result.FreedBytesEst = result.ItemsRemoved * bytesPerRecordEst
	m.registry.ClearAll()
	return result
}
