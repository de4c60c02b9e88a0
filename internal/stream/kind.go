package stream

import (
	"fmt"
	"strings"
)

// Kind identifies a live market data category on the stream.
type Kind string

const (
	KindTrades      Kind = "trades"
	KindQuotes      Kind = "quotes"
	KindBars        Kind = "bars"
	KindUpdatedBars Kind = "updated_bars"
	KindDailyBars   Kind = "daily_bars"
	KindStatuses    Kind = "statuses"
)

// allKinds is the closed set of subscribable data kinds.
var allKinds = []Kind{
	KindTrades,
	KindQuotes,
	KindBars,
	KindUpdatedBars,
	KindDailyBars,
	KindStatuses,
}

// AllKinds returns every subscribable data kind.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// IsValid checks if the Kind is one of the predefined data kinds.
func (k Kind) IsValid() bool {
	for _, valid := range allKinds {
		if k == valid {
			return true
		}
	}
	return false
}

// ParseKind parses a string into a valid Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("invalid data kind: %q (valid: %v)", s, allKinds)
	}
	return k, nil
}

// ParseKinds parses a list of strings into Kinds, rejecting the whole list
// on the first invalid entry.
func ParseKinds(ss []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(ss))
	for _, s := range ss {
		k, err := ParseKind(s)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
