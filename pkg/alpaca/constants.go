package alpaca

import (
	"fmt"
	"strings"
)

// Feed is the stock data feed source.
type Feed string

const (
	FeedSIP Feed = "sip" // consolidated, all exchanges
	FeedIEX Feed = "iex" // IEX only
)

// IsValid checks if the Feed is a supported feed source.
func (f Feed) IsValid() bool {
	return f == FeedSIP || f == FeedIEX
}

// ParseFeed parses a string into a valid Feed.
func ParseFeed(s string) (Feed, error) {
	f := Feed(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("feed must be %q or %q, got %q", FeedSIP, FeedIEX, s)
	}
	return f, nil
}

// StreamURL builds the WebSocket endpoint for a feed,
// e.g. "wss://stream.data.alpaca.markets/v2" + "sip".
func StreamURL(base string, feed Feed) string {
	return strings.TrimRight(base, "/") + "/" + string(feed)
}

// Order sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order types.
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// Time-in-force instructions.
const (
	TimeInForceDay = "day"
	TimeInForceIOC = "ioc"
)

// Incoming stream message tags (the "T" field).
const (
	MsgTypeTrade        = "t"
	MsgTypeQuote        = "q"
	MsgTypeBar          = "b"
	MsgTypeUpdatedBar   = "u"
	MsgTypeDailyBar     = "d"
	MsgTypeStatus       = "s"
	MsgTypeSuccess      = "success"
	MsgTypeError        = "error"
	MsgTypeSubscription = "subscription"
)
