package alpaca

import (
	"encoding/json"
	"time"
)

// The stream delivers JSON arrays of event objects, each tagged with a "T"
// field. Field keys follow the upstream v2 stock stream protocol.

// Envelope splits one WebSocket frame into its raw event objects.
func Envelope(frame []byte) ([]json.RawMessage, error) {
	var events []json.RawMessage
	if err := json.Unmarshal(frame, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// MessageType peeks at the "T" tag of a single event object.
func MessageType(event []byte) string {
	var head struct {
		Type string `json:"T"`
		// The decoder matches keys case-insensitively, so the lowercase
		// "t" timestamp needs its own field or it overwrites the tag.
		Timestamp json.RawMessage `json:"t"`
	}
	if err := json.Unmarshal(event, &head); err != nil {
		return ""
	}
	return head.Type
}

// TradeMessage is a trade execution event ("T": "t").
type TradeMessage struct {
	Type       string    `json:"T"`
	Symbol     string    `json:"S"`
	Price      float64   `json:"p"`
	Size       int64     `json:"s"`
	Timestamp  time.Time `json:"t"`
	Conditions []string  `json:"c"`
	Exchange   string    `json:"x"`
	Tape       string    `json:"z"`
}

// QuoteMessage is an NBBO quote event ("T": "q"). Prices and sizes are
// pointers: an omitted side means no liquidity on that side, which must not
// collapse into a zero price.
type QuoteMessage struct {
	Type        string    `json:"T"`
	Symbol      string    `json:"S"`
	BidExchange string    `json:"bx"`
	BidPrice    *float64  `json:"bp"`
	BidSize     *int64    `json:"bs"`
	AskExchange string    `json:"ax"`
	AskPrice    *float64  `json:"ap"`
	AskSize     *int64    `json:"as"`
	Timestamp   time.Time `json:"t"`
	Tape        string    `json:"z"`
}

// BarMessage is an OHLCV aggregate event ("T": "b", "u", or "d").
type BarMessage struct {
	Type       string    `json:"T"`
	Symbol     string    `json:"S"`
	Open       float64   `json:"o"`
	High       float64   `json:"h"`
	Low        float64   `json:"l"`
	Close      float64   `json:"c"`
	Volume     int64     `json:"v"`
	TradeCount int64     `json:"n"`
	VWAP       float64   `json:"vw"`
	Timestamp  time.Time `json:"t"`
}

// StatusMessage is a trading halt/resume event ("T": "s").
type StatusMessage struct {
	Type          string    `json:"T"`
	Symbol        string    `json:"S"`
	StatusCode    string    `json:"sc"`
	StatusMessage string    `json:"sm"`
	ReasonCode    string    `json:"rc"`
	ReasonMessage string    `json:"rm"`
	Timestamp     time.Time `json:"t"`
	Tape          string    `json:"z"`
}

// ControlMessage covers "success", "error" and "subscription" events.
type ControlMessage struct {
	Type string `json:"T"`
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Subscription lists the symbols to subscribe per data kind. Field names
// match the wire format of the subscribe action.
type Subscription struct {
	Trades      []string `json:"trades,omitempty"`
	Quotes      []string `json:"quotes,omitempty"`
	Bars        []string `json:"bars,omitempty"`
	UpdatedBars []string `json:"updatedBars,omitempty"`
	DailyBars   []string `json:"dailyBars,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
}

// IsEmpty reports whether the subscription carries no symbols at all.
func (s Subscription) IsEmpty() bool {
	return len(s.Trades) == 0 && len(s.Quotes) == 0 && len(s.Bars) == 0 &&
		len(s.UpdatedBars) == 0 && len(s.DailyBars) == 0 && len(s.Statuses) == 0
}

type authMessage struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type subscribeMessage struct {
	Action string `json:"action"`
	Subscription
}
