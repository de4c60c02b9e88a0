package alpaca

import (
	"encoding/json"
	"testing"
)

// go test -v --run TestEnvelope
func TestEnvelope(t *testing.T) {
	frame := []byte(`[{"T":"t","S":"AAPL","p":150.25,"t":"2026-01-02T15:04:05Z"},{"T":"q","S":"AAPL","bp":150.20,"t":"2026-01-02T15:04:05Z"}]`)

	events, err := Envelope(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if got := MessageType(events[0]); got != MsgTypeTrade {
		t.Errorf("expected trade tag, got %q", got)
	}
	if got := MessageType(events[1]); got != MsgTypeQuote {
		t.Errorf("expected quote tag, got %q", got)
	}

	if _, err := Envelope([]byte(`{"T":"t"}`)); err == nil {
		t.Error("a bare object is not a valid frame")
	}
	if got := MessageType([]byte(`not json`)); got != "" {
		t.Errorf("expected empty tag for garbage, got %q", got)
	}
}

// go test -v --run TestMessageTypeTimestampKey
func TestMessageTypeTimestampKey(t *testing.T) {
	// Every data event carries both the "T" tag and a lowercase "t"
	// timestamp; the tag must survive case-insensitive key matching.
	cases := map[string]string{
		`{"T":"t","S":"AAPL","p":150.25,"t":"2026-01-02T15:04:05.123Z"}`: MsgTypeTrade,
		`{"T":"q","S":"AAPL","bp":150.20,"t":"2026-01-02T15:04:05Z"}`:    MsgTypeQuote,
		`{"T":"b","S":"AAPL","o":150.0,"t":"2026-01-02T15:04:00Z"}`:      MsgTypeBar,
		`{"T":"s","S":"AAPL","sc":"T","t":"2026-01-02T15:04:05Z"}`:       MsgTypeStatus,
	}
	for event, want := range cases {
		if got := MessageType([]byte(event)); got != want {
			t.Errorf("expected tag %q, got %q for %s", want, got, event)
		}
	}
}

// go test -v --run TestQuoteMessageNullableSides
func TestQuoteMessageNullableSides(t *testing.T) {
	var msg QuoteMessage
	err := json.Unmarshal([]byte(`{"T":"q","S":"AAPL","bp":0,"bs":0,"t":"2026-01-02T15:04:05Z"}`), &msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An explicit zero bid is a real value, a missing ask is not.
	if msg.BidPrice == nil || *msg.BidPrice != 0 {
		t.Errorf("expected explicit zero bid, got %v", msg.BidPrice)
	}
	if msg.AskPrice != nil {
		t.Errorf("expected nil ask, got %v", *msg.AskPrice)
	}
}

// go test -v --run TestSubscriptionWireFormat
func TestSubscriptionWireFormat(t *testing.T) {
	sub := Subscription{
		Trades:    []string{"AAPL"},
		DailyBars: []string{"MSFT"},
	}

	raw, err := json.Marshal(subscribeMessage{Action: "subscribe", Subscription: sub})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["action"] != "subscribe" {
		t.Errorf("missing subscribe action: %s", raw)
	}
	if _, ok := decoded["dailyBars"]; !ok {
		t.Errorf("expected camelCase dailyBars key: %s", raw)
	}
	if _, ok := decoded["quotes"]; ok {
		t.Errorf("empty kinds must be omitted: %s", raw)
	}

	if !(Subscription{}).IsEmpty() {
		t.Error("zero subscription must report empty")
	}
	if sub.IsEmpty() {
		t.Error("populated subscription must not report empty")
	}
}

// go test -v --run TestStreamURL
func TestStreamURL(t *testing.T) {
	got := StreamURL("wss://stream.data.alpaca.markets/v2/", FeedIEX)
	want := "wss://stream.data.alpaca.markets/v2/iex"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, err := ParseFeed("opra"); err == nil {
		t.Error("expected error for unknown feed")
	}
	if feed, err := ParseFeed(" SIP "); err != nil || feed != FeedSIP {
		t.Errorf("expected sip, got %v (%v)", feed, err)
	}
}

// go test -v --run TestDecimalFormatting
func TestDecimalFormatting(t *testing.T) {
	if got := FormatQty(10); got != "10" {
		t.Errorf("expected 10, got %q", got)
	}
	if got := FormatQty(2.5); got != "2.5" {
		t.Errorf("expected 2.5, got %q", got)
	}
	if got := FormatPrice(150.2); got != "150.2000" {
		t.Errorf("expected 150.2000, got %q", got)
	}
}
