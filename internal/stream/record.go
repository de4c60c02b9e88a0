package stream

import "time"

// Record is a single ingested stream event. Exactly one of the payload
// pointers is set, matching Kind. Records are immutable once appended to a
// buffer; Received is the local arrival time used for window queries.
type Record struct {
	Symbol   string    `json:"symbol"`
	Kind     Kind      `json:"kind"`
	Received time.Time `json:"received"`

	Trade  *TradeData  `json:"trade,omitempty"`
	Quote  *QuoteData  `json:"quote,omitempty"`
	Bar    *BarData    `json:"bar,omitempty"`
	Status *StatusData `json:"status,omitempty"`
}

// TradeData is one executed trade.
type TradeData struct {
	Price      float64   `json:"price"`
	Size       int64     `json:"size"`
	Timestamp  time.Time `json:"timestamp"`
	Conditions []string  `json:"conditions,omitempty"`
	Exchange   string    `json:"exchange,omitempty"`
}

// QuoteData is one NBBO update. Prices and sizes are pointers so a missing
// side stays distinguishable from a real zero price.
type QuoteData struct {
	BidPrice    *float64  `json:"bid_price,omitempty"`
	AskPrice    *float64  `json:"ask_price,omitempty"`
	BidSize     *int64    `json:"bid_size,omitempty"`
	AskSize     *int64    `json:"ask_size,omitempty"`
	BidExchange string    `json:"bid_exchange,omitempty"`
	AskExchange string    `json:"ask_exchange,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// BarData is one OHLCV aggregate (minute, corrected minute, or daily).
type BarData struct {
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     int64     `json:"volume"`
	TradeCount int64     `json:"trade_count,omitempty"`
	VWAP       float64   `json:"vwap,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusData is one trading halt/resume notification.
type StatusData struct {
	Status    string    `json:"status"`
	Tape      string    `json:"tape,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
