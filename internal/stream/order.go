package stream

import (
	"context"
	"fmt"
	"time"

	"tradestream/pkg/alpaca"
)

// orderQuoteWindow is the lookback used to pick a reference price; a few
// seconds keeps the price fresh without starving quiet symbols.
const orderQuoteWindow = 5 * time.Second

// OrderRequest describes a stream-priced order.
type OrderRequest struct {
	Symbol    string
	Side      string // buy or sell
	Quantity  float64
	OrderType string // limit or market
}

// OrderResult carries the placed order together with its pricing context.
type OrderResult struct {
	Symbol     string
	Side       string
	Quantity   float64
	OrderType  string
	LimitPrice float64
	Reference  string // which quote side priced the order
	Order      *alpaca.Order
}

// PlaceStreamOrder reads a short quote window from the live stream, picks
// the bid (buy) or ask (sell) as the limit reference price, and delegates to
// the order-placement capability with an immediate-or-cancel instruction.
// No retries: a failed price lookup or order call surfaces immediately.
func (m *Manager) PlaceStreamOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if !m.Active() {
		return nil, ErrNoActiveSession
	}
	if m.orders == nil {
		return nil, fmt.Errorf("order placement is not configured")
	}
	if req.Side != alpaca.SideBuy && req.Side != alpaca.SideSell {
		return nil, fmt.Errorf("side must be %q or %q, got %q", alpaca.SideBuy, alpaca.SideSell, req.Side)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	orderType := req.OrderType
	if orderType == "" {
		orderType = alpaca.OrderTypeLimit
	}
	if orderType != alpaca.OrderTypeLimit && orderType != alpaca.OrderTypeMarket {
		return nil, fmt.Errorf("order type must be %q or %q, got %q",
			alpaca.OrderTypeLimit, alpaca.OrderTypeMarket, req.OrderType)
	}

	symbol := normalizeSymbol(req.Symbol)

	quotes, err := m.GetData(DataRequest{Symbol: symbol, Kind: KindQuotes, Window: orderQuoteWindow})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPriceAvailable, err)
	}

	price, reference, ok := referencePrice(quotes.Records, req.Side)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoPriceAvailable, symbol)
	}

	order := alpaca.OrderRequest{
		Symbol:      symbol,
		Qty:         alpaca.FormatQty(req.Quantity),
		Side:        req.Side,
		Type:        orderType,
		TimeInForce: alpaca.TimeInForceIOC, // avoid resting orders priced off the stream
	}
	if orderType == alpaca.OrderTypeLimit {
		order.LimitPrice = alpaca.FormatPrice(price)
	}

	placed, err := m.orders.PlaceOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	return &OrderResult{
		Symbol:     symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		OrderType:  orderType,
		LimitPrice: price,
		Reference:  reference,
		Order:      placed,
	}, nil
}

// referencePrice scans the window newest-first for a quote carrying the
// needed side: bid for buys, ask for sells ("better fill" heuristic).
func referencePrice(records []Record, side string) (float64, string, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		q := records[i].Quote
		if q == nil {
			continue
		}
		if side == alpaca.SideBuy && q.BidPrice != nil {
			return *q.BidPrice, "bid", true
		}
		if side == alpaca.SideSell && q.AskPrice != nil {
			return *q.AskPrice, "ask", true
		}
	}
	return 0, "", false
}
