package stream

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"tradestream/pkg/alpaca"
)

// makeMessageHandler returns the raw-frame handler wired into the session's
// connection. It splits each frame into tagged events, normalizes them into
// Records, and appends them to the right buffer. A malformed event is
// logged and dropped; it must never take the stream down or affect other
// events in the same frame.
func (m *Manager) makeMessageHandler(s *session) func(msg []byte) {
	return func(msg []byte) {
		events, err := alpaca.Envelope(msg)
		if err != nil {
			m.logger.Warn("failed to split stream frame", zap.Error(err))
			return
		}

		for _, event := range events {
			switch alpaca.MessageType(event) {
			case alpaca.MsgTypeTrade:
				m.ingestTrade(s, event)
			case alpaca.MsgTypeQuote:
				m.ingestQuote(s, event)
			case alpaca.MsgTypeBar:
				m.ingestBar(s, event, KindBars)
			case alpaca.MsgTypeUpdatedBar:
				m.ingestBar(s, event, KindUpdatedBars)
			case alpaca.MsgTypeDailyBar:
				m.ingestBar(s, event, KindDailyBars)
			case alpaca.MsgTypeStatus:
				m.ingestStatus(s, event)
			case alpaca.MsgTypeError:
				var ctrl alpaca.ControlMessage
				if json.Unmarshal(event, &ctrl) == nil {
					m.logger.Warn("stream error event",
						zap.Int("code", ctrl.Code), zap.String("msg", ctrl.Msg))
				}
			default:
				// success/subscription acks and unknown tags
				m.logger.Debug("control event", zap.ByteString("event", event))
			}
		}
	}
}

func (m *Manager) ingestTrade(s *session, event []byte) {
	var msg alpaca.TradeMessage
	if err := json.Unmarshal(event, &msg); err != nil {
		m.logger.Warn("failed to parse trade event", zap.Error(err))
		return
	}

	rec := Record{
		Symbol:   msg.Symbol,
		Kind:     KindTrades,
		Received: time.Now(),
		Trade: &TradeData{
			Price:      msg.Price,
			Size:       msg.Size,
			Timestamp:  msg.Timestamp,
			Conditions: msg.Conditions,
			Exchange:   msg.Exchange,
		},
	}
	m.store(s, rec)
}

func (m *Manager) ingestQuote(s *session, event []byte) {
	var msg alpaca.QuoteMessage
	if err := json.Unmarshal(event, &msg); err != nil {
		m.logger.Warn("failed to parse quote event", zap.Error(err))
		return
	}

	rec := Record{
		Symbol:   msg.Symbol,
		Kind:     KindQuotes,
		Received: time.Now(),
		Quote: &QuoteData{
			BidPrice:    msg.BidPrice,
			AskPrice:    msg.AskPrice,
			BidSize:     msg.BidSize,
			AskSize:     msg.AskSize,
			BidExchange: msg.BidExchange,
			AskExchange: msg.AskExchange,
			Timestamp:   msg.Timestamp,
		},
	}
	m.store(s, rec)
}

func (m *Manager) ingestBar(s *session, event []byte, kind Kind) {
	var msg alpaca.BarMessage
	if err := json.Unmarshal(event, &msg); err != nil {
		m.logger.Warn("failed to parse bar event", zap.Error(err), zap.String("kind", string(kind)))
		return
	}

	rec := Record{
		Symbol:   msg.Symbol,
		Kind:     kind,
		Received: time.Now(),
		Bar: &BarData{
			Open:       msg.Open,
			High:       msg.High,
			Low:        msg.Low,
			Close:      msg.Close,
			Volume:     msg.Volume,
			TradeCount: msg.TradeCount,
			VWAP:       msg.VWAP,
			Timestamp:  msg.Timestamp,
		},
	}
	m.store(s, rec)

	if m.bars != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := m.bars.RecordBar(ctx, rec); err != nil {
			m.logger.Warn("failed to record bar", zap.String("symbol", rec.Symbol), zap.Error(err))
		}
		cancel()
	}
}

func (m *Manager) ingestStatus(s *session, event []byte) {
	var msg alpaca.StatusMessage
	if err := json.Unmarshal(event, &msg); err != nil {
		m.logger.Warn("failed to parse status event", zap.Error(err))
		return
	}

	status := msg.StatusMessage
	if status == "" {
		status = msg.StatusCode
	}
	rec := Record{
		Symbol:   msg.Symbol,
		Kind:     KindStatuses,
		Received: time.Now(),
		Status: &StatusData{
			Status:    status,
			Tape:      msg.Tape,
			Timestamp: msg.Timestamp,
		},
	}
	m.store(s, rec)
}

// store appends the record to its buffer, bumps the session counter, and
// fans the record out to the optional publisher. Fan-out failures are
// logged, never escalated.
func (m *Manager) store(s *session, rec Record) {
	if rec.Symbol == "" {
		m.logger.Warn("dropping event without symbol", zap.String("kind", string(rec.Kind)))
		return
	}

	buf := m.registry.GetOrCreate(rec.Symbol, rec.Kind, s.capacity)
	buf.Append(rec)
	s.counters[rec.Kind].Add(1)

	if m.publisher != nil {
		if err := m.publisher.Publish(rec); err != nil {
			m.logger.Warn("failed to publish record",
				zap.String("symbol", rec.Symbol), zap.String("kind", string(rec.Kind)), zap.Error(err))
		}
	}
}
