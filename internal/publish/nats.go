// Package publish forwards ingested stream records to a message bus so
// other processes can consume the live feed without holding their own
// broker connection.
package publish

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"tradestream/internal/stream"
)

// NATSPublisher publishes records to per-(kind, symbol) subjects, e.g.
// "market.trades.AAPL".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

func NewNATSPublisher(url, subjectPrefix string, logger *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("tradestream"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("nats publisher connected", zap.String("url", url))

	if subjectPrefix == "" {
		subjectPrefix = "market"
	}
	return &NATSPublisher{conn: conn, prefix: subjectPrefix, logger: logger}, nil
}

// Publish serializes the record as JSON and publishes it. Fire-and-forget:
// NATS buffers writes, so this does not block the ingestion path.
func (p *NATSPublisher) Publish(rec stream.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", p.prefix, rec.Kind, rec.Symbol)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and drops the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", zap.Error(err))
		p.conn.Close()
	}
}
