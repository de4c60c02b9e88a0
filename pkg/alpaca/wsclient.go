package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient handles the WebSocket connection to the stock data stream and
// message routing. The upstream broker permits a single live connection per
// account; lifecycle (start/stop/replace) is owned by the caller, so the
// client does not reconnect on its own.
type WSClient struct {
	url     string
	key     string
	secret  string
	handler func([]byte)
	logger  *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSClient creates a new WebSocket client for the given stream URL.
func NewWSClient(url, key, secret string, logger *zap.Logger) *WSClient {
	return &WSClient{
		url:    url,
		key:    key,
		secret: secret,
		logger: logger,
	}
}

// SetMessageHandler sets the function to handle incoming data frames.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Connect dials the stream endpoint and completes the auth handshake. It
// does not start the listener.
func (c *WSClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.logger.Error("failed to connect to stream", zap.String("url", c.url), zap.Error(err))
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("stream connected", zap.String("url", c.url))

	if err := conn.WriteJSON(authMessage{Action: "auth", Key: c.key, Secret: c.secret}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("send auth: %w", err)
	}

	if err := c.awaitAuth(conn); err != nil {
		_ = conn.Close()
		return err
	}
	c.logger.Info("stream authenticated")

	return nil
}

// awaitAuth reads control frames until the server acknowledges
// authentication. The server sends "connected" first, then "authenticated".
func (c *WSClient) awaitAuth(conn *websocket.Conn) error {
	deadline := time.Now().Add(10 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Time{})

	for i := 0; i < 4; i++ {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read auth response: %w", err)
		}
		events, err := Envelope(frame)
		if err != nil {
			continue
		}
		for _, event := range events {
			var ctrl ControlMessage
			if err := json.Unmarshal(event, &ctrl); err != nil {
				continue
			}
			switch ctrl.Type {
			case MsgTypeError:
				return fmt.Errorf("stream auth rejected: %s (code %d)", ctrl.Msg, ctrl.Code)
			case MsgTypeSuccess:
				if ctrl.Msg == "authenticated" {
					return nil
				}
			}
		}
	}
	return fmt.Errorf("no auth acknowledgement from stream")
}

// Subscribe sends a subscribe action extending the current subscription set.
func (c *WSClient) Subscribe(sub Subscription) error {
	if sub.IsEmpty() {
		return nil
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("subscribe before connect")
	}

	if err := conn.WriteJSON(subscribeMessage{Action: "subscribe", Subscription: sub}); err != nil {
		return fmt.Errorf("websocket subscribe failed: %w", err)
	}
	return nil
}

// Listen reads frames and dispatches them to the handler until the context
// is cancelled or the connection breaks. Cancellation closes the socket to
// unblock the read.
func (c *WSClient) Listen(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("listen before connect")
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil // caller asked us to stop
			}
			c.logger.Error("stream read error", zap.Error(err))
			return err
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// Close tears the connection down. Closing an already-closed connection is
// not an error.
func (c *WSClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	return nil
}
