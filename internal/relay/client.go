package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// ErrUnauthorized is returned by Follow when the relay rejects the token.
// It is not retried.
var ErrUnauthorized = errors.New("relay: unauthorized")

// Update is one decoded relay message. Exactly one of Trace and State is
// set, matching Type.
type Update struct {
	Type  MessageType
	Trace *TracePayload
	State *StatePayload
}

// Client follows a relay feed and reconnects when the connection drops.
type Client struct {
	url    string
	token  string
	dialer *websocket.Dialer
	logger *slog.Logger

	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewClient creates a client for a relay URL such as ws://host:port/ws.
func NewClient(url, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:       url,
		token:     token,
		dialer:    websocket.DefaultDialer,
		logger:    logger,
		baseDelay: reconnectBaseDelay,
		maxDelay:  reconnectMaxDelay,
	}
}

// Follow calls fn for every update until ctx is cancelled or fn returns an
// error, which Follow then returns. Connection failures are retried with
// exponential backoff.
func (c *Client) Follow(ctx context.Context, fn func(Update) error) error {
	delay := c.baseDelay
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrUnauthorized) {
				return err
			}
			c.logger.Warn("relay dial failed", "url", c.url, "err", err, "retry", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, c.maxDelay)
			continue
		}
		delay = c.baseDelay
		c.logger.Info("relay connected", "url", c.url)

		if err := c.read(ctx, conn, fn); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("relay disconnected", "url", c.url)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return conn, nil
}

// read consumes one connection. It returns only errors from fn; a dropped
// connection returns nil.
func (c *Client) read(ctx context.Context, conn *websocket.Conn, fn func(Update) error) error {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(ctx, conn, done)
	}()
	defer func() {
		close(done)
		conn.Close()
		wg.Wait()
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		update, err := DecodeUpdate(data)
		if err != nil {
			c.logger.Debug("relay message skipped", "err", err)
			continue
		}
		if err := fn(update); err != nil {
			return err
		}
	}
}

// pingLoop keeps the connection alive and closes it when ctx ends so the
// blocked read returns.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// DecodeUpdate parses one relay message.
func DecodeUpdate(data []byte) (Update, error) {
	var raw struct {
		Type    MessageType         `json:"type"`
		Payload jsoniter.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Update{}, err
	}
	switch raw.Type {
	case MsgTrace:
		var p TracePayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return Update{}, fmt.Errorf("trace payload: %w", err)
		}
		return Update{Type: MsgTrace, Trace: &p}, nil
	case MsgState:
		var p StatePayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return Update{}, fmt.Errorf("state payload: %w", err)
		}
		return Update{Type: MsgState, State: &p}, nil
	}
	return Update{}, fmt.Errorf("unknown message type %q", raw.Type)
}
