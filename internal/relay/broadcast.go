// Package relay mirrors the telemetry feed to WebSocket clients so it can be
// watched from another machine.
package relay

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const clientBuffer = 64

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans messages out to connected clients. Publish never
// blocks: a client whose buffer is full is disconnected.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	last    *StatePayload
	logger  *slog.Logger
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		clients: make(map[*client]bool),
		logger:  logger,
	}
}

// AddClient registers a connection and sends it the latest state.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	last := b.last
	b.mu.Unlock()

	if last != nil {
		if data, err := json.Marshal(Message{Type: MsgState, Payload: *last}); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}
	}
	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// PublishTrace sends a datagram to every client.
func (b *Broadcaster) PublishTrace(p TracePayload) {
	b.broadcast(Message{Type: MsgTrace, Payload: p})
}

// PublishState records the session state and sends it to every client.
func (b *Broadcaster) PublishState(p StatePayload) {
	b.mu.Lock()
	if b.last != nil && *b.last == p {
		b.mu.Unlock()
		return
	}
	b.last = &p
	b.mu.Unlock()
	b.broadcast(Message{Type: MsgState, Payload: p})
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("relay marshal", "type", string(msg.Type), "err", err)
		return
	}

	// Sends happen under the read lock so RemoveClient cannot close a
	// channel mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.logger.Warn("relay client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
}
