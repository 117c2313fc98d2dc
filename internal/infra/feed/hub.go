package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	clientBufferSize    = 16
	broadcastBufferSize = 256
)

// Message types pushed to subscribers
const (
	TypePriceCut = "price_cut"
	TypeReceipt  = "receipt"
)

// Message is the envelope of every frame on the live feed
type Message struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub fans price cuts and receipts out to websocket subscribers.
// Publishing never blocks: slow clients lose frames instead of stalling a theater.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]struct{}
	broadcast chan []byte
	stopped   bool
}

// NewHub creates a hub. Call Run to start delivering.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan []byte, broadcastBufferSize),
	}
}

// Run delivers queued frames until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			for c := range h.clients {
				delete(h.clients, c)
				c.close()
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Client too slow, drop
		}
	}
}

// Publish queues a frame for every subscriber. Frames are dropped when the queue is full.
func (h *Hub) Publish(msgType string, data any) {
	raw, err := json.Marshal(Message{Type: msgType, At: time.Now(), Data: data})
	if err != nil {
		slog.Error("Failed to marshal feed message", slog.String("type", msgType), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		slog.Debug("Feed queue full, frame dropped", slog.String("type", msgType))
	}
}

// OnPriceCut is an event.Handler that mirrors price cuts to the feed.
func (h *Hub) OnPriceCut(ev event.PriceCut) {
	h.Publish(TypePriceCut, ev)
}

// RecordReceipt mirrors a receipt to the feed. It never fails.
func (h *Hub) RecordReceipt(receipt *domain.Receipt) error {
	h.Publish(TypeReceipt, receipt)
	return nil
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams frames until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientBufferSize),
		done: make(chan struct{}),
	}
	if !h.register(c) {
		c.close()
		return
	}
	slog.Info("Feed subscriber connected", slog.String("remote", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// readPump only watches the connection; subscribers never send anything useful.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Feed subscriber read error", slog.Any("error", err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}
