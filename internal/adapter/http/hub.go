package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emberline/wildfire-cascade/internal/observability"
)

const (
	// clientBuffer is the per-client send queue. A client that falls this
	// far behind is dropped rather than allowed to stall the broadcast.
	clientBuffer = 8

	writeTimeout = 10 * time.Second

	// defaultPongWait bounds how long a peer may stay silent before it is
	// considered gone. Pings go out at 9/10 of this, so a live client
	// always has a pong in flight before the deadline.
	defaultPongWait = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The map page is served from the same origin; demos also connect
	// from file:// and localhost variants.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans completed assessments out to connected map clients. Clients only
// listen; inbound messages are read and discarded to service control frames.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	pongWait   time.Duration
	pingPeriod time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics
}

type client struct {
	conn       *websocket.Conn
	send       chan []byte
	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewHub creates a hub. Call Run before serving any websocket upgrades.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 16),
		pongWait:   defaultPongWait,
		pingPeriod: defaultPongWait * 9 / 10,
		logger:     logger,
		metrics:    metrics,
	}
}

// SetKeepalive shrinks the pong deadline and the ping interval derived from
// it. Call before serving any upgrades; tests use it to observe dead-peer
// eviction without waiting the full minute.
func (h *Hub) SetKeepalive(pongWait time.Duration) {
	h.pongWait = pongWait
	h.pingPeriod = pongWait * 9 / 10
}

// Run owns the client set. The hub lives for the process lifetime, so there
// is no stop path; start it in a goroutine from main.
func (h *Hub) Run() {
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.metrics.WSClients.Set(float64(len(clients)))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.metrics.WSClients.Set(float64(len(clients)))
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it instead of blocking
					// everyone else.
					delete(clients, c)
					close(c.send)
					h.metrics.WSClients.Set(float64(len(clients)))
				}
			}
		}
	}
}

// Broadcast serializes v and queues it for every connected client.
// Serialization failures are logged and swallowed; the live feed is
// best-effort by design of the callers.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("broadcast marshal failed", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// handleWS upgrades the connection and pumps broadcasts to it until the
// client disconnects.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &client{
		conn:       conn,
		send:       make(chan []byte, clientBuffer),
		pongWait:   h.pongWait,
		pingPeriod: h.pingPeriod,
	}
	h.register <- c
	h.logger.Info("websocket client connected", "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump(h)
}

// readPump discards inbound frames; its job is detecting disconnects. Each
// pong pushes the read deadline out, so a peer that stops answering pings
// errors out of ReadMessage once the deadline passes.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Hub closed the channel: say goodbye properly.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
