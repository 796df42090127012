package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matchvault/backend/internal/events"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // game server connects from its own origin
	},
}

// Client is one connected event-stream consumer (a game server).
type Client struct {
	conn   *websocket.Conn
	caller string
	send   chan []byte
}

// Hub maintains the set of connected event-stream clients.
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex
}

// EventHub is the process-wide hub the subscriber broadcasts into.
var EventHub = NewHub()

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Broadcast sends a raw payload to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("[WS] send buffer full for caller %s, dropping event", c.caller)
		}
	}
}

// StartEventSubscriber subscribes to the escrow_events channel and
// forwards every payload to connected clients.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		log.Println("[WS] redis client not set; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, events.Channel)
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] escrow_events subscriber started")
		for msg := range ch {
			EventHub.Broadcast([]byte(msg.Payload))
		}
	}()
}

// Serve upgrades the request and streams escrow events until the peer
// disconnects. caller is the authenticated signer address, for logging.
func Serve(w http.ResponseWriter, r *http.Request, caller string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed for caller %s: %v", caller, err)
		return
	}

	client := &Client{conn: conn, caller: caller, send: make(chan []byte, 64)}
	EventHub.add(client)
	log.Printf("[WS] caller %s connected to event stream", caller)

	go client.writePump()
	client.readPump()
}

// writePump writes events to the connection, pinging every 30s.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for caller %s: %v", c.caller, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; the stream is one-way. It exists
// to notice the peer going away and unregister the client.
func (c *Client) readPump() {
	defer func() {
		EventHub.remove(c)
		close(c.send)
		log.Printf("[WS] caller %s disconnected from event stream", c.caller)
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
