package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fleetops/fleetops/internal/database"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 16
)

// Hub maintains the set of connected dashboard clients and broadcasts
// alert events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*HubClient]bool

	register   chan *HubClient
	unregister chan *HubClient
	broadcast  chan []byte

	stopOnce sync.Once
	stop     chan struct{}
}

// NewHub creates a hub. Run must be started for broadcasts to flow.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*HubClient]bool),
		register:   make(chan *HubClient),
		unregister: make(chan *HubClient),
		broadcast:  make(chan []byte, 64),
		stop:       make(chan struct{}),
	}
}

// Run processes register/unregister/broadcast events until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Hub: client connected (%d total)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Hub: client disconnected (%d total)", h.ClientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: drop the message rather than block
					// the broadcast loop.
				}
			}
			h.mu.RUnlock()

		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a raw message for all connected clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.stop:
	}
}

// HubClient is one connected dashboard websocket
type HubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHubClient registers a websocket connection with the hub and starts
// its read/write pumps.
func NewHubClient(hub *Hub, conn *websocket.Conn) *HubClient {
	client := &HubClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}
	hub.register <- client
	go client.writePump()
	go client.readPump()
	return client
}

// readPump discards inbound frames; the feed is one-way. It exists to
// notice disconnects and keep the pong handler serviced.
func (c *HubClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *HubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PushChannel broadcasts alerts to connected dashboards through the hub
type PushChannel struct {
	hub *Hub
}

// NewPushChannel creates the push channel
func NewPushChannel(hub *Hub) *PushChannel {
	return &PushChannel{hub: hub}
}

// Name returns the channel name
func (c *PushChannel) Name() string {
	return database.ChannelPush
}

// alertEvent is the wire shape pushed to dashboards
type alertEvent struct {
	Event string                `json:"event"`
	Alert *database.AlertRecord `json:"alert"`
}

// Send broadcasts the alert to all connected dashboards
func (c *PushChannel) Send(_ context.Context, alert *database.AlertRecord, _ *database.ChannelSettings) error {
	payload, err := json.Marshal(alertEvent{Event: "alert", Alert: alert})
	if err != nil {
		return err
	}
	c.hub.Broadcast(payload)
	return nil
}
