package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/game/service"
	"github.com/wricardo/rps-game/game/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one event pushed to a subscriber
type Message struct {
	Account account.ID        `json:"account"`
	Event   service.EventType `json:"event"`
	Game    session.Session   `json:"game"`
	Outcome engine.Outcome    `json:"outcome,omitempty"`
	Label   string            `json:"label,omitempty"`
	TxID    string            `json:"tx_id,omitempty"`
}

// Client is one subscribed connection
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	account account.ID
}

// Hub fans committed game events out to the connections subscribed to the
// accounts involved. All subscriber bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients by account
	accounts map[account.ID]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger zerolog.Logger
}

var _ service.Notifier = (*Hub)(nil)

// NewHub creates a hub. Call Run before serving connections.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		accounts:   make(map[account.ID]map[*Client]bool),
		broadcast:  make(chan *Message, sendBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.accounts {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to events of id.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, id account.ID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		account: id,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Notify queues e for every account it involves.
func (h *Hub) Notify(e service.Event) {
	seen := make(map[account.ID]bool, len(e.Accounts))
	for _, id := range e.Accounts {
		if seen[id] {
			continue
		}
		seen[id] = true
		h.send(&Message{
			Account: id,
			Event:   e.Type,
			Game:    e.Game,
			Outcome: e.Outcome,
			Label:   e.Label,
			TxID:    e.TxID,
		})
	}
}

func (h *Hub) send(m *Message) {
	select {
	case h.broadcast <- m:
	case <-h.done:
	}
}

// registerClient adds a client to an account
func (h *Hub) registerClient(client *Client) {
	if h.accounts[client.account] == nil {
		h.accounts[client.account] = make(map[*Client]bool)
	}
	h.accounts[client.account][client] = true

	h.logger.Debug().
		Str("account", client.account.String()).
		Int("clients", len(h.accounts[client.account])).
		Msg("client registered")
}

// unregisterClient removes a client from an account
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.accounts[client.account]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.accounts, client.account)
	}

	h.logger.Debug().
		Str("account", client.account.String()).
		Int("clients", len(clients)).
		Msg("client unregistered")
}

// broadcastMessage sends a message to all clients of its account
func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.accounts[message.Account]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal websocket message")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// slow consumer
			h.unregisterClient(client)
		}
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("account", c.account.String()).Msg("websocket read")
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the connection, one JSON object
// per frame
func (c *Client) writePump() {
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
