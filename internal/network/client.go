package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/VeilleElectrique/internal/session"
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
)

// Client is one WebSocket connection driving the session.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   "client-" + uuid.NewString()[:8],
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.profile.ClientSendBuffer),
	}
}

// ID returns the actor name the client's commands are logged under.
func (c *Client) ID() string { return c.id }

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

// ReadPump pumps commands from the websocket connection to the session.
func (c *Client) ReadPump() {
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.observer.RecordWSError()
				c.hub.logger.Warn("WebSocket read failed for " + c.id + ": " + err.Error())
			}
			break
		}
		c.hub.observer.RecordWSMessage(true)

		var cmd session.Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("Failed to parse command from " + c.id + ": " + err.Error())
			c.reject("malformed command")
			continue
		}
		c.handleCommand(cmd, time.Now())
	}
}

func (c *Client) handleCommand(cmd session.Command, now time.Time) {
	if !c.allow(now) {
		c.hub.observer.RecordCommandRejected()
		c.hub.logger.Warn("Rate limit exceeded for " + c.id)
		return
	}

	cmd.Actor = c.id
	if err := c.hub.session.Dispatch(cmd); err != nil {
		if errors.Is(err, session.ErrUnknownCommand) {
			c.hub.observer.RecordCommandRejected()
		}
		c.reject(err.Error())
		return
	}
	// Push the result right away instead of waiting for the next periodic frame.
	c.hub.BroadcastSnapshot()
}

// allow applies a one-second fixed window to inbound commands.
func (c *Client) allow(now time.Time) bool {
	limit := c.hub.profile.MaxMessagesPerSecond
	if limit <= 0 {
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	if c.windowCount >= limit {
		return false
	}
	c.windowCount++
	return true
}

func (c *Client) reject(reason string) {
	c.hub.sendTo(c, Message{Kind: KindError, Data: map[string]string{"error": reason}})
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// NewUpgrader accepts any origin when allowed is empty.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(set) == 0 {
				return true
			}
			return set[r.Header.Get("Origin")]
		},
	}
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.observer.RecordWSError()
			h.logger.Error("Failed to upgrade websocket connection: " + err.Error())
			return
		}

		client := NewClient(h, conn)
		client.Register()

		// Allow collection of memory referenced by the caller by doing all work in
		// new goroutines.
		go client.WritePump()
		go client.ReadPump()
	}
}
