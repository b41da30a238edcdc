package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MRamiBalles/VeilleElectrique/internal/events"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/logger"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/optimization"
	"github.com/MRamiBalles/VeilleElectrique/internal/session"
)

// Message kinds sent to clients.
const (
	KindSnapshot = "snapshot"
	KindEvent    = "event"
	KindError    = "error"
)

// Message is the outbound envelope.
type Message struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// Observer receives connection-level metrics. The metrics collector satisfies it.
type Observer interface {
	RecordWSConnection(delta int64)
	RecordWSMessage(incoming bool)
	RecordWSError()
	RecordCommandRejected()
}

type nopObserver struct{}

func (nopObserver) RecordWSConnection(int64) {}
func (nopObserver) RecordWSMessage(bool)     {}
func (nopObserver) RecordWSError()           {}
func (nopObserver) RecordCommandRejected()   {}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
	session    *session.Session
	profile    *optimization.Config
	observer   Observer
}

// NewHub initializes a new WebSocket Hub for one session.
func NewHub(sess *session.Session, log *logger.Logger, profile *optimization.Config, observer Observer) *Hub {
	if profile == nil {
		profile = optimization.DefaultConfig()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Hub{
		broadcast:  make(chan []byte, profile.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log,
		session:    sess,
		profile:    profile,
		observer:   observer,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.observer.RecordWSConnection(-1)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.profile.MaxClients > 0 && len(h.clients) >= h.profile.MaxClients {
				h.mu.Unlock()
				close(client.send)
				h.observer.RecordWSError()
				h.logger.Warn("Client limit reached, refusing " + client.id)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			h.observer.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected: " + client.id)
			h.sendTo(client, Message{Kind: KindSnapshot, Data: h.session.Snapshot()})
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.observer.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected: " + client.id)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.observer.RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					h.observer.RecordWSConnection(-1)
					h.observer.RecordWSError()
					h.logger.Warn("Dropping slow WebSocket client: " + client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEvent sends one logged event to all connected clients.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	h.publish(Message{Kind: KindEvent, Data: event})
}

// BroadcastSnapshot sends the current session view to all connected clients.
func (h *Hub) BroadcastSnapshot() {
	h.publish(Message{Kind: KindSnapshot, Data: h.session.Snapshot()})
}

func (h *Hub) publish(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize " + msg.Kind + " for WebSocket broadcast: " + err.Error())
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// sendTo queues a message for a single registered client, dropping it if
// the client is behind.
func (h *Hub) sendTo(c *Client, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize " + msg.Kind + ": " + err.Error())
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- payload:
		h.observer.RecordWSMessage(false)
	default:
		h.observer.RecordWSError()
	}
}

// StartEventPoller spawns a goroutine that pushes newly logged events to the Hub.
// The Hub runs independently from the session while picking up the same events.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog, interval time.Duration) {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		var lastSeq int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				for _, event := range eventLog.Since(lastSeq) {
					h.BroadcastEvent(event)
					lastSeq = event.Sequence
				}
			}
		}
	}()
}

// StartSnapshotBroadcaster pushes the session view at a fixed period.
func (h *Hub) StartSnapshotBroadcaster(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 100 * time.Millisecond
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if h.ClientCount() > 0 {
					h.BroadcastSnapshot()
				}
			}
		}
	}()
}
