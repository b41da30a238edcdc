// Package metrics provides observability for the night-watch server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance and gameplay counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64
	CommandsRejected    int64

	// Gameplay
	NightsStarted int64
	NightsWon     int64
	CampaignsWon  int64
	Jumpscares    int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// New creates an empty collector. Tests use their own.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	storeMax(&c.EventWriteLatMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordCommandRejected counts a command dropped by the rate limiter.
func (c *Collector) RecordCommandRejected() {
	atomic.AddInt64(&c.CommandsRejected, 1)
}

// RecordNightEvent counts gameplay milestones by event kind.
func (c *Collector) RecordNightEvent(kind string) {
	switch kind {
	case "NIGHT_STARTED":
		atomic.AddInt64(&c.NightsStarted, 1)
	case "NIGHT_WON":
		atomic.AddInt64(&c.NightsWon, 1)
	case "CAMPAIGN_WON":
		atomic.AddInt64(&c.NightsWon, 1)
		atomic.AddInt64(&c.CampaignsWon, 1)
	case "JUMPSCARE":
		atomic.AddInt64(&c.Jumpscares, 1)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	// Calculate averages
	var tickAvg, eventAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	lastTick := ""
	if !c.LastTickTime.IsZero() {
		lastTick = c.LastTickTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      lastTick,
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
			"commands_rejected":  atomic.LoadInt64(&c.CommandsRejected),
		},

		"nights": map[string]interface{}{
			"started":       atomic.LoadInt64(&c.NightsStarted),
			"won":           atomic.LoadInt64(&c.NightsWon),
			"campaigns_won": atomic.LoadInt64(&c.CampaignsWon),
			"jumpscares":    atomic.LoadInt64(&c.Jumpscares),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP veille_%s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE veille_%s counter\n", name)
			fmt.Fprintf(w, "veille_%s %d\n\n", name, v)
		}

		// Tick metrics
		counter("tick_count", "Total tick cycles", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP veille_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE veille_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "veille_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		// Event metrics
		counter("events_written", "Total events written", atomic.LoadInt64(&c.EventsWritten))
		counter("event_write_errors", "Total event write errors", atomic.LoadInt64(&c.EventWriteErrors))

		// WebSocket metrics
		fmt.Fprintf(w, "# HELP veille_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE veille_ws_connections gauge\n")
		fmt.Fprintf(w, "veille_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP veille_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE veille_ws_messages_total counter\n")
		fmt.Fprintf(w, "veille_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "veille_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		counter("commands_rejected", "Commands dropped by the rate limiter", atomic.LoadInt64(&c.CommandsRejected))

		// Gameplay
		counter("nights_started", "Nights started", atomic.LoadInt64(&c.NightsStarted))
		counter("nights_won", "Nights survived", atomic.LoadInt64(&c.NightsWon))
		counter("campaigns_won", "Campaigns completed", atomic.LoadInt64(&c.CampaignsWon))
		counter("jumpscares", "Nights lost to a jumpscare", atomic.LoadInt64(&c.Jumpscares))
	}
}
