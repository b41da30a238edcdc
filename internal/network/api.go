package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/VeilleElectrique/internal/events"
	"github.com/MRamiBalles/VeilleElectrique/internal/infra/storage"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/logger"
	"github.com/MRamiBalles/VeilleElectrique/internal/session"
)

// ActorHeader names the HTTP caller in the event log.
const ActorHeader = "X-Veille-Actor"

// API serves the session over plain HTTP.
type API struct {
	session  *session.Session
	hub      *Hub
	results  storage.ResultRepository
	recaps   *storage.Reconstructor
	upgrader *websocket.Upgrader
	logger   *logger.Logger
}

// APIOptions wires an API. Results and Recaps are optional; without Recaps
// night recaps are built from the in-memory log.
type APIOptions struct {
	Session  *session.Session
	Hub      *Hub
	Results  storage.ResultRepository
	Recaps   *storage.Reconstructor
	Upgrader *websocket.Upgrader
	Logger   *logger.Logger
}

// NewAPI creates the HTTP handler set.
func NewAPI(opts APIOptions) *API {
	if opts.Upgrader == nil {
		opts.Upgrader = NewUpgrader(nil)
	}
	return &API{
		session:  opts.Session,
		hub:      opts.Hub,
		results:  opts.Results,
		recaps:   opts.Recaps,
		upgrader: opts.Upgrader,
		logger:   opts.Logger,
	}
}

// ReplayResponse is the body of GET /api/replay.
type ReplayResponse struct {
	SessionID   string             `json:"session_id"`
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	Events      []events.GameEvent `json:"events"`
}

// HandleSnapshot returns the current session view.
// GET /api/snapshot
func (a *API) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.jsonSuccess(w, a.session.Snapshot())
}

// HandleCommand applies one command and returns the resulting view.
// POST /api/command
func (a *API) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd session.Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&cmd); err != nil {
		a.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Actor = r.Header.Get(ActorHeader)
	if cmd.Actor == "" {
		cmd.Actor = "http"
	}

	if err := a.session.Dispatch(cmd); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrUnknownCommand) {
			status = http.StatusBadRequest
			a.hub.observer.RecordCommandRejected()
		}
		a.jsonError(w, err.Error(), status)
		return
	}
	a.hub.BroadcastSnapshot()
	a.jsonSuccess(w, a.session.Snapshot())
}

// HandleReplay returns the in-memory event history.
// GET /api/replay?night=N&type=JUMPSCARE&since=SEQ
func (a *API) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	var since int64
	if s := q.Get("since"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			a.jsonError(w, "Invalid since", http.StatusBadRequest)
			return
		}
		since = v
	}
	night := 0
	if s := q.Get("night"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			a.jsonError(w, "Invalid night", http.StatusBadRequest)
			return
		}
		night = v
	}
	eventType := q.Get("type")

	filterDesc := ""
	if night > 0 {
		filterDesc = "Night " + strconv.Itoa(night)
	}
	if eventType != "" {
		if filterDesc != "" {
			filterDesc += ", "
		}
		filterDesc += eventType
	}

	log := a.session.EventLog()
	out := make([]events.GameEvent, 0)
	for _, e := range log.Since(since) {
		if night > 0 && e.Night != night {
			continue
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		out = append(out, e)
	}

	a.jsonSuccess(w, ReplayResponse{
		SessionID:   a.session.ID(),
		TotalEvents: len(out),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      out,
	})
}

// HandleRecap summarizes the latest attempt of one night.
// GET /api/recap?night=N
func (a *API) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	night, err := strconv.Atoi(r.URL.Query().Get("night"))
	if err != nil || night < 1 {
		night = a.session.Snapshot().Night
	}

	if a.recaps != nil {
		recap, err := a.recaps.RecapNight(r.Context(), a.session.ID(), night)
		if err != nil {
			a.logger.Error("Failed to build night recap: " + err.Error())
			a.jsonError(w, "Recap unavailable", http.StatusInternalServerError)
			return
		}
		a.jsonSuccess(w, recap)
		return
	}
	recap := storage.BuildRecap(a.session.ID(), night, a.session.EventLog().GetByNight(night))
	a.jsonSuccess(w, recap)
}

// HandleResults lists finished nights, newest first.
// GET /api/results?limit=N
func (a *API) HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.results == nil {
		a.jsonSuccess(w, []storage.NightResult{})
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	results, err := a.results.List(r.Context(), a.session.ID(), limit)
	if err != nil {
		a.logger.Error("Failed to list night results: " + err.Error())
		a.jsonError(w, "Results unavailable", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []storage.NightResult{}
	}
	a.jsonSuccess(w, results)
}

// RegisterRoutes sets up the session API and the WebSocket endpoint.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/snapshot", a.HandleSnapshot)
	mux.HandleFunc("/api/command", a.HandleCommand)
	mux.HandleFunc("/api/replay", a.HandleReplay)
	mux.HandleFunc("/api/recap", a.HandleRecap)
	mux.HandleFunc("/api/results", a.HandleResults)
	mux.HandleFunc("/ws", a.hub.ServeWS(a.upgrader))
}

// jsonError sends an error response.
func (a *API) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (a *API) jsonSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
