// Package session owns one night engine and runs the five-night campaign
// around it. Every command and tick goes through a single mutex, so the
// engine only ever sees one caller.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
	"github.com/MRamiBalles/VeilleElectrique/internal/events"
	"github.com/MRamiBalles/VeilleElectrique/internal/infra/storage"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/logger"
)

// NightObserver is told about every engine event kind. The metrics collector satisfies it.
type NightObserver interface {
	RecordNightEvent(kind string)
}

// Options wires a Session. Log and Logger are required.
type Options struct {
	ID       string
	Engine   engine.Config
	Log      *events.EventLog
	Logger   *logger.Logger
	Progress storage.ProgressRepository
	Results  storage.ResultRepository
	Observer NightObserver
	// StoreTimeout bounds each progress or result write.
	StoreTimeout time.Duration
}

// View is the session-level snapshot sent to clients.
type View struct {
	engine.Snapshot
	SessionID    string `json:"session_id"`
	ReducedFlash bool   `json:"reduced_flash"`
	Debug        bool   `json:"debug"`
	Accelerated  bool   `json:"accelerated"`
}

// Session is the campaign controller.
type Session struct {
	mu           sync.Mutex
	id           string
	engine       *engine.Engine
	log          *events.EventLog
	logger       *logger.Logger
	progress     storage.ProgressRepository
	results      storage.ResultRepository
	observer     NightObserver
	storeTimeout time.Duration

	nightLength  float64
	reducedFlash bool
	debug        bool
	finished     *engine.Event
}

// New builds a session in the menu at night 1.
func New(opts Options) (*Session, error) {
	if opts.Log == nil || opts.Logger == nil {
		return nil, fmt.Errorf("session: event log and logger are required")
	}
	if opts.ID == "" {
		opts.ID = "SESSION_1"
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 2 * time.Second
	}

	s := &Session{
		id:           opts.ID,
		log:          opts.Log,
		logger:       opts.Logger.With(map[string]any{"session": opts.ID}),
		progress:     opts.Progress,
		results:      opts.Results,
		observer:     opts.Observer,
		storeTimeout: opts.StoreTimeout,
	}

	cfg := opts.Engine
	cfg.Emitter = engine.EmitterFunc(s.onEngineEvent)
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.engine = eng
	s.nightLength = eng.Snapshot().NightLength
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// EventLog exposes the session's log to the transport.
func (s *Session) EventLog() *events.EventLog { return s.log }

// Restore resumes saved campaign progress, if any.
func (s *Session) Restore(ctx context.Context) error {
	if s.progress == nil {
		return nil
	}
	p, err := s.progress.Load(ctx, s.id)
	if err != nil {
		return fmt.Errorf("restore progress: %w", err)
	}
	if p == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetNight(p.Night)
	s.nightLength = s.engine.SetNightLength(p.NightLength)
	s.reducedFlash = p.ReducedFlash
	s.record(events.EventTypeSessionRestored, events.ActorSystem, p)
	s.logger.Info(fmt.Sprintf("Campaign restored at night %d", s.engine.Night()))
	return nil
}

// Tick advances the night. It satisfies engine.Tickable.
func (s *Session) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Tick(dt)
	s.settle()
}

// Dispatch applies one command. Commands that make no sense in the current
// state are ignored; only an unknown type is an error.
func (s *Session) Dispatch(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor := cmd.Actor
	if actor == "" {
		actor = events.ActorPlayer
	}
	if _, ok := knownCommands[cmd.Type]; !ok {
		s.logger.Warn(fmt.Sprintf("Unknown command %q from %s", cmd.Type, actor))
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	s.record(events.EventTypeCommand, actor, cmd)

	switch cmd.Type {
	case CmdStartNight:
		if s.engine.State() != engine.StateMenu {
			s.logger.Debug("START_NIGHT ignored outside the menu")
			return nil
		}
		s.engine.StartNight()
	case CmdToggleDoor:
		s.engine.ToggleDoor(cmd.Side)
	case CmdToggleLight:
		s.engine.ToggleLight(cmd.Side)
	case CmdToggleCamera:
		s.engine.ToggleCamera()
	case CmdSelectCamera:
		s.engine.SelectCamera(cmd.Zone)
	case CmdSetNightLength:
		s.nightLength = s.engine.SetNightLength(cmd.Seconds)
		s.record(events.EventTypeNightLengthSet, actor, map[string]float64{"seconds": s.nightLength})
		s.saveProgress(s.engine.Night())
	case CmdSetAccessibility:
		s.reducedFlash = cmd.Enabled
		s.record(events.EventTypeAccessibilitySet, actor, map[string]bool{"enabled": cmd.Enabled})
		s.saveProgress(s.engine.Night())
	case CmdSetDebug:
		s.debug = cmd.Enabled
		if !s.debug {
			s.engine.SetAccelerated(false)
		}
		s.record(events.EventTypeDebugSet, actor, map[string]bool{"enabled": cmd.Enabled})
	case CmdToggleAccelerate:
		if !s.debug {
			s.logger.Debug("TOGGLE_ACCELERATE ignored without debug")
			return nil
		}
		s.engine.SetAccelerated(!s.engine.Accelerated())
		s.record(events.EventTypeAccelerateSet, actor, map[string]bool{"enabled": s.engine.Accelerated()})
	case CmdRestartNight:
		if st := s.engine.State(); st != engine.StateGameOver && st != engine.StateWin {
			s.logger.Debug("RESTART_NIGHT ignored while no night has ended")
			return nil
		}
		s.engine.Restart()
		s.saveProgress(s.engine.Night())
	case CmdAdvanceNight:
		s.engine.AdvanceNight()
	case CmdResetCampaign:
		s.engine.ResetCampaign()
		s.saveProgress(1)
	}

	s.settle()
	return nil
}

// Convenience wrappers over Dispatch.

func (s *Session) StartNight()                { _ = s.Dispatch(Command{Type: CmdStartNight}) }
func (s *Session) ToggleDoor(side zone.Side)  { _ = s.Dispatch(Command{Type: CmdToggleDoor, Side: side}) }
func (s *Session) ToggleLight(side zone.Side) { _ = s.Dispatch(Command{Type: CmdToggleLight, Side: side}) }
func (s *Session) ToggleCamera()              { _ = s.Dispatch(Command{Type: CmdToggleCamera}) }
func (s *Session) SelectCamera(z int)         { _ = s.Dispatch(Command{Type: CmdSelectCamera, Zone: z}) }
func (s *Session) SetNightLength(sec float64) { _ = s.Dispatch(Command{Type: CmdSetNightLength, Seconds: sec}) }
func (s *Session) SetAccessibility(on bool)   { _ = s.Dispatch(Command{Type: CmdSetAccessibility, Enabled: on}) }
func (s *Session) SetDebug(on bool)           { _ = s.Dispatch(Command{Type: CmdSetDebug, Enabled: on}) }
func (s *Session) ToggleAccelerate()          { _ = s.Dispatch(Command{Type: CmdToggleAccelerate}) }
func (s *Session) RestartNight()              { _ = s.Dispatch(Command{Type: CmdRestartNight}) }
func (s *Session) AdvanceToNextNight()        { _ = s.Dispatch(Command{Type: CmdAdvanceNight}) }
func (s *Session) ResetCampaign()             { _ = s.Dispatch(Command{Type: CmdResetCampaign}) }

// Snapshot returns the current view.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Snapshot:     s.engine.Snapshot(),
		SessionID:    s.id,
		ReducedFlash: s.reducedFlash,
		Debug:        s.debug,
		Accelerated:  s.engine.Accelerated(),
	}
}

// NightLength returns the configured night length in seconds.
func (s *Session) NightLength() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nightLength
}

// onEngineEvent runs inside an engine call, with s.mu held.
func (s *Session) onEngineEvent(ev engine.Event) {
	actor := events.ActorSystem
	if ev.Adversary != "" {
		actor = ev.Adversary
	}
	s.appendEvent(events.EventType(ev.Kind), actor, ev.Night, ev.Elapsed, ev)

	if s.observer != nil {
		s.observer.RecordNightEvent(string(ev.Kind))
	}

	switch ev.Kind {
	case engine.EventJumpscare:
		s.logger.Event(string(ev.Kind), ev.Adversary, fmt.Sprintf("Night %d lost at %s via the %s door", ev.Night, s.engine.Clock(), ev.Side))
	case engine.EventNightWon, engine.EventCampaignWon:
		s.logger.Event(string(ev.Kind), events.ActorSystem, fmt.Sprintf("Night %d survived", ev.Night))
	case engine.EventNightStarted:
		s.logger.Event(string(ev.Kind), events.ActorSystem, fmt.Sprintf("Night %d started (seed %d)", ev.Night, ev.Seed))
	case engine.EventEnergyDepleted:
		s.logger.Event(string(ev.Kind), events.ActorSystem, fmt.Sprintf("Blackout on night %d", ev.Night))
	}

	switch ev.Kind {
	case engine.EventJumpscare, engine.EventNightWon, engine.EventCampaignWon:
		done := ev
		s.finished = &done
	}
}

// settle records the outcome of a night that ended during the last call.
func (s *Session) settle() {
	if s.finished == nil {
		return
	}
	ev := *s.finished
	s.finished = nil

	snap := s.engine.Snapshot()
	result := storage.NightResult{
		SessionID:   s.id,
		Night:       ev.Night,
		Seed:        snap.Seed,
		NightLength: snap.NightLength,
		Elapsed:     snap.Elapsed,
		EnergyLeft:  snap.Energy,
		CameraUsage: snap.CameraUsage,
	}
	resume := ev.Night
	switch ev.Kind {
	case engine.EventJumpscare:
		result.Outcome = storage.OutcomeLost
		result.Culprit = ev.Adversary
	case engine.EventNightWon:
		result.Outcome = storage.OutcomeWon
		resume = ev.Night + 1
	case engine.EventCampaignWon:
		result.Outcome = storage.OutcomeCampaignWon
		resume = 1
	}

	if s.results != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
		defer cancel()
		if err := s.results.Record(ctx, result); err != nil {
			s.logger.Error("Failed to record night result: " + err.Error())
		}
	}
	s.saveProgress(resume)
}

func (s *Session) saveProgress(night int) {
	if s.progress == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	err := s.progress.Save(ctx, storage.Progress{
		SessionID:    s.id,
		Night:        night,
		NightLength:  s.nightLength,
		ReducedFlash: s.reducedFlash,
	})
	if err != nil {
		s.logger.Error("Failed to save campaign progress: " + err.Error())
	}
}

func (s *Session) record(t events.EventType, actor string, payload any) {
	snap := s.engine.Snapshot()
	s.appendEvent(t, actor, snap.Night, snap.Elapsed, payload)
}

func (s *Session) appendEvent(t events.EventType, actor string, night int, elapsed float64, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to encode event payload: " + err.Error())
	}
	s.log.Append(events.GameEvent{
		SessionID: s.id,
		Type:      t,
		ActorID:   actor,
		Night:     night,
		Elapsed:   elapsed,
		Payload:   raw,
	})
}
