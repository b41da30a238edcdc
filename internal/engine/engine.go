package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/adversary"
	"github.com/MRamiBalles/VeilleElectrique/internal/domain/rng"
	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
)

// State is the phase of the night state machine.
type State string

const (
	StateMenu     State = "MENU"
	StatePlay     State = "PLAY"
	StateGameOver State = "GAMEOVER"
	StateWin      State = "WIN"
)

// EntropySource supplies the non-deterministic part of a night seed.
type EntropySource func() uint32

// FixedEntropy always returns v. Replays and tests use it.
func FixedEntropy(v uint32) EntropySource {
	return func() uint32 { return v }
}

// ClockEntropy derives entropy from the wall clock in milliseconds.
func ClockEntropy() EntropySource {
	return func() uint32 { return uint32(time.Now().UnixMilli()) }
}

// Config wires an Engine. Zero-valued fields fall back to defaults.
type Config struct {
	Tuning          Tuning
	AdversaryTuning adversary.Tuning
	Catalog         zone.Catalog
	Roster          []adversary.Spec
	// Adversaries overrides Roster when set.
	Adversaries []adversary.Adversary
	NightLength float64
	Entropy     EntropySource
	Emitter     Emitter
}

// DefaultConfig returns the stock campaign with clock entropy.
func DefaultConfig() Config {
	return Config{
		Tuning:          DefaultTuning(),
		AdversaryTuning: adversary.DefaultTuning(),
		Catalog:         zone.DefaultCatalog(),
		Roster:          adversary.DefaultRoster(),
		NightLength:     DefaultTuning().MaxNightLength,
		Entropy:         ClockEntropy(),
	}
}

// Engine is the authoritative night simulation. It is not safe for
// concurrent use; the session serializes every call.
type Engine struct {
	tuning      Tuning
	catalog     zone.Catalog
	entropy     EntropySource
	emitter     Emitter
	rng         *rng.RNG
	adversaries []adversary.Adversary

	state           State
	night           int
	nightLength     float64
	nextNightLength float64
	elapsed         float64
	energy          float64
	depleted        bool
	finalWin        bool
	culprit         string
	timeScale       float64

	leftDoor   bool
	rightDoor  bool
	leftLight  bool
	rightLight bool

	cameraOpen   bool
	selectedZone int
	cameraUsage  float64
	cameraFeeds  []string
}

// New builds an engine in the MENU state at night 1.
func New(cfg Config) (*Engine, error) {
	def := DefaultConfig()
	if cfg.Tuning == (Tuning{}) {
		cfg.Tuning = def.Tuning
	}
	if cfg.AdversaryTuning == (adversary.Tuning{}) {
		cfg.AdversaryTuning = def.AdversaryTuning
	}
	if len(cfg.Catalog) == 0 {
		cfg.Catalog = def.Catalog
	}
	if cfg.Entropy == nil {
		cfg.Entropy = def.Entropy
	}
	if cfg.Emitter == nil {
		cfg.Emitter = discardEmitter{}
	}
	if cfg.NightLength == 0 {
		cfg.NightLength = cfg.Tuning.MaxNightLength
	}

	advs := cfg.Adversaries
	if advs == nil {
		roster := cfg.Roster
		if roster == nil {
			roster = def.Roster
		}
		var err error
		advs, err = adversary.Build(roster, cfg.AdversaryTuning, cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("build roster: %w", err)
		}
	} else {
		for _, a := range advs {
			if !a.Path().Within(cfg.Catalog) {
				return nil, fmt.Errorf("adversary %s: path leaves the zone catalog", a.Identity().Name)
			}
		}
	}

	length := cfg.Tuning.ClampNightLength(cfg.NightLength)
	e := &Engine{
		tuning:          cfg.Tuning,
		catalog:         cfg.Catalog,
		entropy:         cfg.Entropy,
		emitter:         cfg.Emitter,
		rng:             rng.New(0),
		adversaries:     advs,
		state:           StateMenu,
		night:           1,
		nightLength:     length,
		nextNightLength: length,
		timeScale:       1,
	}
	e.resetNight()
	return e, nil
}

// StartNight reseeds the RNG and starts the current night from zero.
// It is valid from any state; START_NIGHT from the menu, restarts and
// advances land here.
func (e *Engine) StartNight() {
	e.StartNightSeeded(uint32(e.night)*e.tuning.SeedStride + e.entropy())
}

// StartNightSeeded starts the current night with an explicit seed. Replays
// of a recorded night go through here.
func (e *Engine) StartNightSeeded(seed uint32) {
	e.rng.Reseed(seed)
	e.nightLength = e.nextNightLength
	e.resetNight()
	e.state = StatePlay
	e.emit(Event{Kind: EventNightStarted, Seed: e.rng.Seed()})
}

// resetNight clears every per-night field. Night number, time scale and the
// selected camera zone survive.
func (e *Engine) resetNight() {
	e.elapsed = 0
	e.energy = e.tuning.MaxEnergy
	e.depleted = false
	e.finalWin = false
	e.culprit = ""
	e.leftDoor, e.rightDoor = false, false
	e.leftLight, e.rightLight = false, false
	e.cameraOpen = false
	e.cameraUsage = 0
	e.cameraFeeds = make([]string, len(e.catalog))
	for _, a := range e.adversaries {
		a.Reset()
	}
}

// Tick advances the night by dt seconds of real time. Outside PLAY it does nothing.
func (e *Engine) Tick(dt float64) {
	if e.state != StatePlay {
		return
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		dt = 0
	}
	dt *= e.timeScale

	e.elapsed = math.Min(e.nightLength, e.elapsed+dt)
	e.trackCameraUsage(dt)
	e.drainEnergy(dt)
	e.moveAdversaries(dt)
	e.refreshVisibility()
	if e.resolveThreats() {
		return
	}
	e.releaseOnBlackout()
	if e.elapsed >= e.nightLength {
		e.winNight()
	}
}

// ToggleDoor flips a door. Ignored outside PLAY.
func (e *Engine) ToggleDoor(side zone.Side) {
	if !e.controlsLive() {
		return
	}
	var v bool
	switch side {
	case zone.SideLeft:
		e.leftDoor = !e.leftDoor
		v = e.leftDoor
	case zone.SideRight:
		e.rightDoor = !e.rightDoor
		v = e.rightDoor
	default:
		return
	}
	e.emit(Event{Kind: EventDoorToggled, Side: side, Enabled: v})
}

// ToggleLight flips a doorway light. Ignored outside PLAY.
func (e *Engine) ToggleLight(side zone.Side) {
	if !e.controlsLive() {
		return
	}
	var v bool
	switch side {
	case zone.SideLeft:
		e.leftLight = !e.leftLight
		v = e.leftLight
	case zone.SideRight:
		e.rightLight = !e.rightLight
		v = e.rightLight
	default:
		return
	}
	e.emit(Event{Kind: EventLightToggled, Side: side, Enabled: v})
}

// ToggleCamera opens or closes the monitor. Ignored outside PLAY.
func (e *Engine) ToggleCamera() {
	if !e.controlsLive() {
		return
	}
	e.cameraOpen = !e.cameraOpen
	e.emit(Event{Kind: EventCameraToggled, Zone: e.selectedZone, Enabled: e.cameraOpen})
}

// SelectCamera focuses the monitor on a zone. It works in every state so the
// feed can be chosen before a night starts. Unknown zones are ignored and
// re-selecting the current zone emits nothing.
func (e *Engine) SelectCamera(z int) {
	if !e.catalog.Contains(z) || z == e.selectedZone {
		return
	}
	from := e.selectedZone
	e.selectedZone = z
	e.emit(Event{Kind: EventCameraSelected, Zone: z, From: from})
}

// SetTimeScale sets the multiplier applied to every tick's dt.
func (e *Engine) SetTimeScale(scale float64) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	e.timeScale = scale
}

// SetAccelerated switches between real time and the accelerated scale.
func (e *Engine) SetAccelerated(on bool) {
	if on {
		e.SetTimeScale(e.tuning.AccelerateScale)
		return
	}
	e.SetTimeScale(1)
}

// Accelerated reports whether the accelerated scale is active.
func (e *Engine) Accelerated() bool { return e.timeScale != 1 }

// SetNightLength clamps and stores the length used from the next StartNight.
func (e *Engine) SetNightLength(seconds float64) float64 {
	e.nextNightLength = e.tuning.ClampNightLength(seconds)
	return e.nextNightLength
}

// SetNight moves the campaign to night n, clamped to the campaign bounds.
// It does not start the night.
func (e *Engine) SetNight(n int) {
	if n < 1 {
		n = 1
	}
	if n > e.tuning.FinalNight {
		n = e.tuning.FinalNight
	}
	e.night = n
}

// AdvanceNight moves from a won intermediate night to the next one.
// It is a no-op in any other situation, including after the final win.
func (e *Engine) AdvanceNight() {
	if e.state != StateWin || e.finalWin {
		return
	}
	if e.night < e.tuning.FinalNight {
		e.night++
	}
	e.StartNight()
}

// Restart replays the current night after a loss or a win, including the
// final one. It never moves the campaign; ResetCampaign does that.
func (e *Engine) Restart() {
	if e.state != StateGameOver && e.state != StateWin {
		return
	}
	e.StartNight()
}

// ResetCampaign returns to the menu at night 1.
func (e *Engine) ResetCampaign() {
	e.night = 1
	e.resetNight()
	e.state = StateMenu
	e.emit(Event{Kind: EventCampaignReset})
}

// State returns the current phase.
func (e *Engine) State() State { return e.state }

// Night returns the current night number.
func (e *Engine) Night() int { return e.night }

// Energy returns the remaining energy.
func (e *Engine) Energy() float64 { return e.energy }

// Elapsed returns the seconds played this night.
func (e *Engine) Elapsed() float64 { return e.elapsed }

// FinalWin reports whether the last night of the campaign was survived.
func (e *Engine) FinalWin() bool { return e.finalWin }

// Culprit names the adversary that ended the night, if any.
func (e *Engine) Culprit() string { return e.culprit }

// Seed returns the seed of the current night.
func (e *Engine) Seed() uint32 { return e.rng.Seed() }

// Tuning returns the night-level constants in use.
func (e *Engine) Tuning() Tuning { return e.tuning }

// Adversaries exposes the roster in update order.
func (e *Engine) Adversaries() []adversary.Adversary { return e.adversaries }

func (e *Engine) controlsLive() bool {
	return e.state == StatePlay
}

func (e *Engine) view() adversary.View {
	return adversary.View{
		Night:        e.night,
		Energy:       e.energy,
		LeftDoor:     e.leftDoor,
		RightDoor:    e.rightDoor,
		LeftLight:    e.leftLight,
		RightLight:   e.rightLight,
		CameraOpen:   e.cameraOpen,
		SelectedZone: e.selectedZone,
	}
}

func (e *Engine) emit(ev Event) {
	ev.Night = e.night
	ev.Elapsed = e.elapsed
	e.emitter.Emit(ev)
}
