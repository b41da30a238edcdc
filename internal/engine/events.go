package engine

import "github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"

// EventKind names a discrete cue the presentation layer reacts to.
type EventKind string

const (
	EventNightStarted      EventKind = "NIGHT_STARTED"
	EventDoorToggled       EventKind = "DOOR_TOGGLED"
	EventLightToggled      EventKind = "LIGHT_TOGGLED"
	EventCameraToggled     EventKind = "CAMERA_TOGGLED"
	EventCameraSelected    EventKind = "CAMERA_SELECTED"
	EventAdversaryMoved    EventKind = "ADVERSARY_MOVED"
	EventAdversarySpotted  EventKind = "ADVERSARY_SPOTTED"
	EventAdversaryRepelled EventKind = "ADVERSARY_REPELLED"
	EventEnergyDepleted    EventKind = "ENERGY_DEPLETED"
	EventJumpscare         EventKind = "JUMPSCARE"
	EventNightWon          EventKind = "NIGHT_WON"
	EventCampaignWon       EventKind = "CAMPAIGN_WON"
	EventCampaignReset     EventKind = "CAMPAIGN_RESET"
)

// Event is one thing that happened during a night.
type Event struct {
	Kind      EventKind `json:"kind"`
	Night     int       `json:"night"`
	Elapsed   float64   `json:"elapsed"`
	Adversary string    `json:"adversary,omitempty"`
	Side      zone.Side `json:"side,omitempty"`
	Zone      int       `json:"zone"`
	From      int       `json:"from"`
	Enabled   bool      `json:"enabled"`
	Seed      uint32    `json:"seed,omitempty"`
}

// Emitter receives engine events synchronously, in the order they occur.
type Emitter interface {
	Emit(ev Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev Event)

func (f EmitterFunc) Emit(ev Event) { f(ev) }

type discardEmitter struct{}

func (discardEmitter) Emit(Event) {}
