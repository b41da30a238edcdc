package session

import (
	"errors"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
)

// CommandType names an inbound player command.
type CommandType string

const (
	CmdStartNight       CommandType = "START_NIGHT"
	CmdToggleDoor       CommandType = "TOGGLE_DOOR"
	CmdToggleLight      CommandType = "TOGGLE_LIGHT"
	CmdToggleCamera     CommandType = "TOGGLE_CAMERA"
	CmdSelectCamera     CommandType = "SELECT_CAMERA"
	CmdSetNightLength   CommandType = "SET_NIGHT_LENGTH"
	CmdSetAccessibility CommandType = "SET_ACCESSIBILITY"
	CmdSetDebug         CommandType = "SET_DEBUG"
	CmdToggleAccelerate CommandType = "TOGGLE_ACCELERATE"
	CmdRestartNight     CommandType = "RESTART_NIGHT"
	CmdAdvanceNight     CommandType = "ADVANCE_NIGHT"
	CmdResetCampaign    CommandType = "RESET_CAMPAIGN"
)

// ErrUnknownCommand is returned by Dispatch for a type it does not know.
var ErrUnknownCommand = errors.New("unknown command")

// Command is the wire form of a player action.
type Command struct {
	Type    CommandType `json:"type"`
	Side    zone.Side   `json:"side,omitempty"`
	Zone    int         `json:"zone,omitempty"`
	Seconds float64     `json:"seconds,omitempty"`
	Enabled bool        `json:"enabled,omitempty"`
	// Actor is set by the transport, never by the client.
	Actor string `json:"-"`
}

var knownCommands = map[CommandType]struct{}{
	CmdStartNight:       {},
	CmdToggleDoor:       {},
	CmdToggleLight:      {},
	CmdToggleCamera:     {},
	CmdSelectCamera:     {},
	CmdSetNightLength:   {},
	CmdSetAccessibility: {},
	CmdSetDebug:         {},
	CmdToggleAccelerate: {},
	CmdRestartNight:     {},
	CmdAdvanceNight:     {},
	CmdResetCampaign:    {},
}
