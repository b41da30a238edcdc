// Package storage - reconstructor.go
// Night recap: rebuilds the story of one night from the event log.
package storage

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
	"github.com/MRamiBalles/VeilleElectrique/internal/events"
)

// Reconstructor rebuilds night summaries from the event log.
// This is used for:
// 1. The post-night recap screen
// 2. Auditing a disputed jumpscare
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new recap builder.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// RecapEvent is a simplified event for the recap screen.
type RecapEvent struct {
	Elapsed   float64 `json:"elapsed"`
	EventType string  `json:"event_type"`
	Summary   string  `json:"summary"` // Human-readable description
	Impact    string  `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// NightRecap condenses the latest attempt at one night.
type NightRecap struct {
	SessionID      string         `json:"session_id"`
	Night          int            `json:"night"`
	Seed           uint32         `json:"seed"`
	Outcome        string         `json:"outcome,omitempty"`
	Culprit        string         `json:"culprit,omitempty"`
	Elapsed        float64        `json:"elapsed"`
	DoorToggles    int            `json:"door_toggles"`
	LightToggles   int            `json:"light_toggles"`
	CameraToggles  int            `json:"camera_toggles"`
	CameraSwitches int            `json:"camera_switches"`
	Depleted       bool           `json:"depleted"`
	Moves          map[string]int `json:"moves"`
	Sightings      map[string]int `json:"sightings"`
	Repels         map[string]int `json:"repels"`
	Timeline       []RecapEvent   `json:"timeline"`
}

// RecapNight loads a night's events and summarizes its latest attempt.
func (r *Reconstructor) RecapNight(ctx context.Context, sessionID string, night int) (*NightRecap, error) {
	evs, err := r.eventRepo.GetByNight(ctx, sessionID, night)
	if err != nil {
		return nil, fmt.Errorf("failed to get night events: %w", err)
	}
	recap := BuildRecap(sessionID, night, evs)
	return &recap, nil
}

// BuildRecap summarizes the events of one night. A night may have been
// replayed; only events from its last NIGHT_STARTED onwards are counted.
func BuildRecap(sessionID string, night int, evs []events.GameEvent) NightRecap {
	recap := NightRecap{
		SessionID: sessionID,
		Night:     night,
		Moves:     map[string]int{},
		Sightings: map[string]int{},
		Repels:    map[string]int{},
		Timeline:  []RecapEvent{},
	}

	start := 0
	for i, e := range evs {
		if e.Night == night && e.Type == events.EventType(engine.EventNightStarted) {
			start = i
		}
	}

	for _, e := range evs[start:] {
		if e.Night != night {
			continue
		}
		var cue engine.Event
		if err := e.Decode(&cue); err != nil {
			continue
		}
		if e.Elapsed > recap.Elapsed {
			recap.Elapsed = e.Elapsed
		}

		switch engine.EventKind(e.Type) {
		case engine.EventNightStarted:
			recap.Seed = cue.Seed
		case engine.EventDoorToggled:
			recap.DoorToggles++
		case engine.EventLightToggled:
			recap.LightToggles++
		case engine.EventCameraToggled:
			recap.CameraToggles++
		case engine.EventCameraSelected:
			recap.CameraSwitches++
		case engine.EventAdversaryMoved:
			recap.Moves[cue.Adversary]++
			continue
		case engine.EventAdversarySpotted:
			recap.Sightings[cue.Adversary]++
		case engine.EventAdversaryRepelled:
			recap.Repels[cue.Adversary]++
		case engine.EventEnergyDepleted:
			recap.Depleted = true
		case engine.EventJumpscare:
			recap.Outcome = OutcomeLost
			recap.Culprit = cue.Adversary
		case engine.EventNightWon:
			recap.Outcome = OutcomeWon
		case engine.EventCampaignWon:
			recap.Outcome = OutcomeCampaignWon
		default:
			continue
		}

		recap.Timeline = append(recap.Timeline, RecapEvent{
			Elapsed:   e.Elapsed,
			EventType: string(e.Type),
			Summary:   summarizeEvent(e.Type, cue),
			Impact:    determineImpact(e.Type),
		})
	}
	return recap
}

func onOff(v bool, on, off string) string {
	if v {
		return on
	}
	return off
}

func sideName(cue engine.Event) string {
	return onOff(cue.Side == "left", "gauche", "droite")
}

// summarizeEvent creates a human-readable summary.
func summarizeEvent(t events.EventType, cue engine.Event) string {
	switch engine.EventKind(t) {
	case engine.EventNightStarted:
		return fmt.Sprintf("Début de la nuit %d.", cue.Night)
	case engine.EventDoorToggled:
		return fmt.Sprintf("Porte %s %s.", sideName(cue), onOff(cue.Enabled, "fermée", "ouverte"))
	case engine.EventLightToggled:
		return fmt.Sprintf("Lumière %s %s.", sideName(cue), onOff(cue.Enabled, "allumée", "éteinte"))
	case engine.EventCameraToggled:
		return onOff(cue.Enabled, "Moniteur ouvert.", "Moniteur fermé.")
	case engine.EventCameraSelected:
		return fmt.Sprintf("Caméra %d sélectionnée.", cue.Zone)
	case engine.EventAdversarySpotted:
		return cue.Adversary + " repéré à la caméra."
	case engine.EventAdversaryRepelled:
		return fmt.Sprintf("%s repoussé par la lumière %s.", cue.Adversary, sideName(cue))
	case engine.EventEnergyDepleted:
		return "Panne d'énergie."
	case engine.EventJumpscare:
		return fmt.Sprintf("%s est entré par la porte %s.", cue.Adversary, sideName(cue))
	case engine.EventNightWon:
		return "06:00. Nuit terminée."
	case engine.EventCampaignWon:
		return "06:00. La dernière nuit est passée."
	default:
		return "Quelque chose a bougé dans le bâtiment."
	}
}

// determineImpact classifies the event impact.
func determineImpact(t events.EventType) string {
	switch engine.EventKind(t) {
	case engine.EventJumpscare, engine.EventEnergyDepleted, engine.EventAdversarySpotted:
		return "NEGATIVE"
	case engine.EventAdversaryRepelled, engine.EventNightWon, engine.EventCampaignWon:
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}
