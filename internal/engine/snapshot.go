package engine

import (
	"github.com/MRamiBalles/VeilleElectrique/internal/domain/adversary"
	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
)

// AdversarySnapshot is the render-facing view of one adversary.
type AdversarySnapshot struct {
	adversary.Identity
	Kind       adversary.Kind `json:"kind"`
	Position   int            `json:"position"`
	PathLength int            `json:"path_length"`
	Zone       int            `json:"zone"`
	ZoneName   string         `json:"zone_name"`
	Side       zone.Side      `json:"side"`
	Visible    bool           `json:"visible"`
}

// Snapshot is an immutable copy of everything the presentation needs.
type Snapshot struct {
	State        State               `json:"state"`
	Night        int                 `json:"night"`
	FinalNight   int                 `json:"final_night"`
	FinalWin     bool                `json:"final_win"`
	Elapsed      float64             `json:"elapsed"`
	NightLength  float64             `json:"night_length"`
	Clock        string              `json:"clock"`
	Energy       float64             `json:"energy"`
	LeftDoor     bool                `json:"left_door"`
	RightDoor    bool                `json:"right_door"`
	LeftLight    bool                `json:"left_light"`
	RightLight   bool                `json:"right_light"`
	CameraOpen   bool                `json:"camera_open"`
	SelectedZone int                 `json:"selected_zone"`
	CameraUsage  float64             `json:"camera_usage"`
	CameraFeeds  []string            `json:"camera_feeds"`
	Zones        []string            `json:"zones"`
	TimeScale    float64             `json:"time_scale"`
	Seed         uint32              `json:"seed"`
	Culprit      string              `json:"culprit,omitempty"`
	Adversaries  []AdversarySnapshot `json:"adversaries"`
}

// Snapshot copies the engine state. Slices are fresh so callers may keep them.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:        e.state,
		Night:        e.night,
		FinalNight:   e.tuning.FinalNight,
		FinalWin:     e.finalWin,
		Elapsed:      e.elapsed,
		NightLength:  e.nightLength,
		Clock:        e.Clock(),
		Energy:       e.energy,
		LeftDoor:     e.leftDoor,
		RightDoor:    e.rightDoor,
		LeftLight:    e.leftLight,
		RightLight:   e.rightLight,
		CameraOpen:   e.cameraOpen,
		SelectedZone: e.selectedZone,
		CameraUsage:  e.cameraUsage,
		CameraFeeds:  append([]string(nil), e.cameraFeeds...),
		Zones:        append([]string(nil), e.catalog...),
		TimeScale:    e.timeScale,
		Seed:         e.rng.Seed(),
		Culprit:      e.culprit,
		Adversaries:  make([]AdversarySnapshot, 0, len(e.adversaries)),
	}
	for _, a := range e.adversaries {
		path := a.Path()
		s.Adversaries = append(s.Adversaries, AdversarySnapshot{
			Identity:   a.Identity(),
			Kind:       a.Kind(),
			Position:   a.Position(),
			PathLength: len(path),
			Zone:       a.CurrentZone(),
			ZoneName:   e.catalog.Name(a.CurrentZone()),
			Side:       path.ThreatSide(),
			Visible:    a.Visible(),
		})
	}
	return s
}

// Feed returns the sighting note for a zone, or "" when nothing was seen.
func (s Snapshot) Feed(z int) string {
	if z < 0 || z >= len(s.CameraFeeds) {
		return ""
	}
	return s.CameraFeeds[z]
}
