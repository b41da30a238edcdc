// Package sim plays nights headlessly with scripted players. It is used for
// balancing runs and as a regression harness for the engine.
package sim

import (
	"fmt"
	"sort"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
)

// Controls is the subset of engine commands a strategy may issue.
type Controls interface {
	ToggleDoor(side zone.Side)
	ToggleLight(side zone.Side)
	ToggleCamera()
	SelectCamera(z int)
}

// Strategy reacts to the night once per tick.
type Strategy interface {
	Name() string
	Act(snap engine.Snapshot, ctl Controls)
}

// threatened reports which sides have an adversary at the threshold or one
// step from it. An arrival is judged in the same tick it happens, so a door
// has to be shut before the last step.
func threatened(snap engine.Snapshot) (left, right bool) {
	for _, a := range snap.Adversaries {
		if a.Position < a.PathLength-2 {
			continue
		}
		switch a.Side {
		case zone.SideLeft:
			left = true
		case zone.SideRight:
			right = true
		}
	}
	return left, right
}

// Idle never touches anything.
type Idle struct{}

func (Idle) Name() string                  { return "idle" }
func (Idle) Act(engine.Snapshot, Controls) {}

// Doors shuts a door while its side is threatened and opens it otherwise.
type Doors struct{}

func (Doors) Name() string { return "doors" }

func (Doors) Act(snap engine.Snapshot, ctl Controls) {
	left, right := threatened(snap)
	if left != snap.LeftDoor {
		ctl.ToggleDoor(zone.SideLeft)
	}
	if right != snap.RightDoor {
		ctl.ToggleDoor(zone.SideRight)
	}
}

// Lights plays like Doors and also lights a threatened doorway, so whatever
// reaches the closed door is pushed back a step.
type Lights struct{}

func (Lights) Name() string { return "lights" }

func (Lights) Act(snap engine.Snapshot, ctl Controls) {
	Doors{}.Act(snap, ctl)
	left, right := threatened(snap)
	if left != snap.LeftLight {
		ctl.ToggleLight(zone.SideLeft)
	}
	if right != snap.RightLight {
		ctl.ToggleLight(zone.SideRight)
	}
}

// Turtle keeps both doors shut all night.
type Turtle struct{}

func (Turtle) Name() string { return "turtle" }

func (Turtle) Act(snap engine.Snapshot, ctl Controls) {
	if !snap.LeftDoor {
		ctl.ToggleDoor(zone.SideLeft)
	}
	if !snap.RightDoor {
		ctl.ToggleDoor(zone.SideRight)
	}
}

// Watcher keeps the camera up, cycling one zone every Dwell ticks, and
// falls back to the doors when something reaches the office.
type Watcher struct {
	Dwell int

	ticks int
}

func (w *Watcher) Name() string { return "watcher" }

func (w *Watcher) Act(snap engine.Snapshot, ctl Controls) {
	left, right := threatened(snap)
	if left || right {
		if snap.CameraOpen {
			ctl.ToggleCamera()
		}
		Doors{}.Act(snap, ctl)
		return
	}
	Doors{}.Act(snap, ctl)

	if !snap.CameraOpen {
		ctl.ToggleCamera()
		return
	}
	dwell := w.Dwell
	if dwell <= 0 {
		dwell = 20
	}
	w.ticks++
	if w.ticks%dwell == 0 && len(snap.Zones) > 0 {
		ctl.SelectCamera((snap.SelectedZone + 1) % len(snap.Zones))
	}
}

var registry = map[string]func() Strategy{
	"idle":    func() Strategy { return Idle{} },
	"doors":   func() Strategy { return Doors{} },
	"lights":  func() Strategy { return Lights{} },
	"turtle":  func() Strategy { return Turtle{} },
	"watcher": func() Strategy { return &Watcher{} },
}

// Names lists the registered strategies.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup returns a fresh strategy by name.
func Lookup(name string) (Strategy, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return build(), nil
}
