package engine

import "github.com/MRamiBalles/VeilleElectrique/internal/domain/adversary"

// trackCameraUsage accumulates monitor time and bleeds it off while closed.
func (e *Engine) trackCameraUsage(dt float64) {
	if e.cameraOpen {
		e.cameraUsage += dt
		return
	}
	e.cameraUsage -= dt * e.tuning.CameraUsageDecay
	if e.cameraUsage < 0 {
		e.cameraUsage = 0
	}
}

// moveAdversaries updates the roster in order against one shared view.
func (e *Engine) moveAdversaries(dt float64) {
	v := e.view()
	for _, a := range e.adversaries {
		from := a.CurrentZone()
		a.Update(v, e.rng, dt)
		if to := a.CurrentZone(); to != from {
			e.emit(Event{Kind: EventAdversaryMoved, Adversary: a.Identity().Name, Zone: to, From: from})
		}
	}
}

// refreshVisibility marks adversaries standing in the watched zone and
// records a sighting note on that zone's feed.
func (e *Engine) refreshVisibility() {
	for _, a := range e.adversaries {
		z := a.CurrentZone()
		visible := e.cameraOpen && z == e.selectedZone
		was := a.Visible()
		a.SetVisible(visible)
		if !visible {
			continue
		}
		e.cameraFeeds[z] = sightingNote(a)
		if !was {
			e.emit(Event{Kind: EventAdversarySpotted, Adversary: a.Identity().Name, Zone: z})
		}
	}
}

func sightingNote(a adversary.Adversary) string {
	return a.Identity().Name + " en vue"
}
