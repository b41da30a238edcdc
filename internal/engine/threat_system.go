package engine

import "github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"

// resolveThreats checks every adversary standing at its threshold, in
// roster order. An open door ends the night, a light behind a closed door
// pushes it back one step, and a closed dark doorway holds it. It reports
// whether a jumpscare ended the tick.
func (e *Engine) resolveThreats() bool {
	for _, a := range e.adversaries {
		if !a.AtThreshold() {
			continue
		}
		side := a.Path().ThreatSide()
		switch {
		case !e.doorClosed(side):
			e.state = StateGameOver
			e.culprit = a.Identity().Name
			e.emit(Event{Kind: EventJumpscare, Adversary: e.culprit, Side: side, Zone: a.CurrentZone()})
			return true
		case e.lightOn(side):
			a.Repel()
			e.emit(Event{Kind: EventAdversaryRepelled, Adversary: a.Identity().Name, Side: side, Zone: a.CurrentZone()})
		}
	}
	return false
}

// winNight closes a survived night. The last night also closes the campaign.
func (e *Engine) winNight() {
	e.state = StateWin
	e.elapsed = e.nightLength
	if e.night >= e.tuning.FinalNight {
		e.finalWin = true
		e.emit(Event{Kind: EventCampaignWon})
		return
	}
	e.emit(Event{Kind: EventNightWon})
}

func (e *Engine) doorClosed(side zone.Side) bool {
	if side == zone.SideLeft {
		return e.leftDoor
	}
	return e.rightDoor
}

func (e *Engine) lightOn(side zone.Side) bool {
	if side == zone.SideLeft {
		return e.leftLight
	}
	return e.rightLight
}
