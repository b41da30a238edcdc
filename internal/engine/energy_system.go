package engine

// drainEnergy charges the passive load plus every active consumer.
// Rates are per minute.
func (e *Engine) drainEnergy(dt float64) {
	perMinute := e.tuning.PassiveDrain
	if e.leftDoor {
		perMinute += e.tuning.DoorDrain
	}
	if e.rightDoor {
		perMinute += e.tuning.DoorDrain
	}
	if e.leftLight {
		perMinute += e.tuning.LightDrain
	}
	if e.rightLight {
		perMinute += e.tuning.LightDrain
	}
	if e.cameraOpen {
		perMinute += e.tuning.CameraDrain
	}

	e.energy -= perMinute * dt / 60
	if e.energy < 0 {
		e.energy = 0
	}
}

// releaseOnBlackout kills every consumer once energy is gone.
func (e *Engine) releaseOnBlackout() {
	if e.energy > 0 {
		return
	}
	e.leftDoor, e.rightDoor = false, false
	e.leftLight, e.rightLight = false, false
	e.cameraOpen = false
	for _, a := range e.adversaries {
		a.SetVisible(false)
	}
	if !e.depleted {
		e.depleted = true
		e.emit(Event{Kind: EventEnergyDepleted})
	}
}
