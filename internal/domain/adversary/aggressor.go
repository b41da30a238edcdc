package adversary

import (
	"math"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
)

// Aggressor grows angry while the office hides behind doors and lights,
// and angrier still once energy runs low.
type Aggressor struct {
	base
	tuning AggressorTuning
	anger  float64
}

// NewAggressor creates an aggressor on the given path.
func NewAggressor(id Identity, path zone.Path, t AggressorTuning) *Aggressor {
	return &Aggressor{base: newBase(id, path), tuning: t}
}

func (a *Aggressor) Kind() Kind { return KindAggressor }

// Anger returns the current anger level.
func (a *Aggressor) Anger() float64 { return a.anger }

func (a *Aggressor) Update(v View, r Source, dt float64) {
	night := float64(v.Night)
	if v.AnyDefenseActive() {
		a.anger += dt * (a.tuning.AngerRise + a.tuning.AngerNightRise*night)
	} else {
		a.anger = math.Max(0, a.anger-dt*a.tuning.AngerDecay)
	}
	if v.Energy <= a.tuning.LowEnergyLevel {
		a.anger += dt * a.tuning.LowEnergyAnger
	}

	rate := a.tuning.BaseRate + a.anger*a.tuning.AngerRate + night*a.tuning.NightRate
	if roll(r, rate, dt) {
		a.advance()
	}
}

func (a *Aggressor) Reset() {
	a.resetBase()
	a.anger = 0
}
