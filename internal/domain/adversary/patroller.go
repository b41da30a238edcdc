package adversary

import (
	"math"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
)

// Patroller walks on a cooldown: after every step it rests before it may
// roll again, and both its step rate and its rest shrink as nights go on.
type Patroller struct {
	base
	tuning   PatrollerTuning
	cooldown float64
}

// NewPatroller creates a patroller on the given path.
func NewPatroller(id Identity, path zone.Path, t PatrollerTuning) *Patroller {
	return &Patroller{base: newBase(id, path), tuning: t}
}

func (p *Patroller) Kind() Kind { return KindPatroller }

// Cooldown returns the remaining rest in seconds.
func (p *Patroller) Cooldown() float64 { return p.cooldown }

func (p *Patroller) Update(v View, r Source, dt float64) {
	if p.cooldown > 0 {
		p.cooldown = math.Max(0, p.cooldown-dt)
		return
	}

	night := float64(v.Night)
	rate := p.tuning.BaseRate + night*p.tuning.NightRate
	if !roll(r, rate, dt) {
		return
	}

	p.advance()
	p.cooldown = math.Max(
		p.tuning.CooldownFloor,
		p.tuning.CooldownBase-math.Min(p.tuning.CooldownCap, night*p.tuning.CooldownNightRate),
	)
}

func (p *Patroller) Reset() {
	p.resetBase()
	p.cooldown = 0
}
