package adversary

import (
	"math"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
)

// Opportunist feeds on camera use: exposure builds while the panel is open
// and bleeds off at a slower rate once it closes.
type Opportunist struct {
	base
	tuning   OpportunistTuning
	exposure float64
}

// NewOpportunist creates an opportunist on the given path.
func NewOpportunist(id Identity, path zone.Path, t OpportunistTuning) *Opportunist {
	return &Opportunist{base: newBase(id, path), tuning: t}
}

func (o *Opportunist) Kind() Kind { return KindOpportunist }

// Exposure returns the accumulated camera exposure in seconds.
func (o *Opportunist) Exposure() float64 { return o.exposure }

func (o *Opportunist) Update(v View, r Source, dt float64) {
	if v.CameraOpen {
		o.exposure += dt
	} else {
		o.exposure = math.Max(0, o.exposure-dt*o.tuning.ExposureDecay)
	}

	rate := (o.tuning.BaseRate + float64(v.Night)*o.tuning.NightRate) * (1 + o.exposure*o.tuning.ExposureGain)
	rate = math.Min(o.tuning.RateCap, rate)
	if roll(r, rate, dt) {
		o.advance()
	}
}

func (o *Opportunist) Reset() {
	o.resetBase()
	o.exposure = 0
}
