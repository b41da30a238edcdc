package adversary

// PatrollerTuning holds the cooldown-gated walker's constants.
type PatrollerTuning struct {
	BaseRate          float64 `yaml:"base_rate" json:"base_rate"`
	NightRate         float64 `yaml:"night_rate" json:"night_rate"`
	CooldownBase      float64 `yaml:"cooldown_base" json:"cooldown_base"`
	CooldownNightRate float64 `yaml:"cooldown_night_rate" json:"cooldown_night_rate"`
	CooldownCap       float64 `yaml:"cooldown_cap" json:"cooldown_cap"`
	CooldownFloor     float64 `yaml:"cooldown_floor" json:"cooldown_floor"`
}

// OpportunistTuning holds the camera-punishing walker's constants.
type OpportunistTuning struct {
	BaseRate      float64 `yaml:"base_rate" json:"base_rate"`
	NightRate     float64 `yaml:"night_rate" json:"night_rate"`
	ExposureGain  float64 `yaml:"exposure_gain" json:"exposure_gain"`
	ExposureDecay float64 `yaml:"exposure_decay" json:"exposure_decay"`
	RateCap       float64 `yaml:"rate_cap" json:"rate_cap"`
}

// AggressorTuning holds the defense-punishing walker's constants.
type AggressorTuning struct {
	BaseRate       float64 `yaml:"base_rate" json:"base_rate"`
	AngerRate      float64 `yaml:"anger_rate" json:"anger_rate"`
	NightRate      float64 `yaml:"night_rate" json:"night_rate"`
	AngerRise      float64 `yaml:"anger_rise" json:"anger_rise"`
	AngerNightRise float64 `yaml:"anger_night_rise" json:"anger_night_rise"`
	AngerDecay     float64 `yaml:"anger_decay" json:"anger_decay"`
	LowEnergyLevel float64 `yaml:"low_energy_level" json:"low_energy_level"`
	LowEnergyAnger float64 `yaml:"low_energy_anger" json:"low_energy_anger"`
}

// Tuning groups the constants of all three variants.
type Tuning struct {
	Patroller   PatrollerTuning   `yaml:"patroller" json:"patroller"`
	Opportunist OpportunistTuning `yaml:"opportunist" json:"opportunist"`
	Aggressor   AggressorTuning   `yaml:"aggressor" json:"aggressor"`
}

// DefaultTuning returns the balance the five-night campaign is built around.
func DefaultTuning() Tuning {
	return Tuning{
		Patroller: PatrollerTuning{
			BaseRate:          0.08,
			NightRate:         0.04,
			CooldownBase:      2,
			CooldownNightRate: 0.2,
			CooldownCap:       1.5,
			CooldownFloor:     0.5,
		},
		Opportunist: OpportunistTuning{
			BaseRate:      0.05,
			NightRate:     0.04,
			ExposureGain:  0.5,
			ExposureDecay: 0.5,
			RateCap:       0.5,
		},
		Aggressor: AggressorTuning{
			BaseRate:       0.07,
			AngerRate:      0.02,
			NightRate:      0.02,
			AngerRise:      0.6,
			AngerNightRise: 0.1,
			AngerDecay:     0.4,
			LowEnergyLevel: 15,
			LowEnergyAnger: 1.5,
		},
	}
}
