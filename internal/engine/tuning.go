package engine

// Tuning holds the night-level constants. Drains are expressed per minute.
type Tuning struct {
	MaxEnergy        float64 `yaml:"max_energy" json:"max_energy"`
	PassiveDrain     float64 `yaml:"passive_drain" json:"passive_drain"`
	DoorDrain        float64 `yaml:"door_drain" json:"door_drain"`
	LightDrain       float64 `yaml:"light_drain" json:"light_drain"`
	CameraDrain      float64 `yaml:"camera_drain" json:"camera_drain"`
	CameraUsageDecay float64 `yaml:"camera_usage_decay" json:"camera_usage_decay"`
	AccelerateScale  float64 `yaml:"accelerate_scale" json:"accelerate_scale"`
	SeedStride       uint32  `yaml:"seed_stride" json:"seed_stride"`
	FinalNight       int     `yaml:"final_night" json:"final_night"`
	MinNightLength   float64 `yaml:"min_night_length" json:"min_night_length"`
	MaxNightLength   float64 `yaml:"max_night_length" json:"max_night_length"`
	ClockHours       int     `yaml:"clock_hours" json:"clock_hours"`
}

// DefaultTuning returns the stock balance.
func DefaultTuning() Tuning {
	return Tuning{
		MaxEnergy:        100,
		PassiveDrain:     0.6,
		DoorDrain:        5,
		LightDrain:       6,
		CameraDrain:      4,
		CameraUsageDecay: 0.5,
		AccelerateScale:  8,
		SeedStride:       1234,
		FinalNight:       5,
		MinNightLength:   60,
		MaxNightLength:   360,
		ClockHours:       6,
	}
}

// ClampNightLength bounds a requested night length in seconds.
func (t Tuning) ClampNightLength(seconds float64) float64 {
	if seconds != seconds { // NaN
		return t.MaxNightLength
	}
	if seconds < t.MinNightLength {
		return t.MinNightLength
	}
	if seconds > t.MaxNightLength {
		return t.MaxNightLength
	}
	return seconds
}
