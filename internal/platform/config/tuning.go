package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/adversary"
	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
)

// Tuning is the full balance sheet: the facility, the roster and every constant.
type Tuning struct {
	Zones       []string         `yaml:"zones"`
	Roster      []adversary.Spec `yaml:"roster"`
	Night       engine.Tuning    `yaml:"night"`
	Adversaries adversary.Tuning `yaml:"adversaries"`
}

// DefaultTuning returns the stock campaign balance.
func DefaultTuning() Tuning {
	return Tuning{
		Zones:       zone.DefaultCatalog(),
		Roster:      adversary.DefaultRoster(),
		Night:       engine.DefaultTuning(),
		Adversaries: adversary.DefaultTuning(),
	}
}

// LoadTuning loads tuning from a YAML file over the defaults.
// If the file doesn't exist, returns defaults.
func LoadTuning(path string) (Tuning, error) {
	cfg := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading tuning %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing tuning %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid tuning %s: %w", path, err)
	}
	return cfg, nil
}

// WriteTuning stores t as YAML, creating parent directories.
func WriteTuning(path string, t Tuning) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding tuning: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating tuning directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing tuning %s: %w", path, err)
	}
	return nil
}

// Validate rejects sheets the engine could not run.
func (t Tuning) Validate() error {
	var errs []error
	if len(t.Zones) == 0 {
		errs = append(errs, errors.New("zones: at least one zone is required"))
	}
	if len(t.Roster) == 0 {
		errs = append(errs, errors.New("roster: at least one adversary is required"))
	}
	for i, s := range t.Roster {
		if !s.Path.Within(zone.Catalog(t.Zones)) {
			errs = append(errs, fmt.Errorf("roster[%d] %s: path %v leaves the zone list", i, s.Identity.Name, s.Path))
		}
		if _, err := adversary.New(s, t.Adversaries); err != nil {
			errs = append(errs, fmt.Errorf("roster[%d]: %w", i, err))
		}
	}
	n := t.Night
	if n.MaxEnergy <= 0 {
		errs = append(errs, errors.New("night.max_energy must be positive"))
	}
	if n.PassiveDrain < 0 || n.DoorDrain < 0 || n.LightDrain < 0 || n.CameraDrain < 0 {
		errs = append(errs, errors.New("night drains must not be negative"))
	}
	if n.FinalNight < 1 {
		errs = append(errs, errors.New("night.final_night must be at least 1"))
	}
	if n.MinNightLength <= 0 || n.MinNightLength > n.MaxNightLength {
		errs = append(errs, fmt.Errorf("night length bounds %v..%v are invalid", n.MinNightLength, n.MaxNightLength))
	}
	return errors.Join(errs...)
}

// EngineConfig turns the sheet into an engine configuration.
func (t Tuning) EngineConfig(nightLength float64, entropy engine.EntropySource, emitter engine.Emitter) engine.Config {
	return engine.Config{
		Tuning:          t.Night,
		AdversaryTuning: t.Adversaries,
		Catalog:         zone.Catalog(t.Zones),
		Roster:          t.Roster,
		NightLength:     nightLength,
		Entropy:         entropy,
		Emitter:         emitter,
	}
}
