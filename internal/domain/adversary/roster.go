package adversary

import (
	"fmt"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
)

// Kind selects the update policy of an adversary.
type Kind string

const (
	KindPatroller   Kind = "patroller"
	KindOpportunist Kind = "opportunist"
	KindAggressor   Kind = "aggressor"
)

// Spec is the static definition of one roster slot.
type Spec struct {
	Kind     Kind      `yaml:"kind" json:"kind"`
	Identity Identity  `yaml:"identity" json:"identity"`
	Path     zone.Path `yaml:"path" json:"path"`
}

// DefaultRoster is the campaign line-up, in update order.
func DefaultRoster() []Spec {
	return []Spec{
		{
			Kind:     KindPatroller,
			Identity: Identity{Name: "Errant-8", Color: "#60a5fa", Model: "drone"},
			Path:     zone.Path{0, 1, 3, 5, 6},
		},
		{
			Kind:     KindOpportunist,
			Identity: Identity{Name: "Guette-scan", Color: "#fbbf24", Model: "scanner"},
			Path:     zone.Path{2, 3, 4, 6},
		},
		{
			Kind:     KindAggressor,
			Identity: Identity{Name: "Choc-Sentinelle", Color: "#f472b6", Model: "brute"},
			Path:     zone.Path{1, 2, 4, 6},
		},
	}
}

// Build instantiates a roster. Order is preserved: it is the update order.
func Build(specs []Spec, t Tuning, catalog zone.Catalog) ([]Adversary, error) {
	out := make([]Adversary, 0, len(specs))
	for i, s := range specs {
		if !s.Path.Within(catalog) {
			return nil, fmt.Errorf("roster slot %d (%s): path %v leaves the zone catalog", i, s.Identity.Name, s.Path)
		}
		a, err := New(s, t)
		if err != nil {
			return nil, fmt.Errorf("roster slot %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// New creates a single adversary from its spec.
func New(s Spec, t Tuning) (Adversary, error) {
	switch s.Kind {
	case KindPatroller:
		return NewPatroller(s.Identity, s.Path, t.Patroller), nil
	case KindOpportunist:
		return NewOpportunist(s.Identity, s.Path, t.Opportunist), nil
	case KindAggressor:
		return NewAggressor(s.Identity, s.Path, t.Aggressor), nil
	default:
		return nil, fmt.Errorf("unknown adversary kind %q", s.Kind)
	}
}
