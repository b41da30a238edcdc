// Package adversary defines the three hostile entities that stalk the office
// during a night and the update policy each one follows.
// This package is PURE and must NOT import any infrastructure packages.
//
// Every variant moves with the same Bernoulli-per-tick pattern: a draw
// below rate*dt advances the adversary exactly one step along its path.
package adversary

import "github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"

// Source is the random stream an adversary draws from.
type Source interface {
	Next() float64
}

// View is the read-only projection of the night an adversary reacts to.
// It is passed by value so an update can never reach back into the engine.
type View struct {
	Night        int
	Energy       float64
	LeftDoor     bool
	RightDoor    bool
	LeftLight    bool
	RightLight   bool
	CameraOpen   bool
	SelectedZone int
}

// AnyDefenseActive reports whether a door or a light is engaged.
func (v View) AnyDefenseActive() bool {
	return v.LeftDoor || v.RightDoor || v.LeftLight || v.RightLight
}

// Identity is the presentation-facing description of an adversary.
type Identity struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
	Model string `json:"model" yaml:"model"`
}

// Adversary is the contract the night engine drives.
type Adversary interface {
	Identity() Identity
	Kind() Kind
	Path() zone.Path
	Position() int
	CurrentZone() int
	AtThreshold() bool
	Visible() bool
	SetVisible(visible bool)

	// Update advances the adversary's own state by dt seconds.
	Update(v View, r Source, dt float64)
	// Repel pushes the adversary one step back from the threshold.
	Repel()
	// Reset returns the adversary to its spawn with all accumulators cleared.
	Reset()
}

// base carries the fields every variant shares.
type base struct {
	identity Identity
	path     zone.Path
	position int
	visible  bool
}

func newBase(id Identity, path zone.Path) base {
	p := make(zone.Path, len(path))
	copy(p, path)
	return base{identity: id, path: p}
}

func (b *base) Identity() Identity { return b.identity }

// Path returns a copy of the route.
func (b *base) Path() zone.Path {
	p := make(zone.Path, len(b.path))
	copy(p, b.path)
	return p
}

func (b *base) Position() int { return b.position }

func (b *base) CurrentZone() int {
	if len(b.path) == 0 {
		return 0
	}
	return b.path[b.position]
}

func (b *base) AtThreshold() bool {
	return b.position >= b.path.LastIndex()
}

func (b *base) Visible() bool { return b.visible }

func (b *base) SetVisible(visible bool) { b.visible = visible }

func (b *base) Repel() {
	if b.position > 0 {
		b.position--
	}
}

// advance moves one step forward, holding at the threshold.
func (b *base) advance() {
	if b.position < b.path.LastIndex() {
		b.position++
	}
}

func (b *base) resetBase() {
	b.position = 0
	b.visible = false
}

// roll performs one Bernoulli trial with the given per-second rate.
func roll(r Source, rate, dt float64) bool {
	return r.Next() < rate*dt
}
