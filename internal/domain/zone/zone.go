// Package zone defines the surveillance zones adversaries walk through and
// the office sides they end up threatening.
// This package is PURE and must NOT import any infrastructure packages.
package zone

// Side identifies one of the two office doorways.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Valid reports whether s names a real doorway.
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// Catalog is the ordered list of zone names; a zone index is a position in it.
type Catalog []string

// DefaultCatalog is the facility layout. Index 6 is the office threshold.
func DefaultCatalog() Catalog {
	return Catalog{
		"Entrepôt",
		"Couloir nord",
		"Atelier",
		"Salle des fusibles",
		"Hall vitre",
		"Stockage",
		"Ascenseur",
	}
}

// Contains reports whether idx is a valid zone index.
func (c Catalog) Contains(idx int) bool {
	return idx >= 0 && idx < len(c)
}

// Name returns the zone name, or "" for an unknown index.
func (c Catalog) Name(idx int) string {
	if !c.Contains(idx) {
		return ""
	}
	return c[idx]
}

// Path is an adversary's approach route, spawn first, threshold last.
type Path []int

// Threshold returns the final zone index of the path.
func (p Path) Threshold() int {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// LastIndex returns the position index of the threshold.
func (p Path) LastIndex() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// ThreatSide maps the threshold zone onto a doorway: even zones come in
// from the left, odd zones from the right.
func (p Path) ThreatSide() Side {
	if p.Threshold()%2 == 0 {
		return SideLeft
	}
	return SideRight
}

// Within reports whether every zone on the path exists in the catalog.
func (p Path) Within(c Catalog) bool {
	if len(p) == 0 {
		return false
	}
	for _, z := range p {
		if !c.Contains(z) {
			return false
		}
	}
	return true
}
