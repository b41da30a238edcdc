package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Len(t, c, 7)
	assert.Equal(t, "Entrepôt", c.Name(0))
	assert.Equal(t, "Ascenseur", c.Name(6))
	assert.Equal(t, "", c.Name(7))
	assert.Equal(t, "", c.Name(-1))
	assert.True(t, c.Contains(3))
	assert.False(t, c.Contains(7))
}

func TestThreatSide(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want Side
	}{
		{name: "even threshold", path: Path{0, 1, 3, 5, 6}, want: SideLeft},
		{name: "odd threshold", path: Path{2, 3, 5}, want: SideRight},
		{name: "single zone", path: Path{1}, want: SideRight},
		{name: "zero threshold", path: Path{4, 2, 0}, want: SideLeft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.ThreatSide())
		})
	}
}

func TestPathIndices(t *testing.T) {
	p := Path{2, 3, 4, 6}

	assert.Equal(t, 6, p.Threshold())
	assert.Equal(t, 3, p.LastIndex())
	assert.Equal(t, 0, Path{}.LastIndex())
}

func TestPathWithin(t *testing.T) {
	c := DefaultCatalog()

	assert.True(t, Path{0, 1, 3, 5, 6}.Within(c))
	assert.False(t, Path{0, 9}.Within(c))
	assert.False(t, Path{}.Within(c))
}

func TestSideValid(t *testing.T) {
	assert.True(t, SideLeft.Valid())
	assert.True(t, SideRight.Valid())
	assert.False(t, Side("up").Valid())
}
