package rwg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parroyoh/scuff-em/geom"
)

func squareVerts() []geom.Vec3 {
	return []geom.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}
}

func TestSurfaceSquare(t *testing.T) {
	s, err := NewSurface("square", squareVerts(),
		[][3]int{{0, 1, 2}, {0, 2, 3}}, true, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(s.Panels))
	// one interior edge: the diagonal
	assert.Equal(t, 1, len(s.Edges))
	e := s.Edges[0]
	assert.Equal(t, 0, e.IV1)
	assert.Equal(t, 2, e.IV2)
	assert.True(t, near(e.Length, math.Sqrt2))
	// Q vertices are the panel corners opposite the shared edge
	assert.Equal(t, geom.Vec3{1, 0, 0}, e.QPlus)
	assert.Equal(t, geom.Vec3{0, 1, 0}, e.QMinus)
	assert.True(t, near(s.Panels[0].Area, 0.5))
	assert.True(t, near(s.Panels[1].Area, 0.5))
}

func TestSurfaceTetrahedron(t *testing.T) {
	verts := []geom.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	}
	tris := [][3]int{
		{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3},
	}
	s, err := NewSurface("tet", verts, tris, false, "Gold")
	assert.NoError(t, err)
	assert.Equal(t, 4, len(s.Panels))
	// closed surface: every one of the 6 mesh edges is interior
	assert.Equal(t, 6, len(s.Edges))
	for _, e := range s.Edges {
		assert.True(t, e.IV1 < e.IV2)
		assert.True(t, e.PanelPlus != e.PanelMinus)
		assert.True(t, e.Length > 0)
		assert.True(t, e.Radius > 0)
	}
	assert.Equal(t, "Gold", s.MediumName)
	assert.False(t, s.IsPEC)
}

func TestSurfaceErrors(t *testing.T) {
	{ // vertex index out of range
		_, err := NewSurface("bad", squareVerts(), [][3]int{{0, 1, 7}}, true, "")
		assert.Error(t, err)
	}
	{ // degenerate panel in the mesh
		verts := append(squareVerts(), geom.Vec3{2, 0, 0})
		_, err := NewSurface("bad", verts, [][3]int{{0, 1, 4}}, true, "")
		assert.Error(t, err)
	}
}

func TestSurfaceTranslated(t *testing.T) {
	s, err := NewSurface("square", squareVerts(),
		[][3]int{{0, 1, 2}, {0, 2, 3}}, true, "")
	assert.NoError(t, err)
	d := geom.Vec3{0, 0, 0.25}
	st := s.Translated(d)
	assert.Equal(t, len(s.Edges), len(st.Edges))
	assert.Equal(t, s.Panels[0].Centroid.Plus(d), st.Panels[0].Centroid)
	assert.Equal(t, s.Edges[0].QPlus.Plus(d), st.Edges[0].QPlus)
	// original untouched
	assert.Equal(t, geom.Vec3{0, 0, 0}, s.Vertices[0])
}

func near(a, b float64) (l bool) {
	if math.Abs(a-b) < 1.e-08*math.Max(math.Abs(a), 1) {
		l = true
	}
	return
}
