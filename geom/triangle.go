package geom

import (
	"fmt"
	"math"
)

// Triangle is a planar panel given by its three vertices.
type Triangle [3]Vec3

func (T Triangle) Centroid() Vec3 {
	return Vec3{
		(T[0][0] + T[1][0] + T[2][0]) / 3,
		(T[0][1] + T[1][1] + T[2][1]) / 3,
		(T[0][2] + T[1][2] + T[2][2]) / 3,
	}
}

// AreaVector is (V2-V1) x (V3-V1); its norm is twice the panel area.
func (T Triangle) AreaVector() Vec3 {
	return T[1].Minus(T[0]).Cross(T[2].Minus(T[0]))
}

func (T Triangle) Area() float64 {
	return 0.5 * T.AreaVector().Norm()
}

func (T Triangle) UnitNormal() Vec3 {
	av := T.AreaVector()
	return av.Scale(1. / av.Norm())
}

// Radius is the maximum distance from the centroid to a vertex, the
// length scale used by the relative-separation far-field cutoff.
func (T Triangle) Radius() (r float64) {
	c := T.Centroid()
	for i := 0; i < 3; i++ {
		if d := T[i].Minus(c).Norm(); d > r {
			r = d
		}
	}
	return
}

// MaxEdge returns the length of the longest edge.
func (T Triangle) MaxEdge() (l float64) {
	for i := 0; i < 3; i++ {
		if d := T[(i+1)%3].Minus(T[i]).Norm(); d > l {
			l = d
		}
	}
	return
}

// CheckPanel rejects degenerate panels: coincident vertices or
// (near-)zero area indicate a corrupt mesh and are fatal input errors.
func (T Triangle) CheckPanel() error {
	var (
		lMax = T.MaxEdge()
	)
	if lMax == 0 {
		return fmt.Errorf("degenerate panel: all three vertices coincide at %v", T[0])
	}
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		if T[j].Minus(T[i]).Norm() < DegenerateTol*lMax {
			return fmt.Errorf("degenerate panel: vertices %d and %d coincide", i, j)
		}
	}
	if T.Area() < DegenerateTol*lMax*lMax {
		return fmt.Errorf("degenerate panel: zero area (collinear vertices)")
	}
	return nil
}

// DegenerateTol is the relative tolerance below which a panel is
// considered degenerate.
const DegenerateTol = 1.e-10

// SamePoint reports coordinate equality within tol.
func SamePoint(a, b Vec3, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol &&
		math.Abs(a[1]-b[1]) <= tol &&
		math.Abs(a[2]-b[2]) <= tol
}
