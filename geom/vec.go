package geom

import "math"

// Vec3 is a point or direction in R3. Fixed-size value type so that the
// innermost integration loops stay allocation free.
type Vec3 [3]float64

func (v Vec3) Plus(w Vec3) Vec3  { return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }
func (v Vec3) Minus(w Vec3) Vec3 { return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }
func (v Vec3) Scale(a float64) Vec3 {
	return Vec3{a * v[0], a * v[1], a * v[2]}
}

func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

func (v Vec3) Norm() float64  { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Norm2() float64 { return v.Dot(v) }

// MatVec applies a 3x3 matrix (row major) to v, used for rigid-motion
// generator matrices.
func MatVec(M [3][3]float64, v Vec3) (w Vec3) {
	for i := 0; i < 3; i++ {
		w[i] = M[i][0]*v[0] + M[i][1]*v[1] + M[i][2]*v[2]
	}
	return
}
