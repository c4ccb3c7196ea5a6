package cubature

import (
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/parroyoh/scuff-em/geom"
)

// Rule is a symmetric cubature rule on the reference triangle, stored as
// barycentric-style (u,v) coordinates in x = V1 + u(V2-V1) + v(V3-V1)
// with weights normalized to sum to one, so that
// Int_T f dA ~= Area * Sum w_i f(x_i).
type Rule struct {
	U, V, W []float64
}

func (r Rule) Len() int { return len(r.W) }

// Point maps rule node i onto the physical triangle T.
func (r Rule) Point(T geom.Triangle, i int) geom.Vec3 {
	e1 := T[1].Minus(T[0])
	e2 := T[2].Minus(T[0])
	return T[0].Plus(e1.Scale(r.U[i])).Plus(e2.Scale(r.V[i]))
}

// Order1 integrates linears exactly (centroid rule).
var Order1 = Rule{
	U: []float64{1. / 3.},
	V: []float64{1. / 3.},
	W: []float64{1.},
}

// Order5 is the classic 7-point degree-5 rule.
var Order5 = makeSymmetricRule([]orbit{
	{1. / 3., 1. / 3., 9. / 40.},
	{0.059715871789770, 0.470142064105115, 0.132394152788506},
	{0.797426985353087, 0.101286507323456, 0.125939180544827},
}, nil)

// Order7 is the 13-point degree-7 rule (Strang-Fix).
var Order7 = makeSymmetricRule([]orbit{
	{1. / 3., 1. / 3., -0.149570044467670},
	{0.479308067841923, 0.260345966079038, 0.175615257433204},
	{0.869739794195568, 0.065130102902216, 0.053347235608839},
}, []orbit3{
	{0.638444188569809, 0.312865496004875, 0.048690315425316, 0.077113760890257},
})

type orbit struct{ a, b, w float64 }  // permutations of (a,b,b)
type orbit3 struct{ a, b, c, w float64 } // all six permutations of (a,b,c)

func makeSymmetricRule(orbits []orbit, orbits3 []orbit3) (r Rule) {
	add := func(l1, l2, l3, w float64) {
		// barycentric (l1,l2,l3) -> (u,v) with u = l2, v = l3
		r.U = append(r.U, l2)
		r.V = append(r.V, l3)
		r.W = append(r.W, w)
	}
	for _, o := range orbits {
		if o.a == o.b { // centroid orbit
			add(o.a, o.b, o.b, o.w)
			continue
		}
		add(o.a, o.b, o.b, o.w)
		add(o.b, o.a, o.b, o.w)
		add(o.b, o.b, o.a, o.w)
	}
	for _, o := range orbits3 {
		perms := [6][3]float64{
			{o.a, o.b, o.c}, {o.a, o.c, o.b},
			{o.b, o.a, o.c}, {o.b, o.c, o.a},
			{o.c, o.a, o.b}, {o.c, o.b, o.a},
		}
		for _, p := range perms {
			add(p[0], p[1], p[2], o.w)
		}
	}
	return
}

// GaussLegendre returns n nodes and weights on [0,1], from gonum.
func GaussLegendre(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	(quad.Legendre{}).FixedLocations(x, w, 0, 1)
	return
}
