package cubature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parroyoh/scuff-em/geom"
)

// monomialExact is Int x^a y^b over the unit right triangle
// (0,0),(1,0),(0,1), which equals a! b! / (a+b+2)!.
func monomialExact(a, b int) float64 {
	fact := func(n int) (f float64) {
		f = 1
		for i := 2; i <= n; i++ {
			f *= float64(i)
		}
		return
	}
	return fact(a) * fact(b) / fact(a+b+2)
}

func ruleIntegrate(r Rule, T geom.Triangle, f func(p geom.Vec3) float64) (sum float64) {
	for i := 0; i < r.Len(); i++ {
		sum += r.W[i] * f(r.Point(T, i))
	}
	return sum * T.Area()
}

func TestRuleExactness(t *testing.T) {
	var (
		T     = geom.Triangle{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
		rules = []struct {
			r   Rule
			deg int
		}{
			{Order1, 1},
			{Order5, 5},
			{Order7, 7},
		}
	)
	for _, rc := range rules {
		// normalized weights
		var wSum float64
		for _, w := range rc.r.W {
			wSum += w
		}
		assert.True(t, near(wSum, 1))
		// exact on all monomials up to the design degree
		for a := 0; a+0 <= rc.deg; a++ {
			for b := 0; a+b <= rc.deg; b++ {
				got := ruleIntegrate(rc.r, T, func(p geom.Vec3) float64 {
					return math.Pow(p[0], float64(a)) * math.Pow(p[1], float64(b))
				})
				assert.True(t, near(got, monomialExact(a, b)),
					"rule degree %d monomial x^%d y^%d: got %v want %v",
					rc.deg, a, b, got, monomialExact(a, b))
			}
		}
	}
}

func TestGaussLegendre(t *testing.T) {
	for _, n := range []int{2, 4, 8, 12} {
		x, w := GaussLegendre(n)
		assert.Equal(t, n, len(x))
		var wSum, x5 float64
		for i := range x {
			assert.True(t, x[i] > 0 && x[i] < 1)
			wSum += w[i]
			x5 += w[i] * math.Pow(x[i], 5)
		}
		assert.True(t, near(wSum, 1))
		if n >= 3 {
			assert.True(t, near(x5, 1.0/6.0))
		}
	}
}

func TestFixedPairCubature(t *testing.T) {
	var (
		Ta = geom.Triangle{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
		Tb = geom.Triangle{{5, 0, 0}, {6, 0, 0}, {5, 1, 0}}
	)
	// separable integrand factorizes into single-panel integrals
	vals := FixedPairCubature(func(x, y geom.Vec3, out []complex128) {
		out[0] = complex(x[0]*(y[0]-5), 0)
		out[1] = 1
	}, Ta, Tb, Order5, 2)
	assert.True(t, near(real(vals[0]), monomialExact(1, 0)*monomialExact(1, 0)))
	assert.True(t, near(real(vals[1]), Ta.Area()*Tb.Area()))
}

func TestAdaptivePairCubature(t *testing.T) {
	var (
		Ta = geom.Triangle{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
		Tb = geom.Triangle{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}}
	)
	// moderately peaked kernel between close parallel panels
	f := func(x, y geom.Vec3, out []complex128) {
		out[0] = complex(1/x.Minus(y).Norm(), 0)
	}
	res := AdaptivePairCubature(f, Ta, Tb, 1, DefaultAdaptiveOptions())
	assert.True(t, res.Converged)
	assert.True(t, res.Evals > 0)

	// a starved budget must flag non-convergence but still return the
	// running estimate
	Tc := geom.Triangle{{0, 0, 0.1}, {1, 0, 0.1}, {0, 1, 0.1}}
	opt := DefaultAdaptiveOptions()
	opt.RelTol = 1.e-13
	opt.MaxEvals = 400
	starved := AdaptivePairCubature(f, Ta, Tc, 1, opt)
	assert.False(t, starved.Converged)
	assert.True(t, real(starved.Values[0]) > 0)

	// with a real budget the same integral converges, and the starved
	// estimate is in its neighborhood
	opt.RelTol = 1.e-6
	opt.MaxEvals = 5000000
	full := AdaptivePairCubature(f, Ta, Tc, 1, opt)
	assert.True(t, full.Converged)
	assert.InEpsilon(t, real(full.Values[0]), real(starved.Values[0]), 0.1)
}

func near(a, b float64) (l bool) {
	if math.Abs(a-b) < 1.e-08*math.Max(math.Abs(a), 1) {
		l = true
	}
	return
}
