package bem

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parroyoh/scuff-em/geom"
	"github.com/parroyoh/scuff-em/substrate"
)

var (
	testVa = geom.Triangle{{0, 0, 0}, {1, 0, 0}, {0.2, 0.9, 0}}
	testQa = geom.Vec3{0.2, 0.9, 0}
	testQb = geom.Vec3{0.3, 1, 0}
)

func testVb(z float64) geom.Triangle {
	return geom.Triangle{{0.1, 0.2, z}, {1.1, 0.1, z}, {0.3, 1, z}}
}

func testEngine() *Engine {
	return NewEngine(DefaultOptions(), nil)
}

func ppReq(Vb geom.Triangle, k complex128, force ForceMode) PPRequest {
	return PPRequest{
		Va: testVa, Vb: Vb,
		Qa: testQa, Qb: geom.Vec3{testQb[0], testQb[1], Vb[0][2]},
		K: k, NeedCross: true, Force: force,
	}
}

// Both H integrals are symmetric under exchanging the two half-basis
// functions, whatever evaluation path the pair takes.
func TestPanelPairReciprocity(t *testing.T) {
	e := testEngine()
	for _, z := range []float64{0.4, 8} { // near (cached) and far (direct)
		req := ppReq(testVb(z), 0.9+0.1i, NoForce)
		fwd, err := e.PanelPanelInteractions(req)
		assert.NoError(t, err)
		assert.True(t, fwd.Converged)

		req.Va, req.Vb = req.Vb, req.Va
		req.Qa, req.Qb = req.Qb, req.Qa
		rev, err := e.PanelPanelInteractions(req)
		assert.NoError(t, err)
		assert.True(t, cnearTol(fwd.HPlus, rev.HPlus, 1.e-6), "HPlus at z=%v", z)
		assert.True(t, cnearTol(fwd.HTimes, rev.HTimes, 1.e-6), "HTimes at z=%v", z)
	}
}

// The cached-moment and direct-quadrature paths must agree on any
// non-touching pair, in particular around the far-field cutoff where
// the default dispatch switches between them.
func TestPanelPairPathAgreement(t *testing.T) {
	e := testEngine()
	for _, z := range []float64{0.3, 1.0, 2.7} {
		var (
			k   = complex128(1.2 + 0.3i)
			rPP = ppReq(testVb(z), k, ForcePanelPair)
			rD  = ppReq(testVb(z), k, ForceDirect)
		)
		pp, err := e.PanelPanelInteractions(rPP)
		assert.NoError(t, err)
		dir, err := e.PanelPanelInteractions(rD)
		assert.NoError(t, err)
		assert.True(t, cnearTol(pp.HPlus, dir.HPlus, 1.e-6),
			"HPlus at z=%v: %v vs %v", z, pp.HPlus, dir.HPlus)
		assert.True(t, cnearTol(pp.HTimes, dir.HTimes, 1.e-6),
			"HTimes at z=%v: %v vs %v", z, pp.HTimes, dir.HTimes)
	}
}

// Displacing the second panel (with its Q vertex) and differencing must
// reproduce the analytic gradient on both evaluation paths.
func TestPanelPairGradientFiniteDifference(t *testing.T) {
	var (
		e = testEngine()
		k = complex128(0.8 + 0.05i)
		h = 1.e-4
	)
	for _, force := range []ForceMode{ForcePanelPair, ForceDirect} {
		req := ppReq(testVb(0.6), k, force)
		req.NumGradientComponents = 3
		grad, err := e.PanelPanelInteractions(req)
		assert.NoError(t, err)

		for mu := 0; mu < 3; mu++ {
			var d geom.Vec3
			d[mu] = h
			shifted := func(s float64) PPResult {
				r := ppReq(testVb(0.6), k, force)
				for i := range r.Vb {
					r.Vb[i] = r.Vb[i].Plus(d.Scale(s))
				}
				r.Qb = r.Qb.Plus(d.Scale(s))
				out, err := e.PanelPanelInteractions(r)
				assert.NoError(t, err)
				return out
			}
			var (
				plus  = shifted(1)
				minus = shifted(-1)
				inv2h = complex(1/(2*h), 0)
			)
			assert.True(t, cnearTol((plus.HPlus-minus.HPlus)*inv2h, grad.GradHPlus[mu], 1.e-4),
				"force %d GradHPlus[%d]", force, mu)
			assert.True(t, cnearTol((plus.HTimes-minus.HTimes)*inv2h, grad.GradHTimes[mu], 1.e-4),
				"force %d GradHTimes[%d]", force, mu)
		}
	}
}

// Rotating the second panel about z and differencing must reproduce the
// torque derivative computed with the rotation generator.
func TestPanelPairTorqueFiniteDifference(t *testing.T) {
	var (
		e     = testEngine()
		k     = complex128(1.1)
		gz    = [3][3]float64{{0, -1, 0}, {1, 0, 0}, {0, 0, 0}}
		theta = 1.e-4
	)
	req := ppReq(testVb(0.7), k, NoForce)
	req.TorqueAxes = [][3][3]float64{gz}
	tor, err := e.PanelPanelInteractions(req)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tor.HPlusTorque))

	rotZ := func(v geom.Vec3, a float64) geom.Vec3 {
		c, s := math.Cos(a), math.Sin(a)
		return geom.Vec3{c*v[0] - s*v[1], s*v[0] + c*v[1], v[2]}
	}
	shifted := func(a float64) PPResult {
		r := ppReq(testVb(0.7), k, NoForce)
		for i := range r.Vb {
			r.Vb[i] = rotZ(r.Vb[i], a)
		}
		r.Qb = rotZ(r.Qb, a)
		out, err := e.PanelPanelInteractions(r)
		assert.NoError(t, err)
		return out
	}
	var (
		plus  = shifted(theta)
		minus = shifted(-theta)
		inv2t = complex(1/(2*theta), 0)
	)
	assert.True(t, cnearTol((plus.HPlus-minus.HPlus)*inv2t, tor.HPlusTorque[0], 1.e-4))
	assert.True(t, cnearTol((plus.HTimes-minus.HTimes)*inv2t, tor.HTimesTorque[0], 1.e-4))
}

func TestPanelPairTouchingMatchesSingularEvaluator(t *testing.T) {
	// a shared-edge pair must route through the singular evaluator and
	// return a finite, converged result that is stable in the order
	var (
		Vb = geom.Triangle{{0, 0, 0}, {1, 0, 0}, {0.5, -0.7, 0.3}}
		e1 = testEngine()
		e2 = testEngine()
	)
	e2.Opts.TaylorOrder = 16
	req := PPRequest{
		Va: testVa, Vb: Vb, Qa: testQa, Qb: Vb[2],
		K: 1.5, NeedCross: true,
	}
	lo, err := e1.PanelPanelInteractions(req)
	assert.NoError(t, err)
	assert.True(t, lo.Converged)
	hi, err := e2.PanelPanelInteractions(req)
	assert.NoError(t, err)
	assert.True(t, cnearTol(lo.HPlus, hi.HPlus, 1.e-6))
	assert.True(t, cnearTol(lo.HTimes, hi.HTimes, 1.e-6))
}

func TestPanelPairErrors(t *testing.T) {
	e := testEngine()
	{ // zero wavenumber: HPlus undefined
		req := ppReq(testVb(1), 0, NoForce)
		_, err := e.PanelPanelInteractions(req)
		assert.Error(t, err)
	}
	{ // degenerate panel
		req := ppReq(testVb(1), 1, NoForce)
		req.Va = geom.Triangle{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
		_, err := e.PanelPanelInteractions(req)
		assert.Error(t, err)
	}
	{ // derivatives on a touching pair
		req := ppReq(testVa, 1, NoForce) // identical panels
		req.Qb = testQa
		req.NumGradientComponents = 1
		_, err := e.PanelPanelInteractions(req)
		assert.Error(t, err)
	}
	{ // forcing a non-singular path on a touching pair
		req := ppReq(testVa, 1, ForceDirect)
		_, err := e.PanelPanelInteractions(req)
		assert.Error(t, err)
	}
	{ // derivatives with a non-trivial substrate kernel
		gp := NewEngine(DefaultOptions(), substrate.GroundPlane{Z: -2})
		req := ppReq(testVb(1), 1, NoForce)
		req.NumGradientComponents = 1
		_, err := gp.PanelPanelInteractions(req)
		assert.Error(t, err)
	}
	{ // out-of-range gradient component count
		req := ppReq(testVb(1), 1, NoForce)
		req.NumGradientComponents = 4
		_, err := e.PanelPanelInteractions(req)
		assert.Error(t, err)
	}
}

func TestPanelPairGroundPlane(t *testing.T) {
	var (
		fs  = testEngine()
		gp  = NewEngine(DefaultOptions(), substrate.GroundPlane{Z: -0.5})
		far = NewEngine(DefaultOptions(), substrate.GroundPlane{Z: -5.e4})
		req = ppReq(testVb(0.8), 1.2, NoForce)
	)
	free, err := fs.PanelPanelInteractions(req)
	assert.NoError(t, err)
	near, err := gp.PanelPanelInteractions(req)
	assert.NoError(t, err)
	remote, err := far.PanelPanelInteractions(req)
	assert.NoError(t, err)
	// a nearby image contributes, a remote one is negligible
	assert.False(t, cnearTol(near.HPlus, free.HPlus, 1.e-4))
	assert.True(t, cnearTol(remote.HPlus, free.HPlus, 1.e-4))
}

func cnearTol(a, b complex128, tol float64) bool {
	scale := math.Max(cmplx.Abs(b), 1.e-14)
	return cmplx.Abs(a-b) <= tol*scale
}
