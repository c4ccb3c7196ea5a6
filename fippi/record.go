// Package fippi computes and caches the frequency-independent panel-pair
// integrals: purely geometric moment integrals of the separation
// distance, reused across every excitation frequency that queries the
// same panel-pair geometry.
package fippi

import (
	"fmt"

	"github.com/parroyoh/scuff-em/cubature"
	"github.com/parroyoh/scuff-em/geom"
)

// PhiPowers are the separation powers appearing in the expansion of the
// scalar-potential kernel e^{ikr}/(4 pi r); PsiPowers those of its
// gradient factor.
var (
	PhiPowers = [4]float64{-1, 0, 1, 2}
	PsiPowers = [4]float64{-3, -1, 0, 1}
)

// DataRecord bundles the geometric moment integrals of one panel pair
// (source panel A with points x, observation panel B with points y).
// Indices [i] run over PhiPowers, [j] over PsiPowers. Records are
// immutable once published to the table; a derivative-augmented record
// replaces, never mutates, a plain one.
type DataRecord struct {
	HasDerivatives bool
	Converged      bool

	R     [4]float64   // Int r^p
	YA    [4]geom.Vec3 // Int x r^p
	YB    [4]geom.Vec3 // Int y r^p
	YAdYB [4]float64   // Int (x.y) r^p
	YAmYB [4]geom.Vec3 // Int (x-y) r^q
	YAxYB [4]geom.Vec3 // Int (x cross y) r^q

	// Derivative moments with respect to rigid displacement of panel B
	// along the coordinate axes, populated when HasDerivatives.
	QR  [4]float64      // Int r^q
	QYA [4]geom.Vec3    // Int x r^q
	QYB [4]geom.Vec3    // Int y r^q
	GV  [4]geom.Vec3    // [i][mu] = Int r^{p-2} (y-x)_mu
	GXY [4]geom.Vec3    // [i][mu] = Int (x.y) r^{p-2} (y-x)_mu
	GX  [4][3]geom.Vec3 // [i][nu][mu] = Int x_nu r^{p-2} (y-x)_mu
	GY  [4][3]geom.Vec3 // [i][nu][mu] = Int y_nu r^{p-2} (y-x)_mu
	TCR [4][3]geom.Vec3 // [j][nu][mu] = Int (x cross y)_nu r^{q-2} (y-x)_mu
	TMR [4][3]geom.Vec3 // [j][nu][mu] = Int (x-y)_nu r^{q-2} (y-x)_mu
}

// flat component layout of the cubature integrand vector
const (
	offR     = 0
	offYA    = 4
	offYB    = 16
	offYAdYB = 28
	offYAmYB = 32
	offYAxYB = 44
	baseLen  = 56
	offQR    = 56
	offQYA   = 60
	offQYB   = 72
	offGV    = 84
	offGXY   = 96
	offGX    = 108
	offGY    = 144
	offTCR   = 180
	offTMR   = 216
	fullLen  = 252
)

// ComputeDataRecord evaluates all moments for a non-touching panel pair
// by adaptive pair cubature. Touching pairs never take the moment path
// (they are routed through the singular evaluator), so a shared vertex
// here is a program-logic error.
func ComputeDataRecord(Va, Vb geom.Triangle, needDerivatives bool, opts cubature.AdaptiveOptions) *DataRecord {
	if ncv := geom.NumCommonVertices(Va, Vb); ncv != 0 {
		panic(fmt.Sprintf("ComputeDataRecord called for a touching panel pair (%d common vertices)", ncv))
	}
	nOut := baseLen
	if needDerivatives {
		nOut = fullLen
	}
	res := cubature.AdaptivePairCubature(momentIntegrand(needDerivatives), Va, Vb, nOut, opts)
	return unpackRecord(res.Values, needDerivatives, res.Converged)
}

func momentIntegrand(needDerivatives bool) cubature.PairIntegrand {
	return func(x, y geom.Vec3, out []complex128) {
		var (
			d   = x.Minus(y) // x - y
			r   = d.Norm()
			rm1 = 1 / r
			rp  = [4]float64{rm1, 1, r, r * r}
			rq  = [4]float64{rm1 * rm1 * rm1, rm1, 1, r}
			xy  = x.Dot(y)
			xxy = x.Cross(y)
		)
		set := func(off int, v float64) { out[off] = complex(v, 0) }
		for i := 0; i < 4; i++ {
			set(offR+i, rp[i])
			set(offYAdYB+i, xy*rp[i])
			for nu := 0; nu < 3; nu++ {
				set(offYA+3*i+nu, x[nu]*rp[i])
				set(offYB+3*i+nu, y[nu]*rp[i])
				set(offYAmYB+3*i+nu, d[nu]*rq[i])
				set(offYAxYB+3*i+nu, xxy[nu]*rq[i])
			}
		}
		if !needDerivatives {
			return
		}
		var (
			rm2 = rm1 * rm1
			rm3 = rm2 * rm1
			rm5 = rm3 * rm2
			rpd = [4]float64{rm3, rm2, rm1, 1}   // r^{p-2}
			rqd = [4]float64{rm5, rm3, rm2, rm1} // r^{q-2}
			yx  = geom.Vec3{-d[0], -d[1], -d[2]} // y - x
		)
		for j := 0; j < 4; j++ {
			set(offQR+j, rq[j])
			for nu := 0; nu < 3; nu++ {
				set(offQYA+3*j+nu, x[nu]*rq[j])
				set(offQYB+3*j+nu, y[nu]*rq[j])
			}
		}
		for i := 0; i < 4; i++ {
			for mu := 0; mu < 3; mu++ {
				set(offGV+3*i+mu, rpd[i]*yx[mu])
				set(offGXY+3*i+mu, xy*rpd[i]*yx[mu])
				for nu := 0; nu < 3; nu++ {
					set(offGX+9*i+3*nu+mu, x[nu]*rpd[i]*yx[mu])
					set(offGY+9*i+3*nu+mu, y[nu]*rpd[i]*yx[mu])
					set(offTCR+9*i+3*nu+mu, xxy[nu]*rqd[i]*yx[mu])
					set(offTMR+9*i+3*nu+mu, d[nu]*rqd[i]*yx[mu])
				}
			}
		}
	}
}

func unpackRecord(vals []complex128, hasDerivatives, converged bool) (rec *DataRecord) {
	rec = &DataRecord{HasDerivatives: hasDerivatives, Converged: converged}
	get := func(off int) float64 { return real(vals[off]) }
	for i := 0; i < 4; i++ {
		rec.R[i] = get(offR + i)
		rec.YAdYB[i] = get(offYAdYB + i)
		for nu := 0; nu < 3; nu++ {
			rec.YA[i][nu] = get(offYA + 3*i + nu)
			rec.YB[i][nu] = get(offYB + 3*i + nu)
			rec.YAmYB[i][nu] = get(offYAmYB + 3*i + nu)
			rec.YAxYB[i][nu] = get(offYAxYB + 3*i + nu)
		}
	}
	if !hasDerivatives {
		return
	}
	for i := 0; i < 4; i++ {
		rec.QR[i] = get(offQR + i)
		for nu := 0; nu < 3; nu++ {
			rec.QYA[i][nu] = get(offQYA + 3*i + nu)
			rec.QYB[i][nu] = get(offQYB + 3*i + nu)
		}
		for mu := 0; mu < 3; mu++ {
			rec.GV[i][mu] = get(offGV + 3*i + mu)
			rec.GXY[i][mu] = get(offGXY + 3*i + mu)
			for nu := 0; nu < 3; nu++ {
				rec.GX[i][nu][mu] = get(offGX + 9*i + 3*nu + mu)
				rec.GY[i][nu][mu] = get(offGY + 9*i + 3*nu + mu)
				rec.TCR[i][nu][mu] = get(offTCR + 9*i + 3*nu + mu)
				rec.TMR[i][nu][mu] = get(offTMR + 9*i + 3*nu + mu)
			}
		}
	}
	return
}
