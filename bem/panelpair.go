package bem

import (
	"fmt"

	"github.com/parroyoh/scuff-em/cubature"
	"github.com/parroyoh/scuff-em/fippi"
	"github.com/parroyoh/scuff-em/geom"
	"github.com/parroyoh/scuff-em/singular"
	"github.com/parroyoh/scuff-em/substrate"
)

// ForceMode overrides the proximity-based path dispatch, primarily for
// cross-validation of the evaluation paths against each other.
type ForceMode int

const (
	// NoForce dispatches on shared vertices and relative separation.
	NoForce ForceMode = iota
	// ForcePanelPair takes the cached-moment path for any non-touching
	// pair, ignoring the far-field cutoff.
	ForcePanelPair
	// ForceDirect takes the direct adaptive quadrature path for any
	// non-touching pair.
	ForceDirect
)

// PPRequest describes one panel-pair evaluation. Va/Vb carry the panel
// vertices and Qa/Qb the source/observation basis-function apexes. K is
// the wavenumber of the embedding medium.
type PPRequest struct {
	Va, Vb geom.Triangle
	Qa, Qb geom.Vec3
	K      complex128
	// NeedCross requests the cross-product integral HTimes; assemblies
	// of perfectly conducting pairs leave it off.
	NeedCross bool
	// NumGradientComponents requests d/dR_mu for displacement of the
	// second panel along the first 0..3 Cartesian axes.
	NumGradientComponents int
	// TorqueAxes lists rotation generator matrices for angular
	// derivatives of the second panel about the origin.
	TorqueAxes [][3][3]float64
	Force      ForceMode
}

// PPResult carries the pair integrals.
//
//	HPlus  = Int (ha.hb) Phi + (4/(ik)^2) Int Phi
//	HTimes = Int (ha x hb).(x-y) Psi
//
// with ha = x-Qa, hb = y-Qb, over both panel areas. Gradient and torque
// slots follow the request.
type PPResult struct {
	HPlus, HTimes complex128
	GradHPlus     [3]complex128
	GradHTimes    [3]complex128
	HPlusTorque   []complex128
	HTimesTorque  []complex128
	// Converged is false when the adaptive quadrature exhausted its
	// evaluation budget; the values are still the best estimate.
	Converged bool
}

// PanelPanelInteractions evaluates the H integrals of one panel pair,
// dispatching on proximity: touching pairs go to the singular Taylor
// evaluator, near pairs combine cached static moments with a smooth
// remainder, and well-separated pairs use direct adaptive quadrature.
func (e *Engine) PanelPanelInteractions(req PPRequest) (PPResult, error) {
	var res PPResult
	if req.K == 0 {
		return res, fmt.Errorf("panel pair: zero wavenumber")
	}
	if err := req.Va.CheckPanel(); err != nil {
		return res, fmt.Errorf("panel pair: first panel: %w", err)
	}
	if err := req.Vb.CheckPanel(); err != nil {
		return res, fmt.Errorf("panel pair: second panel: %w", err)
	}
	nGrad := req.NumGradientComponents
	if nGrad < 0 || nGrad > 3 {
		return res, fmt.Errorf("panel pair: gradient component count %d out of range", nGrad)
	}
	wantDeriv := nGrad > 0 || len(req.TorqueAxes) > 0
	if wantDeriv && !e.Kernel.Trivial() {
		return res, fmt.Errorf("panel pair: derivatives unsupported for kernel %q", e.Kernel.Name())
	}

	ncv, Va, Vb := geom.AssessPanelPair(req.Va, req.Vb)
	rMax := Va.Radius()
	if rb := Vb.Radius(); rb > rMax {
		rMax = rb
	}
	rRel := Va.Centroid().Minus(Vb.Centroid()).Norm() / rMax

	switch {
	case ncv > 0:
		if wantDeriv {
			return res, fmt.Errorf("panel pair: derivatives unsupported for touching pairs (%d common vertices)", ncv)
		}
		if req.Force == ForcePanelPair || req.Force == ForceDirect {
			return res, fmt.Errorf("panel pair: cannot force non-singular path for touching pair")
		}
		e.touchingPair(&req, &res, ncv, Va, Vb)
	case req.Force == ForcePanelPair || (req.Force == NoForce && rRel < e.Opts.RelThreshold):
		e.nearPair(&req, &res, Va, Vb)
	default:
		e.farPair(&req, &res)
	}

	if !e.Kernel.Trivial() {
		e.addKernelCorrection(&req, &res)
	}
	return res, nil
}

// touchingPair handles pairs with shared vertices through the singular
// evaluator, one Taylor integral per needed weight.
func (e *Engine) touchingPair(req *PPRequest, res *PPResult, ncv int, Va, Vb geom.Triangle) {
	var (
		whichCase = singular.Case(ncv)
		order     = e.Opts.TaylorOrder
		ik        = 1i * req.K
	)
	hDot := singular.TaylorMaster(whichCase, singular.GHelmholtz, singular.WDot,
		req.K, Va, Vb, req.Qa, req.Qb, order)
	hNabla := 4 * singular.TaylorMaster(whichCase, singular.GHelmholtz, singular.WOne,
		req.K, Va, Vb, req.Qa, req.Qb, order)
	res.HPlus = hDot + hNabla/(ik*ik)
	if req.NeedCross {
		// coincident panels are coplanar so the cross weight vanishes
		if ncv < 3 {
			res.HTimes = singular.TaylorMaster(whichCase, singular.GGradient, singular.WCross,
				req.K, Va, Vb, req.Qa, req.Qb, order)
		}
	}
	res.Converged = true
}

// Short-distance expansion heads of the kernels in powers of r. The
// Phi head collects r^{-1},r^0,r^1,r^2 and the Psi head collects
// r^{-3},r^{-1},r^0,r^1; the respective Rest kernels carry everything
// above.
func expansionCoefficients(k complex128) (c, d [4]complex128) {
	ik := 1i * k
	c = [4]complex128{1, ik, ik * ik / 2, ik * ik * ik / 6}
	d = [4]complex128{-1, ik * ik / 2, ik * ik * ik / 3, ik * ik * ik * ik / 8}
	return
}

const fourPi = 4 * 3.14159265358979323846

// nearPair combines the cached frequency-independent moments of the pair
// with the fixed-order quadrature of the smooth remainder kernels.
func (e *Engine) nearPair(req *PPRequest, res *PPResult, Va, Vb geom.Triangle) {
	var (
		needGrad = req.NumGradientComponents > 0
		rec      = e.Table.GetDataRecord(Va, Vb, needGrad)
		c, d     = expansionCoefficients(req.K)
		ik       = 1i * req.K
		Qa, Qb   = req.Qa, req.Qb
		QaQb     = Qa.Dot(Qb)
		QaxQb    = Qa.Cross(Qb)
		QamQb    = Qa.Minus(Qb)
	)

	// moment combination: ha.hb and (ha x hb).(x-y) expand into pure
	// position moments against each power of r
	var hDot, hTimes complex128
	for i := range fippi.PhiPowers {
		m := rec.YAdYB[i] - rec.YA[i].Dot(Qb) - Qa.Dot(rec.YB[i]) + QaQb*rec.R[i]
		hDot += c[i] * complex(m/fourPi, 0)
	}
	hNabla := 4 * (c[0]*complex(rec.R[0]/fourPi, 0) +
		c[1]*complex(rec.R[1]/fourPi, 0) +
		c[2]*complex(rec.R[2]/fourPi, 0) +
		c[3]*complex(rec.R[3]/fourPi, 0))
	if req.NeedCross {
		for j := range fippi.PsiPowers {
			m := rec.YAxYB[j].Dot(QamQb) + QaxQb.Dot(rec.YAmYB[j])
			hTimes += d[j] * complex(m/fourPi, 0)
		}
	}

	// remainder pass: all smooth integrands in one fixed cubature
	var (
		nGrad = req.NumGradientComponents
		nOut  = 2
	)
	if req.NeedCross {
		nOut++
	}
	if nGrad > 0 {
		nOut += 3 * nGrad
	}
	rest := cubature.FixedPairCubature(func(x, y geom.Vec3, out []complex128) {
		var (
			r    = x.Minus(y).Norm()
			ha   = x.Minus(Qa)
			hb   = y.Minus(Qb)
			ymx  = y.Minus(x)
			phiR = substrate.PhiRest(req.K, r)
		)
		out[0] = complex(ha.Dot(hb), 0) * phiR
		out[1] = phiR
		slot := 2
		var haxhb geom.Vec3
		if req.NeedCross {
			haxhb = ha.Cross(hb)
			out[slot] = complex(-haxhb.Dot(ymx), 0) * substrate.PsiRest4(req.K, r)
			slot++
		}
		if nGrad > 0 {
			var (
				psi3 = substrate.PsiRest3(req.K, r)
				psi4 complex128
				th   complex128
			)
			if req.NeedCross {
				psi4 = substrate.PsiRest4(req.K, r)
				th = substrate.ThetaRest(req.K, r)
			}
			for mu := 0; mu < nGrad; mu++ {
				out[slot] = complex(ha.Dot(hb)*ymx[mu], 0) * psi3
				out[slot+1] = complex(ymx[mu], 0) * psi3
				if req.NeedCross {
					wt := -haxhb.Dot(ymx)
					out[slot+2] = complex(-haxhb[mu], 0)*psi4 + complex(wt*ymx[mu], 0)*th
				}
				slot += 3
			}
		}
	}, Va, Vb, cubature.Order7, nOut)

	hDot += rest[0]
	hNabla += 4 * rest[1]
	res.HPlus = hDot + hNabla/(ik*ik)
	if req.NeedCross {
		res.HTimes = hTimes + rest[2]
	}

	if nGrad > 0 {
		e.nearPairGradients(req, res, rec, rest, c, d)
	}
	res.Converged = rec.Converged

	if len(req.TorqueAxes) > 0 {
		e.numericalTorque(req, res)
	}
}

// nearPairGradients combines the derivative moments of the record with
// the remainder integrals already evaluated in rest.
func (e *Engine) nearPairGradients(req *PPRequest, res *PPResult, rec *fippi.DataRecord,
	rest []complex128, c, d [4]complex128) {
	var (
		ik     = 1i * req.K
		Qa, Qb = req.Qa, req.Qb
		QaQb   = Qa.Dot(Qb)
		QaxQb  = Qa.Cross(Qb)
		QamQb  = Qa.Minus(Qb)
		slot0  = 2
	)
	if req.NeedCross {
		slot0 = 3
	}
	for mu := 0; mu < req.NumGradientComponents; mu++ {
		var gDot, gNabla, gTimes complex128
		for i, p := range fippi.PhiPowers {
			pc := c[i] * complex(p, 0)
			m := rec.GXY[i][mu]
			for nu := 0; nu < 3; nu++ {
				m -= Qb[nu]*rec.GX[i][nu][mu] + Qa[nu]*rec.GY[i][nu][mu]
			}
			m += QaQb * rec.GV[i][mu]
			gDot += pc * complex(m/fourPi, 0)
			gNabla += 4 * pc * complex(rec.GV[i][mu]/fourPi, 0)
		}
		if req.NeedCross {
			for j, q := range fippi.PsiPowers {
				cross := rec.YAxYB[j][mu] - rec.QYA[j].Cross(Qb)[mu] -
					Qa.Cross(rec.QYB[j])[mu] + QaxQb[mu]*rec.QR[j]
				var tq float64
				for nu := 0; nu < 3; nu++ {
					tq += QamQb[nu]*rec.TCR[j][nu][mu] + QaxQb[nu]*rec.TMR[j][nu][mu]
				}
				gTimes += d[j] * complex((-cross+q*tq)/fourPi, 0)
			}
		}
		gDot += rest[slot0+3*mu]
		gNabla += 4 * rest[slot0+3*mu+1]
		res.GradHPlus[mu] = gDot + gNabla/(ik*ik)
		if req.NeedCross {
			res.GradHTimes[mu] = gTimes + rest[slot0+3*mu+2]
		}
	}
}

// farPair evaluates the full kernels by adaptive quadrature; the pair
// is well separated so the integrands are smooth.
func (e *Engine) farPair(req *PPRequest, res *PPResult) {
	var (
		nGrad = req.NumGradientComponents
		nTorq = len(req.TorqueAxes)
		nOut  = 2 + 3*nGrad + 3*nTorq
	)
	if req.NeedCross {
		nOut++
	}
	pr := cubature.AdaptivePairCubature(e.fullKernelIntegrand(req, nOut),
		req.Va, req.Vb, nOut, e.Opts.Quad)
	e.unpackDirect(req, res, pr.Values)
	res.Converged = pr.Converged
}

// fullKernelIntegrand builds the direct integrand vector shared by the
// far-field path and the torque evaluation: values, then gradient
// triples, then torque triples.
func (e *Engine) fullKernelIntegrand(req *PPRequest, nOut int) cubature.PairIntegrand {
	var (
		nGrad  = req.NumGradientComponents
		Qa, Qb = req.Qa, req.Qb
	)
	return func(x, y geom.Vec3, out []complex128) {
		var (
			r   = x.Minus(y).Norm()
			ha  = x.Minus(Qa)
			hb  = y.Minus(Qb)
			ymx = y.Minus(x)
			phi = substrate.Phi(req.K, r)
		)
		out[0] = complex(ha.Dot(hb), 0) * phi
		out[1] = phi
		slot := 2
		var (
			haxhb geom.Vec3
			wt    float64
			psi   complex128
			theta complex128
		)
		needPsi := nGrad > 0 || len(req.TorqueAxes) > 0
		if req.NeedCross || needPsi {
			psi = substrate.Psi(req.K, r)
		}
		if req.NeedCross {
			haxhb = ha.Cross(hb)
			wt = -haxhb.Dot(ymx)
			out[slot] = complex(wt, 0) * psi
			slot++
			if needPsi {
				theta = substrate.Theta(req.K, r)
			}
		}
		for mu := 0; mu < nGrad; mu++ {
			out[slot] = complex(ha.Dot(hb)*ymx[mu], 0) * psi
			out[slot+1] = complex(ymx[mu], 0) * psi
			if req.NeedCross {
				out[slot+2] = complex(-haxhb[mu], 0)*psi + complex(wt*ymx[mu], 0)*theta
			} else {
				out[slot+2] = 0
			}
			slot += 3
		}
		for _, gam := range req.TorqueAxes {
			var (
				gy   = geom.MatVec(gam, y)
				ghb  = geom.MatVec(gam, hb)
				rdot = ymx.Dot(gy)
			)
			out[slot] = complex(ha.Dot(ghb), 0)*phi + complex(ha.Dot(hb)*rdot, 0)*psi
			out[slot+1] = complex(rdot, 0) * psi
			if req.NeedCross {
				out[slot+2] = complex(-ha.Cross(ghb).Dot(ymx)-haxhb.Dot(gy), 0)*psi +
					complex(wt*rdot, 0)*theta
			} else {
				out[slot+2] = 0
			}
			slot += 3
		}
	}
}

// unpackDirect assembles HPlus/HTimes and their derivatives from a
// direct integrand vector.
func (e *Engine) unpackDirect(req *PPRequest, res *PPResult, vals []complex128) {
	var (
		ik    = 1i * req.K
		ik2   = ik * ik
		nGrad = req.NumGradientComponents
		slot  = 2
	)
	res.HPlus = vals[0] + 4*vals[1]/ik2
	if req.NeedCross {
		res.HTimes = vals[2]
		slot = 3
	}
	for mu := 0; mu < nGrad; mu++ {
		res.GradHPlus[mu] = vals[slot] + 4*vals[slot+1]/ik2
		if req.NeedCross {
			res.GradHTimes[mu] = vals[slot+2]
		}
		slot += 3
	}
	if n := len(req.TorqueAxes); n > 0 {
		res.HPlusTorque = make([]complex128, n)
		res.HTimesTorque = make([]complex128, n)
		for t := 0; t < n; t++ {
			res.HPlusTorque[t] = vals[slot] + 4*vals[slot+1]/ik2
			if req.NeedCross {
				res.HTimesTorque[t] = vals[slot+2]
			}
			slot += 3
		}
	}
}

// numericalTorque evaluates the angular derivatives by adaptive
// quadrature of the rotated-kernel integrands; the pair is non-touching
// here so the integrands are regular.
func (e *Engine) numericalTorque(req *PPRequest, res *PPResult) {
	tq := *req
	tq.NumGradientComponents = 0
	nOut := 2 + 3*len(tq.TorqueAxes)
	if tq.NeedCross {
		nOut++
	}
	pr := cubature.AdaptivePairCubature(e.fullKernelIntegrand(&tq, nOut),
		tq.Va, tq.Vb, nOut, e.Opts.Quad)
	var tmp PPResult
	e.unpackDirect(&tq, &tmp, pr.Values)
	res.HPlusTorque = tmp.HPlusTorque
	res.HTimesTorque = tmp.HTimesTorque
	res.Converged = res.Converged && pr.Converged
}

// addKernelCorrection folds the substrate correction of the kernel into
// the pair integrals. Corrections are smooth for all pair separations,
// so a fixed-order rule suffices.
func (e *Engine) addKernelCorrection(req *PPRequest, res *PPResult) {
	var (
		ik     = 1i * req.K
		Qa, Qb = req.Qa, req.Qb
		nOut   = 2
	)
	if req.NeedCross {
		nOut = 3
	}
	corr := cubature.FixedPairCubature(func(x, y geom.Vec3, out []complex128) {
		var (
			ha = x.Minus(Qa)
			hb = y.Minus(Qb)
		)
		dPhi, dGrad := e.Kernel.Correction(req.K, x, y)
		out[0] = complex(ha.Dot(hb), 0) * dPhi
		out[1] = dPhi
		if req.NeedCross {
			// (ha x hb).gradX dPhi replaces (ha x hb).(x-y) Psi
			haxhb := ha.Cross(hb)
			out[2] = complex(haxhb[0], 0)*dGrad[0] +
				complex(haxhb[1], 0)*dGrad[1] +
				complex(haxhb[2], 0)*dGrad[2]
		}
	}, req.Va, req.Vb, cubature.Order7, nOut)
	res.HPlus += corr[0] + 4*corr[1]/(ik*ik)
	if req.NeedCross {
		res.HTimes += corr[2]
	}
}
