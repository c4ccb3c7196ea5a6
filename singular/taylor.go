// Package singular evaluates the singular and near-singular panel-pair
// kernel integrals that arise when two panels touch. Each topological
// case (coincident panels, shared edge, shared vertex) gets its own
// desingularizing change of variables that removes the kernel
// singularity exactly, after which tensor Gauss-Legendre quadrature on
// the transformed smooth integrand converges spectrally, with accuracy
// independent of how strong the singularity is.
package singular

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/parroyoh/scuff-em/cubature"
	"github.com/parroyoh/scuff-em/geom"
)

// Case selects the topological relationship of the two panels. The
// caller relabels vertices first (AssessPanelPair) so that shared
// vertices occupy the leading slots of both panels.
type Case int

const (
	TMCommonVertex   Case = 1 // Va[0] == Vb[0]
	TMCommonEdge     Case = 2 // Va[0..1] == Vb[0..1]
	TMCommonTriangle Case = 3 // Va == Vb
)

// Kernel selects the Green's-function factor.
type Kernel int

const (
	// GHelmholtz is Phi(r) = e^{ikr} / (4 pi r).
	GHelmholtz Kernel = iota
	// GGradient is Psi(r) = (ikr - 1) e^{ikr} / (4 pi r^3), the scalar
	// factor of grad Phi = Psi * (x - y).
	GGradient
)

// Weight selects the polynomial weight multiplying the kernel.
type Weight int

const (
	// WOne integrates the bare kernel (the div-div / scalar-potential
	// term; both RWG half-bases have constant surface divergence 2).
	WOne Weight = iota
	// WDot integrates (x - Qa) . (y - Qb) * kernel.
	WDot
	// WCross integrates [(x - Qa) x (y - Qb)] . (x - y) * kernel.
	WCross
)

// DefaultOrder is the Gauss-Legendre node count per tensor dimension.
const DefaultOrder = 12

// TaylorMaster returns the double surface integral over panels Va, Vb of
// weight(x,y) * kernel(|x-y|) for a touching panel pair. KParam is the
// complex wavenumber; KParam == 0 yields the static limit exactly, since
// the kernel is evaluated rather than series expanded. An unsupported
// case selector is a program-logic error and panics.
func TaylorMaster(whichCase Case, whichG Kernel, whichH Weight, kParam complex128,
	Va, Vb geom.Triangle, Qa, Qb geom.Vec3, order int) complex128 {
	if order <= 0 {
		order = DefaultOrder
	}
	tm := &tmWorkspace{
		g: whichG, h: whichH, k: kParam,
		Va: Va, Vb: Vb, Qa: Qa, Qb: Qb,
	}
	tm.x01, tm.w01 = cubature.GaussLegendre(order)
	switch whichCase {
	case TMCommonTriangle:
		return tm.commonTriangle()
	case TMCommonEdge:
		return tm.commonEdge()
	case TMCommonVertex:
		return tm.commonVertex()
	default:
		panic(fmt.Sprintf("TaylorMaster: unsupported case selector %d", int(whichCase)))
	}
}

type tmWorkspace struct {
	g        Kernel
	h        Weight
	k        complex128
	Va, Vb   geom.Triangle
	Qa, Qb   geom.Vec3
	x01, w01 []float64
}

// integrand is weight(x,y) * kernel(r) with r supplied by the caller
// (the transforms know r exactly and avoid recomputing it from x-y).
func (tm *tmWorkspace) integrand(x, y geom.Vec3, r float64) complex128 {
	var kv complex128
	ikr := complex(0, r) * tm.k
	switch tm.g {
	case GHelmholtz:
		kv = cmplx.Exp(ikr) / complex(4*math.Pi*r, 0)
	case GGradient:
		kv = (ikr - 1) * cmplx.Exp(ikr) / complex(4*math.Pi*r*r*r, 0)
	default:
		panic(fmt.Sprintf("TaylorMaster: unsupported kernel selector %d", int(tm.g)))
	}
	switch tm.h {
	case WOne:
		return kv
	case WDot:
		return complex(x.Minus(tm.Qa).Dot(y.Minus(tm.Qb)), 0) * kv
	case WCross:
		return complex(x.Minus(tm.Qa).Cross(y.Minus(tm.Qb)).Dot(x.Minus(y)), 0) * kv
	default:
		panic(fmt.Sprintf("TaylorMaster: unsupported weight selector %d", int(tm.h)))
	}
}

// commonTriangle handles coincident panels. With both panels
// parameterized over the unit simplex, x - y depends only on the
// coordinate difference z; splitting by the dominant component of z and
// scaling the rest by it removes the 1/r singularity.
func (tm *tmWorkspace) commonTriangle() (sum complex128) {
	var (
		V1 = tm.Va[0]
		E1 = tm.Va[1].Minus(V1)
		E2 = tm.Va[2].Minus(V1)
	)
	if tm.h == WCross {
		// (x-Qa) x (y-Qb) is normal to the shared plane while x - y is
		// in-plane: the cross-weighted self term vanishes identically.
		return 0
	}
	jac4A := 4 * tm.Va.Area() * tm.Vb.Area() // (2A)^2 for the two simplex params
	// four dominant-component regions: z = rho*(s1, gamma) or rho*(gamma, s2)
	for _, reg := range [4][2]int{{+1, 0}, {-1, 0}, {0, +1}, {0, -1}} {
		for i, rho := range tm.x01 {
			wi := tm.w01[i]
			for j := range tm.x01 {
				// gamma in [-1,1]
				gamma := 2*tm.x01[j] - 1
				wj := 2 * tm.w01[j]
				var z1, z2 float64
				if reg[0] != 0 {
					z1, z2 = float64(reg[0])*rho, gamma*rho
				} else {
					z1, z2 = gamma*rho, float64(reg[1])*rho
				}
				// inner domain: v in simplex, v + z in simplex
				lo1 := math.Max(0, -z1)
				lo2 := math.Max(0, -z2)
				hi := 1 - math.Max(0, z1+z2)
				L := hi - lo1 - lo2
				if L <= 0 {
					continue
				}
				d := E1.Scale(z1).Plus(E2.Scale(z2))
				r := d.Norm()
				for m, xi := range tm.x01 {
					wm := tm.w01[m]
					for n, eta := range tm.x01 {
						wn := tm.w01[n]
						v1 := lo1 + L*xi*(1-eta)
						v2 := lo2 + L*xi*eta
						y := V1.Plus(E1.Scale(v1)).Plus(E2.Scale(v2))
						x := y.Plus(d)
						w := wi * wj * wm * wn * rho * L * L * xi * jac4A
						sum += complex(w, 0) * tm.integrand(x, y, r)
					}
				}
			}
		}
	}
	return
}

// commonEdge handles panels sharing the edge Va[0]Va[1] == Vb[0]Vb[1].
// Coordinates: x = V1 + u1 E + u2 Fa, y = V1 + v1 E + v2 Fb over unit
// simplices; the singularity sits at u2 = v2 = 0, u1 = v1 and is removed
// by scaling (u2, v2, u1-v1) by their dominant member.
func (tm *tmWorkspace) commonEdge() (sum complex128) {
	var (
		V1 = tm.Va[0]
		E  = tm.Va[1].Minus(V1)
		Fa = tm.Va[2].Minus(V1)
		Fb = tm.Vb[2].Minus(V1)
	)
	jac4A := 4 * tm.Va.Area() * tm.Vb.Area()
	// region selectors: which of u2, v2, +w, -w dominates (w = u1 - v1)
	for reg := 0; reg < 4; reg++ {
		for i, rho := range tm.x01 {
			wi := tm.w01[i]
			for j, a := range tm.x01 {
				wj := tm.w01[j]
				for l := range tm.x01 {
					var (
						wl        float64
						u2, v2, w float64
					)
					switch reg {
					case 0: // u2 dominant: v2 = rho*a, w = rho*gamma
						gamma := 2*tm.x01[l] - 1
						wl = 2 * tm.w01[l]
						u2, v2, w = rho, rho*a, rho*gamma
					case 1: // v2 dominant
						gamma := 2*tm.x01[l] - 1
						wl = 2 * tm.w01[l]
						u2, v2, w = rho*a, rho, rho*gamma
					case 2: // w = +rho dominant: u2 = rho*a, v2 = rho*b
						wl = tm.w01[l]
						u2, v2, w = rho*a, rho*tm.x01[l], rho
					default: // w = -rho dominant
						wl = tm.w01[l]
						u2, v2, w = rho*a, rho*tm.x01[l], -rho
					}
					// admissible v1 interval from both simplex constraints
					lo := math.Max(0, -w)
					hi := math.Min(1-v2, 1-u2-w)
					if hi <= lo {
						continue
					}
					d := E.Scale(w).Plus(Fa.Scale(u2)).Minus(Fb.Scale(v2))
					r := d.Norm()
					for n, tau := range tm.x01 {
						wn := tm.w01[n]
						v1 := lo + tau*(hi-lo)
						u1 := v1 + w
						y := V1.Plus(E.Scale(v1)).Plus(Fb.Scale(v2))
						x := V1.Plus(E.Scale(u1)).Plus(Fa.Scale(u2))
						wTot := wi * wj * wl * wn * rho * rho * (hi - lo) * jac4A
						sum += complex(wTot, 0) * tm.integrand(x, y, r)
					}
				}
			}
		}
	}
	return
}

// commonVertex handles panels sharing the single vertex Va[0] == Vb[0].
// Apex parameterization x = V + s c(t), y = V + sigma b(tau); the two
// radial coordinates are scaled by their maximum.
func (tm *tmWorkspace) commonVertex() (sum complex128) {
	var (
		V  = tm.Va[0]
		a1 = tm.Va[1].Minus(V)
		a2 = tm.Va[2].Minus(V)
		b1 = tm.Vb[1].Minus(V)
		b2 = tm.Vb[2].Minus(V)
	)
	jac4A := 4 * tm.Va.Area() * tm.Vb.Area()
	for reg := 0; reg < 2; reg++ {
		for i, s := range tm.x01 {
			wi := tm.w01[i]
			for j, t := range tm.x01 {
				wj := tm.w01[j]
				ca := a1.Scale(1 - t).Plus(a2.Scale(t))
				for l, lam := range tm.x01 {
					wl := tm.w01[l]
					for n, tau := range tm.x01 {
						wn := tm.w01[n]
						cb := b1.Scale(1 - tau).Plus(b2.Scale(tau))
						var x, y geom.Vec3
						var d geom.Vec3
						if reg == 0 { // sigma = s*lam <= s
							x = V.Plus(ca.Scale(s))
							y = V.Plus(cb.Scale(s * lam))
							d = ca.Minus(cb.Scale(lam)).Scale(s)
						} else { // s = sigma*lam <= sigma
							x = V.Plus(ca.Scale(s * lam))
							y = V.Plus(cb.Scale(s))
							d = ca.Scale(lam).Minus(cb).Scale(s)
						}
						r := d.Norm()
						w := wi * wj * wl * wn * s * s * s * lam * jac4A
						sum += complex(w, 0) * tm.integrand(x, y, r)
					}
				}
			}
		}
	}
	return
}
