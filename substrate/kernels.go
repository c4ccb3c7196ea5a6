package substrate

import (
	"math"
	"math/cmplx"
)

// Scalar kernels of the homogeneous-medium Green's function, with x = ikr:
//
//	Phi(r)   = e^{ikr} / (4 pi r)                  (scalar potential kernel)
//	Psi(r)   = (x - 1) e^x / (4 pi r^3)            (grad Phi = Psi * (x_src - x_obs))
//	Theta(r) = Psi'(r)/r = (x^2 - 3x + 3) e^x / (4 pi r^5)
//
// The *Rest variants subtract the leading small-r (frequency-independent
// moment) terms, leaving smooth remainders that are integrated by plain
// low-order cubature in the near-pair path. For small |kr| the tails are
// summed by series, since subtracting nearly equal terms directly would
// cancel catastrophically.

const fourPi = 4 * math.Pi

// seriesThreshold: below this |kr| the tail sums are evaluated by series.
const seriesThreshold = 20.0

func Phi(k complex128, r float64) complex128 {
	return cmplx.Exp(complex(0, r)*k) / complex(fourPi*r, 0)
}

func Psi(k complex128, r float64) complex128 {
	x := complex(0, r) * k
	return (x - 1) * cmplx.Exp(x) / complex(fourPi*r*r*r, 0)
}

func Theta(k complex128, r float64) complex128 {
	x := complex(0, r) * k
	return (x*x - 3*x + 3) * cmplx.Exp(x) / complex(fourPi*r*r*r*r*r, 0)
}

// expTail returns Sum_{n>=n0} x^n / n! with coefficient weight w(n)=1.
// The generalized form tailSum covers the Psi and Theta tails too.
func tailSum(x complex128, n0 int, coeff func(n int) float64) complex128 {
	var (
		term = complex(1, 0) // x^n / n!, built up incrementally
		sum  complex128
	)
	for n := 1; n <= n0; n++ {
		term *= x / complex(float64(n), 0)
	}
	// term now holds x^{n0}/n0!
	for n := n0; ; n++ {
		t := term * complex(coeff(n), 0)
		sum += t
		if cmplx.Abs(t) < 1.e-16*(cmplx.Abs(sum)+1.e-300) && n > n0+2 {
			return sum
		}
		if n > n0+200 {
			return sum
		}
		term *= x / complex(float64(n+1), 0)
	}
}

// PhiRest is Phi minus its r^{-1}..r^2 moment heads:
//
//	Phi - (1/4 pi) [ 1/r + ik + (ik)^2 r/2 + (ik)^3 r^2/6 ]
func PhiRest(k complex128, r float64) complex128 {
	x := complex(0, r) * k
	if cmplx.Abs(x) < seriesThreshold {
		return tailSum(x, 4, func(int) float64 { return 1 }) / complex(fourPi*r, 0)
	}
	heads := 1 + x + x*x/2 + x*x*x/6
	return (cmplx.Exp(x) - heads) / complex(fourPi*r, 0)
}

func psiCoeff(n int) float64 { return float64(n - 1) }

// PsiRest4 is Psi minus its r^{-3}, r^{-1}, r^0 and r^1 heads:
//
//	Psi - (1/4 pi) [ -1/r^3 + (ik)^2/(2r) + (ik)^3/3 + (ik)^4 r/8 ]
func PsiRest4(k complex128, r float64) complex128 {
	x := complex(0, r) * k
	r3 := complex(fourPi*r*r*r, 0)
	if cmplx.Abs(x) < seriesThreshold {
		return tailSum(x, 5, psiCoeff) / r3
	}
	heads := complex(-1, 0) + x*x/2 + x*x*x/3 + x*x*x*x/8
	return ((x-1)*cmplx.Exp(x) - heads) / r3
}

// PsiRest3 keeps the r^1 head in the remainder; it is the exact gradient
// remainder of PhiRest: d/dR PhiRest = PsiRest3 * (y - x).
func PsiRest3(k complex128, r float64) complex128 {
	x := complex(0, r) * k
	r3 := complex(fourPi*r*r*r, 0)
	if cmplx.Abs(x) < seriesThreshold {
		return tailSum(x, 4, psiCoeff) / r3
	}
	heads := complex(-1, 0) + x*x/2 + x*x*x/3
	return ((x-1)*cmplx.Exp(x) - heads) / r3
}

// ThetaRest is Theta minus its r^{-5}, r^{-3} and r^{-1} heads; it is the
// gradient remainder of PsiRest4: d/dR PsiRest4 = ThetaRest * (y - x).
func ThetaRest(k complex128, r float64) complex128 {
	x := complex(0, r) * k
	r5 := complex(fourPi*r*r*r*r*r, 0)
	if cmplx.Abs(x) < seriesThreshold {
		return tailSum(x, 5, func(n int) float64 { return float64((n - 1) * (n - 3)) }) / r5
	}
	heads := complex(3, 0) - x*x/2 + x*x*x*x/8
	return ((x*x-3*x+3)*cmplx.Exp(x) - heads) / r5
}
