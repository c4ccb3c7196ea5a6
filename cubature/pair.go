package cubature

import (
	"container/heap"

	"github.com/parroyoh/scuff-em/geom"
)

// PairIntegrand evaluates the integrand components at one source point x
// on panel A and one observation point y on panel B, adding nothing: it
// overwrites out.
type PairIntegrand func(x, y geom.Vec3, out []complex128)

// FixedPairCubature integrates f over Ta x Tb with the given rule on
// both panels.
func FixedPairCubature(f PairIntegrand, Ta, Tb geom.Triangle, rule Rule, nOut int) (vals []complex128) {
	var (
		areaFac = Ta.Area() * Tb.Area()
		tmp     = make([]complex128, nOut)
	)
	vals = make([]complex128, nOut)
	for i := 0; i < rule.Len(); i++ {
		x := rule.Point(Ta, i)
		for j := 0; j < rule.Len(); j++ {
			y := rule.Point(Tb, j)
			f(x, y, tmp)
			w := complex(areaFac*rule.W[i]*rule.W[j], 0)
			for n := range vals {
				vals[n] += w * tmp[n]
			}
		}
	}
	return
}

// AdaptiveOptions bound the far-field numerical quadrature: absolute and
// relative tolerance plus a hard evaluation budget.
type AdaptiveOptions struct {
	AbsTol   float64
	RelTol   float64
	MaxEvals int
}

// DefaultAdaptiveOptions match the historical quadrature defaults that
// were previously environment overridable.
func DefaultAdaptiveOptions() AdaptiveOptions {
	return AdaptiveOptions{AbsTol: 0, RelTol: 1.e-8, MaxEvals: 100000}
}

// PairResult carries the integral estimate together with the achieved
// error estimate. Converged is false when the evaluation budget ran out
// first; the values are then the best available estimate, never silently
// wrong without the flag.
type PairResult struct {
	Values    []complex128
	EstError  float64
	Evals     int
	Converged bool
}

type pairCell struct {
	Ta, Tb geom.Triangle
	vals   []complex128
	err    float64
}

type cellHeap []*pairCell

func (h cellHeap) Len() int            { return len(h) }
func (h cellHeap) Less(i, j int) bool  { return h[i].err > h[j].err }
func (h cellHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cellHeap) Push(x interface{}) { *h = append(*h, x.(*pairCell)) }
func (h *cellHeap) Pop() (v interface{}) {
	old := *h
	n := len(old)
	v = old[n-1]
	*h = old[:n-1]
	return
}

// AdaptivePairCubature integrates f over Ta x Tb by recursive panel-pair
// subdivision with an embedded low/high order error estimate. On each
// refinement step the cell with the largest error estimate has its
// larger panel split into four congruent children.
func AdaptivePairCubature(f PairIntegrand, Ta, Tb geom.Triangle, nOut int, opt AdaptiveOptions) (res PairResult) {
	var (
		h     cellHeap
		evals int
	)
	evalCell := func(ta, tb geom.Triangle) *pairCell {
		lo := FixedPairCubature(f, ta, tb, Order5, nOut)
		hi := FixedPairCubature(f, ta, tb, Order7, nOut)
		evals += (Order5.Len() + Order7.Len()) * (Order5.Len() + Order7.Len()) / 2
		c := &pairCell{Ta: ta, Tb: tb, vals: hi}
		for n := 0; n < nOut; n++ {
			d := hi[n] - lo[n]
			c.err += cAbs(d)
		}
		return c
	}
	heap.Init(&h)
	heap.Push(&h, evalCell(Ta, Tb))

	total := func() (vals []complex128, errSum, valNorm float64) {
		vals = make([]complex128, nOut)
		for _, c := range h {
			errSum += c.err
			for n := range vals {
				vals[n] += c.vals[n]
			}
		}
		for n := range vals {
			valNorm += cAbs(vals[n])
		}
		return
	}

	for {
		vals, errSum, valNorm := total()
		if errSum <= opt.AbsTol || errSum <= opt.RelTol*valNorm {
			res = PairResult{Values: vals, EstError: errSum, Evals: evals, Converged: true}
			return
		}
		if evals >= opt.MaxEvals {
			// budget exhausted: best available estimate, flagged
			res = PairResult{Values: vals, EstError: errSum, Evals: evals, Converged: false}
			return
		}
		worst := heap.Pop(&h).(*pairCell)
		var (
			as = subdivide(worst.Ta)
			bs = subdivide(worst.Tb)
		)
		if worst.Ta.Area() >= worst.Tb.Area() {
			for _, ta := range as {
				heap.Push(&h, evalCell(ta, worst.Tb))
			}
		} else {
			for _, tb := range bs {
				heap.Push(&h, evalCell(worst.Ta, tb))
			}
		}
	}
}

// subdivide splits a triangle into four congruent children at the edge
// midpoints.
func subdivide(T geom.Triangle) [4]geom.Triangle {
	m01 := T[0].Plus(T[1]).Scale(0.5)
	m12 := T[1].Plus(T[2]).Scale(0.5)
	m20 := T[2].Plus(T[0]).Scale(0.5)
	return [4]geom.Triangle{
		{T[0], m01, m20},
		{m01, T[1], m12},
		{m20, m12, T[2]},
		{m01, m12, m20},
	}
}

func cAbs(z complex128) float64 {
	re, im := real(z), imag(z)
	if re < 0 {
		re = -re
	}
	if im < 0 {
		im = -im
	}
	return re + im // L1 magnitude is enough for an error metric
}
