// Package bem assembles the panel-pair and edge-pair interaction
// integrals of the surface-integral-equation operator into dense matrix
// blocks: the proximity-dispatched combination of cached geometric
// moments, singular Taylor integrals and direct numerical quadrature
// with the frequency- and medium-dependent kernel.
package bem

import (
	"runtime"

	"github.com/parroyoh/scuff-em/cubature"
	"github.com/parroyoh/scuff-em/fippi"
	"github.com/parroyoh/scuff-em/rwg"
	"github.com/parroyoh/scuff-em/singular"
	"github.com/parroyoh/scuff-em/substrate"

	"github.com/parroyoh/scuff-em/geom"
)

// Options is the explicit engine configuration; every field has a
// working default from DefaultOptions.
type Options struct {
	// RelThreshold is the centroid separation, in units of the larger
	// panel radius, beyond which a pair takes the direct far-field
	// quadrature path and bypasses the moment cache.
	RelThreshold float64
	// Quad bounds the adaptive far-field quadrature.
	Quad cubature.AdaptiveOptions
	// TaylorOrder is the Gauss node count per dimension in the singular
	// evaluator.
	TaylorOrder int
	// NumThreads is the worker count of the block assembler.
	NumThreads int
}

func DefaultOptions() Options {
	return Options{
		RelThreshold: 4.0,
		Quad:         cubature.DefaultAdaptiveOptions(),
		TaylorOrder:  singular.DefaultOrder,
		NumThreads:   runtime.NumCPU(),
	}
}

// Engine owns the FIPPI cache and the substrate kernel and evaluates
// interactions against them. One Engine serves all frequencies of a run;
// its cache is safe for concurrent use by the assembly workers.
type Engine struct {
	Opts   Options
	Table  *fippi.Table
	Kernel substrate.Kernel
}

// NewEngine builds an engine. A nil kernel means free space. The moment
// cache uses a tightened tolerance relative to the far-field quadrature,
// since each record is computed once and reused at every frequency.
func NewEngine(opts Options, kernel substrate.Kernel) *Engine {
	if kernel == nil {
		kernel = substrate.FreeSpace{}
	}
	momentOpts := opts.Quad
	momentOpts.RelTol *= 0.1
	momentOpts.MaxEvals *= 4
	return &Engine{
		Opts:   opts,
		Table:  fippi.NewTable(momentOpts),
		Kernel: kernel,
	}
}

// AssessSurfacePanelPair classifies panels npa of Sa and npb of Sb,
// returning the shared-vertex count, the relabeled panel vertices, and
// the relative separation rRel (centroid distance over the larger panel
// radius) used as the far-field cutoff measure.
func AssessSurfacePanelPair(Sa *rwg.Surface, npa int, Sb *rwg.Surface, npb int) (ncv int, rRel float64, VaOut, VbOut geom.Triangle) {
	var (
		pa = &Sa.Panels[npa]
		pb = &Sb.Panels[npb]
	)
	rMax := pa.Radius
	if pb.Radius > rMax {
		rMax = pb.Radius
	}
	rRel = pa.Centroid.Minus(pb.Centroid).Norm() / rMax
	ncv, VaOut, VbOut = geom.AssessPanelPair(pa.V, pb.V)
	return
}

// NumCommonVertices counts mesh vertices shared by two panels of two
// surfaces by index, with the coordinate-level classifier as fallback
// for panels of different surfaces.
func NumCommonVertices(Sa *rwg.Surface, npa int, Sb *rwg.Surface, npb int) (ncv int) {
	if Sa == Sb {
		for _, ia := range Sa.Panels[npa].VI {
			for _, ib := range Sb.Panels[npb].VI {
				if ia == ib {
					ncv++
					break
				}
			}
		}
		return
	}
	return geom.NumCommonVertices(Sa.Panels[npa].V, Sb.Panels[npb].V)
}
