package bem

import (
	"fmt"

	"github.com/parroyoh/scuff-em/geom"
	"github.com/parroyoh/scuff-em/rwg"
)

// EERequest describes one edge-pair evaluation: basis function Nea on
// surface Sa against basis function Neb on surface Sb at wavenumber K.
type EERequest struct {
	Sa  *rwg.Surface
	Nea int
	Sb  *rwg.Surface
	Neb int
	K   complex128

	NeedCross             bool
	NumGradientComponents int
	TorqueAxes            [][3][3]float64
	Force                 ForceMode
}

// EEResult carries the pair of edge-edge kernels: GC[0] is the
// G-type (HPlus) combination entering the electric-field operator and
// GC[1] the C-type (HTimes) combination entering the magnetic
// cross coupling. Derivative slots mirror PPResult.
type EEResult struct {
	GC        [2]complex128
	GradGC    [3][2]complex128
	TorqueGC  [][2]complex128
	Converged bool
}

// half identifies one of the two panels supporting a basis function
// together with its apex vertex and orientation sign.
type half struct {
	panel int
	q     geom.Vec3
	sign  float64
}

func edgeHalves(S *rwg.Surface, ne int) [2]half {
	E := &S.Edges[ne]
	return [2]half{
		{E.PanelPlus, E.QPlus, 1},
		{E.PanelMinus, E.QMinus, -1},
	}
}

// EdgeEdgeInteractions sums the four panel-pair interactions of two
// basis functions with the standard (l_a l_b)/(4 A_a A_b) strength.
func (e *Engine) EdgeEdgeInteractions(req EERequest) (EEResult, error) {
	var res EEResult
	if req.Nea < 0 || req.Nea >= len(req.Sa.Edges) {
		return res, fmt.Errorf("edge pair: edge %d out of range on surface %q", req.Nea, req.Sa.Name)
	}
	if req.Neb < 0 || req.Neb >= len(req.Sb.Edges) {
		return res, fmt.Errorf("edge pair: edge %d out of range on surface %q", req.Neb, req.Sb.Name)
	}
	var (
		Ea = &req.Sa.Edges[req.Nea]
		Eb = &req.Sb.Edges[req.Neb]
		ll = Ea.Length * Eb.Length
	)
	if nt := len(req.TorqueAxes); nt > 0 {
		res.TorqueGC = make([][2]complex128, nt)
	}
	res.Converged = true

	for _, ha := range edgeHalves(req.Sa, req.Nea) {
		for _, hb := range edgeHalves(req.Sb, req.Neb) {
			var (
				pa = &req.Sa.Panels[ha.panel]
				pb = &req.Sb.Panels[hb.panel]
				w  = complex(ha.sign*hb.sign*ll/(4*pa.Area*pb.Area), 0)
			)
			pp, err := e.PanelPanelInteractions(PPRequest{
				Va:                    pa.V,
				Vb:                    pb.V,
				Qa:                    ha.q,
				Qb:                    hb.q,
				K:                     req.K,
				NeedCross:             req.NeedCross,
				NumGradientComponents: req.NumGradientComponents,
				TorqueAxes:            req.TorqueAxes,
				Force:                 req.Force,
			})
			if err != nil {
				return res, fmt.Errorf("edge pair (%d,%d): %w", req.Nea, req.Neb, err)
			}
			res.GC[0] += w * pp.HPlus
			res.GC[1] += w * pp.HTimes
			for mu := 0; mu < req.NumGradientComponents; mu++ {
				res.GradGC[mu][0] += w * pp.GradHPlus[mu]
				res.GradGC[mu][1] += w * pp.GradHTimes[mu]
			}
			for t := range req.TorqueAxes {
				res.TorqueGC[t][0] += w * pp.HPlusTorque[t]
				res.TorqueGC[t][1] += w * pp.HTimesTorque[t]
			}
			res.Converged = res.Converged && pp.Converged
		}
	}
	return res, nil
}
