package bem

import (
	"fmt"
	"sync"

	"github.com/parroyoh/scuff-em/rwg"
	"github.com/parroyoh/scuff-em/substrate"
	"github.com/parroyoh/scuff-em/utils"
)

// BlockRequest describes the assembly of the interaction block between
// the basis functions of Sa (rows) and Sb (columns) into B at the given
// offsets. Exterior is the medium embedding both surfaces; Interior is
// the medium inside Sa and contributes only to the diagonal block of a
// non-PEC surface (Sa == Sb).
type BlockRequest struct {
	Sa, Sb   *rwg.Surface
	Omega    complex128
	Exterior substrate.Medium
	Interior substrate.Medium

	// Symmetric computes only the upper triangle of a diagonal block
	// and mirrors it.
	Symmetric bool
	// Sign flips the overall block sign (scattered-field convention for
	// blocks coupling across a surface). Zero means +1.
	Sign float64

	RowOffset, ColOffset int

	NumGradientComponents int
	TorqueAxes            [][3][3]float64

	B        *utils.CMatrix
	GradB    []*utils.CMatrix
	DBDTheta []*utils.CMatrix
}

// BlockStats reports assembly diagnostics.
type BlockStats struct {
	// Converged is false when any pair quadrature exhausted its budget.
	Converged bool
	// NumEdgePairs is the count of evaluated edge pairs.
	NumEdgePairs int
}

// slotCount is the number of matrix slots per basis function: a PEC
// surface carries only the electric-current expansion, a general
// surface carries electric and magnetic currents.
func slotCount(S *rwg.Surface) int {
	if S.IsPEC {
		return 1
	}
	return 2
}

func (req *BlockRequest) validate() error {
	if req.Sa == nil || req.Sb == nil {
		return fmt.Errorf("assemble block: nil surface")
	}
	if req.B == nil {
		return fmt.Errorf("assemble block: nil target matrix")
	}
	if req.Omega == 0 {
		return fmt.Errorf("assemble block: zero frequency")
	}
	if req.Symmetric && req.Sa != req.Sb {
		return fmt.Errorf("assemble block: symmetric assembly requires a diagonal block")
	}
	wantDeriv := req.NumGradientComponents > 0 || len(req.TorqueAxes) > 0
	if wantDeriv && req.Sa == req.Sb {
		return fmt.Errorf("assemble block: derivatives defined only for blocks coupling distinct surfaces")
	}
	if wantDeriv && req.Symmetric {
		return fmt.Errorf("assemble block: derivatives incompatible with symmetric assembly")
	}
	if req.NumGradientComponents > 0 && len(req.GradB) < req.NumGradientComponents {
		return fmt.Errorf("assemble block: %d gradient matrices for %d components",
			len(req.GradB), req.NumGradientComponents)
	}
	if len(req.TorqueAxes) > 0 && len(req.DBDTheta) < len(req.TorqueAxes) {
		return fmt.Errorf("assemble block: %d torque matrices for %d axes",
			len(req.DBDTheta), len(req.TorqueAxes))
	}
	var (
		rows, cols         = req.B.Dims()
		needRows, needCols = req.RowOffset + slotCount(req.Sa)*len(req.Sa.Edges),
			req.ColOffset + slotCount(req.Sb)*len(req.Sb.Edges)
	)
	if rows < needRows || cols < needCols {
		return fmt.Errorf("assemble block: target %dx%d too small for %dx%d at offset (%d,%d)",
			rows, cols, needRows, needCols, req.RowOffset, req.ColOffset)
	}
	return nil
}

// AssembleBlock fills B (and the requested derivative matrices) with the
// operator entries of the Sa/Sb block, parallelized over row ranges.
func (e *Engine) AssembleBlock(req BlockRequest) (BlockStats, error) {
	stats := BlockStats{Converged: true}
	if err := req.validate(); err != nil {
		return stats, err
	}
	var (
		sign = req.Sign
	)
	if sign == 0 {
		sign = 1
	}
	var (
		kOut    = req.Exterior.Wavenumber(req.Omega)
		zOut    = req.Exterior.WaveImpedance()
		hasIn   = req.Sa == req.Sb && !req.Sa.IsPEC
		kIn     complex128
		zIn     complex128
		bothPEC = req.Sa.IsPEC && req.Sb.IsPEC
	)
	if hasIn {
		kIn = req.Interior.Wavenumber(req.Omega)
		zIn = req.Interior.WaveImpedance()
	}

	nThreads := e.Opts.NumThreads
	if nThreads < 1 {
		nThreads = 1
	}
	var (
		nea     = len(req.Sa.Edges)
		pm      = utils.NewPartitionMap(nThreads, nea)
		wg      sync.WaitGroup
		mu      sync.Mutex
		workErr error
	)
	for bucket := 0; bucket < pm.ParallelDegree; bucket++ {
		lo, hi := pm.GetBucketRange(bucket)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			var (
				localPairs int
				localConv  = true
			)
			for ea := lo; ea < hi; ea++ {
				ebStart := 0
				if req.Symmetric {
					ebStart = ea
				}
				for eb := ebStart; eb < len(req.Sb.Edges); eb++ {
					out, err := e.EdgeEdgeInteractions(EERequest{
						Sa: req.Sa, Nea: ea,
						Sb: req.Sb, Neb: eb,
						K:                     kOut,
						NeedCross:             !bothPEC,
						NumGradientComponents: req.NumGradientComponents,
						TorqueAxes:            req.TorqueAxes,
					})
					if err != nil {
						mu.Lock()
						if workErr == nil {
							workErr = err
						}
						mu.Unlock()
						return
					}
					localConv = localConv && out.Converged
					var in EEResult
					if hasIn {
						in, err = e.EdgeEdgeInteractions(EERequest{
							Sa: req.Sa, Nea: ea,
							Sb: req.Sb, Neb: eb,
							K:         kIn,
							NeedCross: true,
						})
						if err != nil {
							mu.Lock()
							if workErr == nil {
								workErr = err
							}
							mu.Unlock()
							return
						}
						localConv = localConv && in.Converged
					}
					e.stampEntries(&req, sign, kOut, zOut, kIn, zIn, hasIn, ea, eb, &out, &in)
					localPairs++
				}
			}
			mu.Lock()
			stats.NumEdgePairs += localPairs
			stats.Converged = stats.Converged && localConv
			mu.Unlock()
		}(lo, hi)
	}
	wg.Wait()
	return stats, workErr
}

// stampEntries writes the operator entries of one edge pair, applying
// the symmetric mirror when requested. Workers own disjoint row ranges;
// the mirror writes of a symmetric diagonal block target the transposed
// element, which never collides because ea <= eb partitions the pairs.
func (e *Engine) stampEntries(req *BlockRequest, sign float64,
	kOut, zOut, kIn, zIn complex128, hasIn bool,
	ea, eb int, out, in *EEResult) {
	var (
		slots = slotCount(req.Sa)
		row   = req.RowOffset + slots*ea
		col   = req.ColOffset + slotCount(req.Sb)*eb
		s     = complex(sign, 0)
	)
	stamp := func(M *utils.CMatrix, gcOut, gcIn [2]complex128) {
		if req.Sa.IsPEC && req.Sb.IsPEC {
			M.Set(row, col, s*1i*kOut*zOut*gcOut[0])
			return
		}
		var (
			ee = s * (1i*kOut*zOut*gcOut[0] + 1i*kIn*zIn*gcIn[0])
			em = -s * (gcOut[1] + gcIn[1])
			mm = s * (1i*kOut*gcOut[0]/zOut + 1i*kIn*gcIn[0]/zIn)
		)
		switch {
		case req.Sa.IsPEC: // row has only the electric slot
			M.Set(row, col, ee)
			M.Set(row, col+1, em)
		case req.Sb.IsPEC:
			M.Set(row, col, ee)
			M.Set(row+1, col, em)
		default:
			M.Set(row, col, ee)
			M.Set(row, col+1, em)
			M.Set(row+1, col, em)
			M.Set(row+1, col+1, mm)
		}
	}
	var gcIn [2]complex128
	if hasIn {
		gcIn = in.GC
	} else {
		// zero interior contribution; guard the 1/zIn division
		zIn = 1
	}
	stamp(req.B, out.GC, gcIn)
	for mu := 0; mu < req.NumGradientComponents; mu++ {
		stamp(req.GradB[mu], out.GradGC[mu], [2]complex128{})
	}
	for t := range req.TorqueAxes {
		stamp(req.DBDTheta[t], out.TorqueGC[t], [2]complex128{})
	}

	if req.Symmetric && ea != eb {
		// transpose within the diagonal block: the operator entries are
		// symmetric under pair exchange
		mrow := req.RowOffset + slots*eb
		mcol := req.ColOffset + slots*ea
		for a := 0; a < slots; a++ {
			for b := 0; b < slots; b++ {
				req.B.Set(mrow+b, mcol+a, req.B.At(row+a, col+b))
			}
		}
	}
}
