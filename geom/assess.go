package geom

// VertexTolerance is the relative coordinate tolerance below which two
// panel vertices are the same mesh vertex. Classification depends only
// on vertex coincidence, so congruent pairs classify identically no
// matter which panel comes first.
const VertexTolerance = 1.e-8

func pairTolerance(Va, Vb Triangle) float64 {
	scale := Va.MaxEdge()
	if l := Vb.MaxEdge(); l > scale {
		scale = l
	}
	return VertexTolerance * scale
}

// NumCommonVertices counts vertices shared by the two panels within
// tolerance.
func NumCommonVertices(Va, Vb Triangle) (ncv int) {
	tol := pairTolerance(Va, Vb)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if SamePoint(Va[i], Vb[j], tol) {
				ncv++
				break
			}
		}
	}
	return
}

// AssessPanelPair classifies a panel pair by shared-vertex count and
// relabels both panels so that shared vertices occupy the leading slots
// in matching order: after relabeling, VaOut[i] == VbOut[i] for
// i < ncv. Vertex permutations do not change the surface integrals, so
// downstream code may rely on the canonical layout freely.
func AssessPanelPair(Va, Vb Triangle) (ncv int, VaOut, VbOut Triangle) {
	var (
		tol    = pairTolerance(Va, Vb)
		matchA [3]bool
		matchB [3]bool
		pairs  [][2]int
	)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !matchB[j] && SamePoint(Va[i], Vb[j], tol) {
				matchA[i], matchB[j] = true, true
				pairs = append(pairs, [2]int{i, j})
				break
			}
		}
	}
	ncv = len(pairs)
	var ia, ib int
	for _, p := range pairs {
		VaOut[ia], VbOut[ib] = Va[p[0]], Vb[p[1]]
		ia++
		ib++
	}
	for i := 0; i < 3; i++ {
		if !matchA[i] {
			VaOut[ia] = Va[i]
			ia++
		}
		if !matchB[i] {
			VbOut[ib] = Vb[i]
			ib++
		}
	}
	return
}
