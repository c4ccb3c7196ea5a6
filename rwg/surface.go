package rwg

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/parroyoh/scuff-em/geom"
)

// Panel is one triangular surface element of an RWGSurface.
type Panel struct {
	Index    int
	VI       [3]int // indices into Surface.Vertices
	V        geom.Triangle
	Centroid geom.Vec3
	Area     float64
	Radius   float64
}

// Edge is an interior mesh edge supporting one RWG basis function: the
// directed pair of panels sharing the edge, with the opposite ("charge")
// vertex Q of each panel.
type Edge struct {
	Index      int
	IV1, IV2   int // endpoint vertex indices, IV1 < IV2
	PanelPlus  int
	PanelMinus int
	QPlus      geom.Vec3
	QMinus     geom.Vec3
	Length     float64
	Centroid   geom.Vec3
	Radius     float64 // max panel radius over the two supporting panels
}

// Surface is a triangulated scatterer surface built from raw vertex and
// triangle arrays. Mesh file parsing lives with the caller.
type Surface struct {
	Name       string
	Vertices   []geom.Vec3
	Panels     []Panel
	Edges      []Edge
	IsPEC      bool
	MediumName string // interior medium, looked up by the caller per frequency
}

// NewSurface validates the panels and extracts the interior RWG edges.
// A degenerate panel (zero area, coincident vertices) is a fatal input
// error: it indicates a corrupt mesh, never recovered silently.
func NewSurface(name string, vertices []geom.Vec3, tris [][3]int, isPEC bool, mediumName string) (s *Surface, err error) {
	s = &Surface{
		Name:       name,
		Vertices:   vertices,
		Panels:     make([]Panel, len(tris)),
		IsPEC:      isPEC,
		MediumName: mediumName,
	}
	nv := len(vertices)
	for np, t := range tris {
		for i := 0; i < 3; i++ {
			if t[i] < 0 || t[i] >= nv {
				return nil, fmt.Errorf("surface %s: panel %d references vertex %d, have %d vertices", name, np, t[i], nv)
			}
		}
		T := geom.Triangle{vertices[t[0]], vertices[t[1]], vertices[t[2]]}
		if err = T.CheckPanel(); err != nil {
			return nil, fmt.Errorf("surface %s: panel %d: %w", name, np, err)
		}
		s.Panels[np] = Panel{
			Index:    np,
			VI:       t,
			V:        T,
			Centroid: T.Centroid(),
			Area:     T.Area(),
			Radius:   T.Radius(),
		}
	}
	if err = s.connectEdges(); err != nil {
		return nil, err
	}
	return
}

// connectEdges finds the panel pairs sharing an edge from the sparse
// panel-to-vertex incidence matrix: (P V) (P V)^T has entry 2 exactly
// where two distinct panels share two vertices.
func (s *Surface) connectEdges() error {
	var (
		nPanels = len(s.Panels)
		nVerts  = len(s.Vertices)
	)
	SpPToV_Tmp := sparse.NewDOK(nPanels, nVerts)
	for np, p := range s.Panels {
		for i := 0; i < 3; i++ {
			SpPToV_Tmp.Set(np, p.VI[i], 1)
		}
	}
	SpPToP := sparse.NewCSR(nPanels, nPanels, nil, nil, nil)
	SpPToV := SpPToV_Tmp.ToCSR()
	SpPToP.Mul(SpPToV, SpPToV.T())

	for npa := 0; npa < nPanels; npa++ {
		for npb := npa + 1; npb < nPanels; npb++ {
			if SpPToP.At(npa, npb) != 2 {
				continue
			}
			iv1, iv2, ok := sharedEdge(s.Panels[npa].VI, s.Panels[npb].VI)
			if !ok {
				return fmt.Errorf("surface %s: panels %d,%d share two vertices but no edge", s.Name, npa, npb)
			}
			s.addEdge(iv1, iv2, npa, npb)
		}
	}
	return nil
}

func sharedEdge(a, b [3]int) (iv1, iv2 int, ok bool) {
	var common []int
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if a[i] == b[j] {
				common = append(common, a[i])
			}
		}
	}
	if len(common) != 2 {
		return 0, 0, false
	}
	iv1, iv2 = common[0], common[1]
	if iv1 > iv2 {
		iv1, iv2 = iv2, iv1
	}
	ok = true
	return
}

func (s *Surface) addEdge(iv1, iv2, npa, npb int) {
	var (
		V1 = s.Vertices[iv1]
		V2 = s.Vertices[iv2]
	)
	e := Edge{
		Index:      len(s.Edges),
		IV1:        iv1,
		IV2:        iv2,
		PanelPlus:  npa,
		PanelMinus: npb,
		QPlus:      s.oppositeVertex(npa, iv1, iv2),
		QMinus:     s.oppositeVertex(npb, iv1, iv2),
		Length:     V2.Minus(V1).Norm(),
		Centroid:   V1.Plus(V2).Scale(0.5),
	}
	e.Radius = s.Panels[npa].Radius
	if r := s.Panels[npb].Radius; r > e.Radius {
		e.Radius = r
	}
	s.Edges = append(s.Edges, e)
}

func (s *Surface) oppositeVertex(np, iv1, iv2 int) geom.Vec3 {
	for i, iv := range s.Panels[np].VI {
		if iv != iv1 && iv != iv2 {
			return s.Panels[np].V[i]
		}
	}
	panic(fmt.Sprintf("panel %d does not contain the edge complement of (%d,%d)", np, iv1, iv2))
}

// NumEdges returns the interior (RWG basis function) edge count.
func (s *Surface) NumEdges() int { return len(s.Edges) }

// Translated returns a copy of the surface rigidly displaced by d.
// Used by the force/torque finite-difference validation path.
func (s *Surface) Translated(d geom.Vec3) *Surface {
	vertices := make([]geom.Vec3, len(s.Vertices))
	for i, v := range s.Vertices {
		vertices[i] = v.Plus(d)
	}
	tris := make([][3]int, len(s.Panels))
	for i, p := range s.Panels {
		tris[i] = p.VI
	}
	t, err := NewSurface(s.Name, vertices, tris, s.IsPEC, s.MediumName)
	if err != nil {
		panic(err) // translation cannot degenerate a valid mesh
	}
	return t
}
