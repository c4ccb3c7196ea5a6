package utils

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// CMatrix wraps gonum's CDense with the small chainable surface the BEM
// assembler needs. The assembler writes entries in place; the wrapper is
// a thin view, never a copy.
type CMatrix struct {
	M    *mat.CDense
	name string
}

func NewCMatrix(nr, nc int, dataO ...[]complex128) (R CMatrix) {
	var m *mat.CDense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewCMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewCDense(nr, nc, dataO[0])
	} else {
		m = mat.NewCDense(nr, nc, make([]complex128, nr*nc))
	}
	R = CMatrix{m, "unnamed"}
	return
}

// Dims, At and H minimally satisfy the mat.CMatrix interface.
func (m CMatrix) Dims() (r, c int)         { return m.M.Dims() }
func (m CMatrix) At(i, j int) complex128   { return m.M.At(i, j) }
func (m CMatrix) H() mat.CMatrix           { return m.M.H() }
func (m CMatrix) T() mat.CMatrix           { return m.M.T() }
func (m CMatrix) Set(i, j int, v complex128) {
	m.M.Set(i, j, v)
}

func (m *CMatrix) SetName(name string) CMatrix {
	m.name = name
	return *m
}

func (m CMatrix) Name() string { return m.name }

func (m CMatrix) Zero() CMatrix {
	var (
		data = m.M.RawCMatrix().Data
	)
	for i := range data {
		data[i] = 0
	}
	return m
}

func (m CMatrix) Copy() (R CMatrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewCMatrix(nr, nc)
	R.M.Copy(m.M)
	R.name = m.name
	return
}

// MaxAbs returns the largest entry magnitude, used for convergence and
// sanity reporting.
func (m CMatrix) MaxAbs() (mx float64) {
	for _, v := range m.M.RawCMatrix().Data {
		if a := cmplx.Abs(v); a > mx {
			mx = a
		}
	}
	return
}

// FrobNorm returns the Frobenius norm.
func (m CMatrix) FrobNorm() float64 {
	var sum float64
	for _, v := range m.M.RawCMatrix().Data {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(sum)
}
