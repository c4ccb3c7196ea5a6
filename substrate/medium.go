// Package substrate supplies the frequency- and medium-dependent side of
// the panel-pair engine: complex material descriptors, the free-space
// scalar Green's function kernels and their desingularized remainders,
// and the query interface behind which a layered-substrate kernel is
// consumed as a drop-in correction to free space.
package substrate

import "math/cmplx"

// Medium holds the relative permittivity and permeability of a region
// at one frequency, as returned by the material-property collaborator.
type Medium struct {
	Name string
	Eps  complex128
	Mu   complex128
}

// Vacuum is the trivial exterior medium.
var Vacuum = Medium{Name: "Vacuum", Eps: 1, Mu: 1}

// Wavenumber returns k = omega sqrt(eps mu) in natural units (c = 1).
func (m Medium) Wavenumber(omega complex128) complex128 {
	return omega * cmplx.Sqrt(m.Eps*m.Mu)
}

// WaveImpedance returns sqrt(mu/eps), relative to the vacuum impedance.
func (m Medium) WaveImpedance() complex128 {
	return cmplx.Sqrt(m.Mu / m.Eps)
}
