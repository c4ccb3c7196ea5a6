package substrate

import "github.com/parroyoh/scuff-em/geom"

// Kernel is the query surface of the layered-substrate Green's-function
// collaborator. The engine evaluates the free-space kernel analytically
// and asks the Kernel only for the layer correction, which is smooth for
// any physical layer stack (image and spectral terms have their
// singularities below the substrate interfaces).
type Kernel interface {
	Name() string
	// Trivial reports a pure free-space kernel, letting the engine skip
	// the correction cubature entirely.
	Trivial() bool
	// Correction returns the layer correction dPhi to the scalar kernel
	// Phi between source x and observation y at wavenumber k, and the
	// gradient of dPhi with respect to x.
	Correction(k complex128, x, y geom.Vec3) (dPhi complex128, dGradPhi [3]complex128)
}

// FreeSpace is the homogeneous-medium kernel: no correction.
type FreeSpace struct{}

func (FreeSpace) Name() string  { return "FreeSpace" }
func (FreeSpace) Trivial() bool { return true }
func (FreeSpace) Correction(complex128, geom.Vec3, geom.Vec3) (complex128, [3]complex128) {
	return 0, [3]complex128{}
}

// GroundPlane is the simplest layered medium: a perfectly conducting
// plane at z = Z, handled by a single image source reflected across the
// plane with negative sign. All panels must lie strictly above the
// plane, which keeps the image kernel smooth.
type GroundPlane struct {
	Z float64
}

func (GroundPlane) Name() string  { return "GroundPlane" }
func (GroundPlane) Trivial() bool { return false }

func (gp GroundPlane) Correction(k complex128, x, y geom.Vec3) (dPhi complex128, dGradPhi [3]complex128) {
	yBar := geom.Vec3{y[0], y[1], 2*gp.Z - y[2]}
	d := x.Minus(yBar)
	r := d.Norm()
	dPhi = -Phi(k, r)
	psi := -Psi(k, r)
	for mu := 0; mu < 3; mu++ {
		dGradPhi[mu] = psi * complex(d[mu], 0)
	}
	return
}
