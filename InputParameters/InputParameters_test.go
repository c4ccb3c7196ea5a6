package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	data := `
Title: "Parallel Plates"
Omega: 0.5
QuadRelTol: 1.e-10
Symmetric: true
ExteriorMedium: Vacuum
Media:
  Gold:
    Eps: -10.
    Mu: 1.
Surfaces:
  Lower:
    MeshFile: lower.msh
    IsPEC: true
  Sphere:
    MeshFile: sphere.msh
    Medium: Gold
`
	ip := &InputParameters{}
	assert.NoError(t, ip.Parse([]byte(data)))
	assert.Equal(t, "Parallel Plates", ip.Title)
	assert.Equal(t, 0.5, ip.Omega)
	assert.Equal(t, 1.e-10, ip.QuadRelTol)
	assert.True(t, ip.Symmetric)
	// unset knobs fall back to working defaults
	assert.Equal(t, 4.0, ip.ProximityThreshold)
	assert.Equal(t, 100000, ip.QuadMaxEvals)
	assert.Equal(t, 12, ip.SingularOrder)
	assert.Equal(t, -10., ip.Media["Gold"].Eps)
	assert.True(t, ip.Surfaces["Lower"].IsPEC)
	assert.Equal(t, "Gold", ip.Surfaces["Sphere"].Medium)
}

func TestParseRejectsBadInput(t *testing.T) {
	{ // missing Omega
		ip := &InputParameters{}
		assert.Error(t, ip.Parse([]byte(`Title: "x"`)))
	}
	{ // malformed YAML
		ip := &InputParameters{}
		assert.Error(t, ip.Parse([]byte("Omega: [")))
	}
	{ // gradient component count out of range
		ip := &InputParameters{}
		assert.Error(t, ip.Parse([]byte("Omega: 1\nNumGradientComponents: 5")))
	}
}
