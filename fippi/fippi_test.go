package fippi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parroyoh/scuff-em/cubature"
	"github.com/parroyoh/scuff-em/geom"
)

var (
	panelA = geom.Triangle{{0, 0, 0}, {1, 0, 0}, {0.2, 0.9, 0}}
	panelB = geom.Triangle{{0.1, 0.2, 0.6}, {1.1, 0.1, 0.7}, {0.3, 1, 0.8}}
)

func TestComputeSearchKey(t *testing.T) {
	key := ComputeSearchKey(panelA, panelB)
	{ // intra-panel vertex order is canonicalized away
		permA := geom.Triangle{panelA[2], panelA[0], panelA[1]}
		permB := geom.Triangle{panelB[1], panelB[2], panelB[0]}
		assert.Equal(t, key, ComputeSearchKey(permA, permB))
	}
	{ // perturbations below the quantum do not split the key
		jig := panelA
		jig[1][0] += 1.e-11
		assert.Equal(t, key, ComputeSearchKey(jig, panelB))
	}
	{ // panel order is part of the key
		assert.NotEqual(t, key, ComputeSearchKey(panelB, panelA))
	}
	{ // geometrically distinct pairs split
		moved := panelB
		moved[0][2] += 0.01
		assert.NotEqual(t, key, ComputeSearchKey(panelA, moved))
	}
}

func TestComputeDataRecord(t *testing.T) {
	rec := ComputeDataRecord(panelA, panelB, true, cubature.DefaultAdaptiveOptions())
	assert.True(t, rec.Converged)
	assert.True(t, rec.HasDerivatives)

	// every r^p moment of a positive integrand is positive
	for i := range PhiPowers {
		assert.True(t, rec.R[i] > 0)
	}

	// cross-moment consistency: Int (x.y) r^p must lie between the
	// bounds implied by the position moments on these panels (all
	// coordinates positive, so all dot products are positive)
	for i := range PhiPowers {
		assert.True(t, rec.YAdYB[i] > 0)
	}

	// R[2] is Int r over the pair; both panels are unit-scale and about
	// 0.7 apart, so the value must land near dist * areaA * areaB
	var (
		dist  = panelA.Centroid().Minus(panelB.Centroid()).Norm()
		areas = panelA.Area() * panelB.Area()
	)
	assert.InEpsilon(t, dist*areas, rec.R[2], 0.25)
}

func TestComputeDataRecordRejectsTouchingPairs(t *testing.T) {
	shared := geom.Triangle{{0, 0, 0}, {-1, 0, 0}, {0, -1, 0}}
	assert.Panics(t, func() {
		ComputeDataRecord(panelA, shared, false, cubature.DefaultAdaptiveOptions())
	})
}

func TestTableCachesRecords(t *testing.T) {
	tab := NewTable(cubature.DefaultAdaptiveOptions())
	r1 := tab.GetDataRecord(panelA, panelB, false)
	assert.Equal(t, 1, tab.Size())
	// second lookup returns the cached record, not a recomputation
	r2 := tab.GetDataRecord(panelA, panelB, false)
	assert.True(t, r1 == r2)
	// vertex permutation hits the same record
	permA := geom.Triangle{panelA[1], panelA[2], panelA[0]}
	r3 := tab.GetDataRecord(permA, panelB, false)
	assert.True(t, r1 == r3)
	assert.Equal(t, 1, tab.Size())
}

func TestTableDerivativeUpgrade(t *testing.T) {
	tab := NewTable(cubature.DefaultAdaptiveOptions())
	plain := tab.GetDataRecord(panelA, panelB, false)
	assert.False(t, plain.HasDerivatives)
	up := tab.GetDataRecord(panelA, panelB, true)
	assert.True(t, up.HasDerivatives)
	assert.Equal(t, 1, tab.Size())
	// base moments survive the upgrade
	for i := range PhiPowers {
		assert.InEpsilon(t, plain.R[i], up.R[i], 1.e-6)
	}
	// later plain lookups keep the upgraded record
	again := tab.GetDataRecord(panelA, panelB, false)
	assert.True(t, up == again)
}

func TestTableConcurrentAccess(t *testing.T) {
	var (
		tab   = NewTable(cubature.DefaultAdaptiveOptions())
		wg    sync.WaitGroup
		pairs = make([][2]geom.Triangle, 8)
	)
	for n := range pairs {
		shift := geom.Vec3{0, 0, 0.1 * float64(n+1)}
		moved := geom.Triangle{
			panelB[0].Plus(shift), panelB[1].Plus(shift), panelB[2].Plus(shift),
		}
		pairs[n] = [2]geom.Triangle{panelA, moved}
	}
	for worker := 0; worker < 16; worker++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for n, p := range pairs {
				rec := tab.GetDataRecord(p[0], p[1], (w+n)%2 == 0)
				assert.True(t, rec.R[0] > 0)
			}
		}(worker)
	}
	wg.Wait()
	assert.Equal(t, len(pairs), tab.Size())
}

// The moments feed a short-distance expansion in powers of r, so their
// magnitudes must order by the separation scale: on well-separated
// panels Int r^{-1} < Int r^0 / dMin etc. Sanity anchor: R[1] equals the
// product of the areas exactly.
func TestMomentScales(t *testing.T) {
	rec := ComputeDataRecord(panelA, panelB, false, cubature.DefaultAdaptiveOptions())
	areas := panelA.Area() * panelB.Area()
	assert.InEpsilon(t, areas, rec.R[1], 1.e-8)
	assert.True(t, rec.R[0] > 0 && rec.R[2] > 0 && rec.R[3] > 0)
	// Cauchy-Schwarz: Int r * Int 1/r >= (Int 1)^2
	assert.True(t, rec.R[2]*rec.R[0] >= areas*areas*(1-1.e-6))
}
