package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{ // buckets cover the index range exactly once
		pm := NewPartitionMap(4, 10)
		assert.Equal(t, 4, pm.ParallelDegree)
		covered := 0
		prev := 0
		for n := 0; n < pm.ParallelDegree; n++ {
			min, max := pm.GetBucketRange(n)
			assert.Equal(t, prev, min)
			covered += max - min
			prev = max
		}
		assert.Equal(t, 10, covered)
	}
	{ // more workers than work: the degree clamps to the work available
		pm := NewPartitionMap(8, 3)
		assert.Equal(t, 3, pm.ParallelDegree)
		total := 0
		for n := 0; n < pm.ParallelDegree; n++ {
			min, max := pm.GetBucketRange(n)
			total += max - min
		}
		assert.Equal(t, 3, total)
	}
	{ // single worker owns everything
		pm := NewPartitionMap(1, 7)
		min, max := pm.GetBucketRange(0)
		assert.Equal(t, 0, min)
		assert.Equal(t, 7, max)
	}
}

func TestCMatrix(t *testing.T) {
	m := NewCMatrix(2, 3)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	m.Set(1, 2, 3+4i)
	assert.Equal(t, 3+4i, m.At(1, 2))
	assert.True(t, near(m.MaxAbs(), 5))
	assert.True(t, near(m.FrobNorm(), 5))

	cp := m.Copy()
	cp.Set(0, 0, 1)
	assert.Equal(t, complex128(0), m.At(0, 0)) // deep copy

	m.Zero()
	assert.Equal(t, complex128(0), m.At(1, 2))

	// construction from backing data panics on size mismatch
	assert.Panics(t, func() {
		NewCMatrix(2, 2, make([]complex128, 3))
	})
}

func near(a, b float64) (l bool) {
	if math.Abs(a-b) < 1.e-08*math.Max(math.Abs(a), 1) {
		l = true
	}
	return
}
