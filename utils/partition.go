package utils

// PartitionMap splits an index range into ParallelDegree nearly equal
// contiguous partitions, one per worker. The edge-pair assembly loop is
// embarrassingly parallel, so a flat split balances it.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // begin and one-past-end index per partition
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	if ParallelDegree > maxIndex && maxIndex > 0 {
		ParallelDegree = maxIndex
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// Split1D computes the [min,max) index range of partition n. The first
// (MaxIndex mod ParallelDegree) partitions carry one extra index.
func (pm *PartitionMap) Split1D(n int) (minmax [2]int) {
	var (
		base  = pm.MaxIndex / pm.ParallelDegree
		extra = pm.MaxIndex % pm.ParallelDegree
		min   int
	)
	for i := 0; i < n; i++ {
		min += base
		if i < extra {
			min++
		}
	}
	max := min + base
	if n < extra {
		max++
	}
	minmax = [2]int{min, max}
	return
}

// GetBucketRange returns the index range owned by worker n.
func (pm *PartitionMap) GetBucketRange(n int) (min, max int) {
	min, max = pm.Partitions[n][0], pm.Partitions[n][1]
	return
}
