package fippi

import (
	"math"
	"sort"
	"sync"

	"github.com/parroyoh/scuff-em/cubature"
	"github.com/parroyoh/scuff-em/geom"
)

// KeyResolution is the relative coordinate quantum of the search key.
// Vertex-congruent pairs quantize to identical keys regardless of vertex
// storage order; geometrically distinct pairs differ by far more than
// one quantum, so key collisions cannot conflate them.
const KeyResolution = 1.e-9

// Key is the canonical geometric signature of a panel pair: the
// quantized coordinates of panel A's vertices followed by panel B's,
// each panel's vertices sorted lexicographically. Panel order is part of
// the key: the moment integrals distinguish source from observation
// panel.
type Key [18]int64

// ComputeSearchKey canonicalizes the pair geometry into a Key.
func ComputeSearchKey(Va, Vb geom.Triangle) (key Key) {
	scale := Va.MaxEdge()
	if l := Vb.MaxEdge(); l > scale {
		scale = l
	}
	quantum := KeyResolution * scale
	q := func(T geom.Triangle, out []int64) {
		var iv [3][3]int64
		for i := 0; i < 3; i++ {
			for c := 0; c < 3; c++ {
				iv[i][c] = int64(math.Round(T[i][c] / quantum))
			}
		}
		sort.Slice(iv[:], func(a, b int) bool {
			for c := 0; c < 3; c++ {
				if iv[a][c] != iv[b][c] {
					return iv[a][c] < iv[b][c]
				}
			}
			return false
		})
		for i := 0; i < 3; i++ {
			for c := 0; c < 3; c++ {
				out[3*i+c] = iv[i][c]
			}
		}
	}
	q(Va, key[0:9])
	q(Vb, key[9:18])
	return
}

const numShards = 64

type tableShard struct {
	mu sync.RWMutex
	m  map[Key]*DataRecord
}

// Table is the FIPPI cache: a sharded concurrent map from canonical
// pair keys to immutable records. Lookups take only a per-shard read
// lock, so steady-state concurrent readers never serialize globally;
// insert and derivative upgrades serialize per shard. A lookup racing an
// in-flight insert for the same key recomputes independently; whichever
// record is published is complete, never partially written.
type Table struct {
	shards [numShards]tableShard
	opts   cubature.AdaptiveOptions
}

// NewTable builds an empty cache using the given adaptive cubature
// options for record computation. There is no eviction: mesh topology is
// fixed per run and the far-field path bypasses the cache, so growth is
// bounded by the distinct near-pair count.
func NewTable(opts cubature.AdaptiveOptions) (t *Table) {
	t = &Table{opts: opts}
	for n := range t.shards {
		t.shards[n].m = make(map[Key]*DataRecord)
	}
	return
}

func (k Key) shard() uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis
	for _, v := range k {
		h ^= uint64(v)
		h *= 1099511628211
	}
	return h % numShards
}

// GetDataRecord returns the moment record for the pair, computing and
// caching it on first request. A cached record lacking derivative fields
// is recomputed with derivatives and replaced when they are requested.
func (t *Table) GetDataRecord(Va, Vb geom.Triangle, needDerivatives bool) *DataRecord {
	var (
		key = ComputeSearchKey(Va, Vb)
		sh  = &t.shards[key.shard()]
	)
	sh.mu.RLock()
	rec, ok := sh.m[key]
	sh.mu.RUnlock()
	if ok && (rec.HasDerivatives || !needDerivatives) {
		return rec
	}
	// miss or derivative upgrade: compute outside the lock
	fresh := ComputeDataRecord(Va, Vb, needDerivatives, t.opts)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cur, ok := sh.m[key]; ok && (cur.HasDerivatives || !needDerivatives) {
		return cur // another worker won the race with an equal or better record
	}
	sh.m[key] = fresh
	return fresh
}

// Size returns the number of cached records, for diagnostics.
func (t *Table) Size() (n int) {
	for i := range t.shards {
		t.shards[i].mu.RLock()
		n += len(t.shards[i].m)
		t.shards[i].mu.RUnlock()
	}
	return
}
