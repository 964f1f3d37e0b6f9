// Package spatialindex provides the uniform-grid spatial index the Map
// Store uses for nearest/radius queries over point positions
// (spec.md §3, §4.1). It is a bare data structure: callers are
// responsible for the locking discipline described in spec.md §4.1/§5 —
// the index itself performs no synchronization.
package spatialindex

import (
	"math"

	"github.com/golang/geo/r3"
)

// cell is a grid-aligned bucket key, the 3D analogue of the teacher's
// pointcloud.VoxelCoords.
type cell struct {
	i, j, k int64
}

func cellFor(p r3.Vector, size float64) cell {
	return cell{
		i: int64(math.Floor(p.X / size)),
		j: int64(math.Floor(p.Y / size)),
		k: int64(math.Floor(p.Z / size)),
	}
}

// Index is a uniform grid hashing point positions into cubic cells of
// side CellSize. Radius queries scan every cell within
// ceil(radius/CellSize)+1 cells of the query point's cell — cheap because the
// grid keeps each cell's occupancy low whenever CellSize tracks the
// typical query radius.
type Index struct {
	cellSize float64
	buckets  map[cell][]int
	position func(idx int) r3.Vector
}

// New returns an empty Index with the given cell size. position is used
// to resolve an index back to a position when the caller doesn't already
// have it on hand; it must be safe to call under whatever lock the owner
// holds while calling Index methods.
func New(cellSize float64, position func(idx int) r3.Vector) *Index {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Index{
		cellSize: cellSize,
		buckets:  make(map[cell][]int),
		position: position,
	}
}

// Size returns the number of indices currently stored.
func (idx *Index) Size() int {
	n := 0
	for _, b := range idx.buckets {
		n += len(b)
	}
	return n
}

// Insert adds the point at position p under index i.
func (idx *Index) Insert(i int, p r3.Vector) {
	c := cellFor(p, idx.cellSize)
	idx.buckets[c] = append(idx.buckets[c], i)
}

// ringCells returns every cell key within radius of center, as a cell-space
// axis-aligned box big enough to cover it.
func (idx *Index) ringCells(center r3.Vector, radius float64) []cell {
	reach := int64(math.Ceil(radius/idx.cellSize)) + 1
	cc := cellFor(center, idx.cellSize)
	var cells []cell
	for i := cc.i - reach; i <= cc.i+reach; i++ {
		for j := cc.j - reach; j <= cc.j+reach; j++ {
			for k := cc.k - reach; k <= cc.k+reach; k++ {
				cells = append(cells, cell{i, j, k})
			}
		}
	}
	return cells
}

type hit struct {
	i    int
	dist float64
}

// WithinRadius returns every stored index within radius of center,
// ordered by increasing distance.
func (idx *Index) WithinRadius(center r3.Vector, radius float64) []int {
	var hits []hit
	for _, c := range idx.ringCells(center, radius) {
		for _, i := range idx.buckets[c] {
			d := idx.position(i).Sub(center).Norm()
			if d <= radius {
				hits = append(hits, hit{i, d})
			}
		}
	}
	sortHitsByDist(hits)
	out := make([]int, len(hits))
	for n, h := range hits {
		out[n] = h.i
	}
	return out
}

func sortHitsByDist(hits []hit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].dist < hits[j-1].dist; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}

// KNN returns up to k of the stored indices nearest to center that lie
// within radius, ordered by increasing distance (spec.md §4.2 step 1).
func (idx *Index) KNN(center r3.Vector, k int, radius float64) []int {
	all := idx.WithinRadius(center, radius)
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// Nearest returns the single closest stored index to center and its
// distance, scanning every cell ringCells returns for maxRadius in one
// pass; it reports false when no stored index lies within maxRadius
// (spec.md §4.1 "nearest-existing-point query").
func (idx *Index) Nearest(center r3.Vector, maxRadius float64) (int, float64, bool) {
	if len(idx.buckets) == 0 {
		return 0, 0, false
	}
	best := -1
	bestDist := math.Inf(1)
	for _, c := range idx.ringCells(center, maxRadius) {
		for _, i := range idx.buckets[c] {
			d := idx.position(i).Sub(center).Norm()
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
	}
	if best < 0 || bestDist > maxRadius {
		return 0, 0, false
	}
	return best, bestDist, true
}
