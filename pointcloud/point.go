// Package pointcloud defines the map's unit entity, Point, and the raw
// scan decoding used to turn wire-format point clouds into r3.Vector
// positions (spec.md §3, §6).
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// Point is the map's unit entity (spec.md §3). Its mutable fields are
// guarded by whatever lock the owning Map Store exposes for point data;
// Point itself is not safe for concurrent use on its own.
type Point struct {
	Position r3.Vector
	Normal   r3.Vector

	OccupiedCount uint32
	EmptyCount    uint32

	NumNormalPts int

	GroundDiffMin     float64
	GroundDiffMax     float64
	GroundDiffStd     float64
	GroundAbsDiffMean float64

	NumObstaclePts    int
	NumEdgeNeighbors  int

	Flags Flags

	DistToActor        float64
	DistToOtherActors  float64
	ActorLastVisit       float64
	OtherActorsLastVisit float64

	PathCost     float64
	Reward       float64
	RelativeCost float64
}

// NewPoint returns a freshly merged point at position p, with a single
// occupied observation and every transient/derived field at its
// not-yet-computed default (spec.md §4.1 "Otherwise append a new point").
func NewPoint(p r3.Vector) *Point {
	return &Point{
		Position:             p,
		OccupiedCount:        1,
		GroundDiffMin:        math.NaN(),
		GroundDiffMax:        math.NaN(),
		GroundDiffStd:        math.NaN(),
		GroundAbsDiffMean:    math.NaN(),
		Flags:                Unknown,
		DistToActor:          math.NaN(),
		DistToOtherActors:    math.NaN(),
		ActorLastVisit:       math.NaN(),
		OtherActorsLastVisit: math.NaN(),
		PathCost:             math.NaN(),
		Reward:               math.NaN(),
		RelativeCost:         math.NaN(),
	}
}

// HasNormal reports whether enough neighbors were available to estimate a
// normal the last time features were computed (spec.md §4.2 step 1).
func (p *Point) HasNormal() bool {
	return !p.Flags.Has(Unknown)
}

// Finite reports whether v has only finite components, the validity check
// applied to every incoming observation before it reaches the Map Store
// (spec.md §4.1 "Failure semantics").
func Finite(v r3.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
