package planner

import (
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"

	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

// Pose is a position and orientation in the map frame.
type Pose struct {
	Position    r3.Vector
	Orientation quat.Number
}

// NaNPose is the sentinel "unset" pose used by PlanRequest.Start and Goal:
// a non-finite position means "resolve from the latest robot transform"
// (Start) or "exploration mode" (Goal), per spec.md §6.
var NaNPose = Pose{Position: r3.Vector{X: nan(), Y: nan(), Z: nan()}}

func nan() float64 {
	var zero float64
	return zero / zero
}

// finite reports whether p's position has only finite components.
func (p Pose) finite() bool {
	return pointcloud.Finite(p.Position)
}

// PlanRequest is a single planning-tick input (spec.md §6, "Plan
// request").
type PlanRequest struct {
	ID        uuid.UUID
	Start     Pose
	Goal      Pose
	Tolerance float64
}

// lastRequestBox holds the most recently issued request so that periodic
// replans with no new request reuse it (spec.md §4.4, "Failure
// semantics"). It has its own lock, held only for copy-in/copy-out, per
// spec.md §5's lock-ordering note.
type lastRequestBox struct {
	mu  sync.Mutex
	req *PlanRequest
}

func (b *lastRequestBox) get() *PlanRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.req == nil {
		return nil
	}
	cp := *b.req
	return &cp
}

func (b *lastRequestBox) set(req *PlanRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *req
	b.req = &cp
}
