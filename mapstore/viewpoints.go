package mapstore

import (
	"sync"

	"github.com/golang/geo/r3"
)

// viewpointLog is the bounded, append-only record of recent robot
// positions used by the viewpoint task to refresh dist_to_actor,
// dist_to_other_actors, actor_last_visit and other_actors_last_visit
// (spec.md §3, §4.4). It has its own lock, acquired after last_request and
// before the map's data lock in the ordering spec.md §5 requires.
type viewpointLog struct {
	mu      sync.Mutex
	horizon int
	own     []r3.Vector
	other   []r3.Vector
}

func newViewpointLog(horizon int) *viewpointLog {
	if horizon <= 0 {
		horizon = 1
	}
	return &viewpointLog{horizon: horizon}
}

func (v *viewpointLog) addOwn(p r3.Vector) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.own = appendBounded(v.own, p, v.horizon)
}

func (v *viewpointLog) addOther(p r3.Vector) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.other = appendBounded(v.other, p, v.horizon)
}

// snapshot returns copies of both logs for the viewpoint task to scan
// without holding the viewpoint lock while it touches map data.
func (v *viewpointLog) snapshot() (own, other []r3.Vector) {
	v.mu.Lock()
	defer v.mu.Unlock()
	own = append([]r3.Vector(nil), v.own...)
	other = append([]r3.Vector(nil), v.other...)
	return own, other
}

func appendBounded(log []r3.Vector, p r3.Vector, horizon int) []r3.Vector {
	log = append(log, p)
	if len(log) > horizon {
		log = log[len(log)-horizon:]
	}
	return log
}
