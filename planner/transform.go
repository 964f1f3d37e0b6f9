package planner

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
)

// TransformSource resolves the pose of one frame relative to another at a
// given time, the only operation in the core that may block (spec.md §5,
// "Suspension and blocking"). Implementations are expected to honor ctx's
// deadline; Lookup should return a non-nil error promptly once it does.
type TransformSource interface {
	Lookup(ctx context.Context, target, source string, at time.Time) (Pose, error)
}

// RobotTracker reports the last known world-frame positions of other
// robots sharing the map, used by the ingest self-filter (spec.md §4.4)
// and the viewpoint task (spec.md §4.4, §6 "robot_frames").
type RobotTracker interface {
	OtherPositions() []r3.Vector
}

// lookupWithTimeout wraps src.Lookup with the configured transform
// timeout, returning ErrMissingTransform on expiry.
func lookupWithTimeout(ctx context.Context, src TransformSource, target, source string, at time.Time, timeout time.Duration) (Pose, error) {
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pose Pose
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := src.Lookup(lctx, target, source, at)
		ch <- result{p, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return Pose{}, ErrMissingTransform
		}
		return r.pose, nil
	case <-lctx.Done():
		return Pose{}, ErrMissingTransform
	}
}
