package planner

import "github.com/pkg/errors"

// Sentinel errors returned by Plan and the ingest path, matching the error
// kinds of spec.md §7. Callers are expected to check these with errors.Is.
var (
	// ErrNotReady is returned by any public entry point called before the
	// planner finishes initialization (spec.md §7, "Not initialized").
	ErrNotReady = errors.New("planner: not ready")

	// ErrStaleInput is returned when an incoming cloud fails validation or
	// is older than max_cloud_age.
	ErrStaleInput = errors.New("planner: stale or malformed input")

	// ErrMissingTransform is returned when a required frame transform
	// could not be resolved within the configured timeout.
	ErrMissingTransform = errors.New("planner: missing transform")

	// ErrNoTraversableStart is returned when no TRAVERSABLE point exists
	// within tolerance of the resolved start position.
	ErrNoTraversableStart = errors.New("planner: no traversable start")

	// ErrNoFeasibleGoal is returned when neither goal-directed nor
	// exploration goal selection finds a candidate vertex.
	ErrNoFeasibleGoal = errors.New("planner: no feasible goal")

	// ErrInsufficientMap is returned when the map holds fewer than
	// K_NEIGHBORS points.
	ErrInsufficientMap = errors.New("planner: insufficient map")
)
