package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// PitchRoll decomposes a surface normal's tilt from vertical (world +z)
// into pitch (tilt about the y-axis) and roll (tilt about the x-axis),
// the same decomposition used by the traversability check of spec.md
// §4.2 step 5 and the Graph View's pose-cost term of §4.3.
func PitchRoll(normal r3.Vector) (pitch, roll float64) {
	pitch = math.Atan2(normal.X, normal.Z)
	roll = math.Atan2(normal.Y, normal.Z)
	return pitch, roll
}
