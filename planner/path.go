package planner

import (
	"github.com/ridgeline-robotics/graphplan/graphview"
)

// tracePath reconstructs the path from vGoal back to vStart through
// sp.predecessor, reverses it, and prepends startPose, orienting each
// traced vertex per spec.md §4.4 step 7.
func tracePath(g *graphview.Graph, sp *sssp, vStart, vGoal int, startPose Pose) []Pose {
	var indices []int
	for v := vGoal; v >= 0; v = sp.predecessor[v] {
		indices = append(indices, v)
		if v == vStart {
			break
		}
	}
	for i, j := 0, len(indices)-1; i < j; i, j = i+1, j-1 {
		indices[i], indices[j] = indices[j], indices[i]
	}

	poses := make([]Pose, 0, len(indices)+1)
	poses = append(poses, startPose)
	prevPos := startPose.Position
	for _, v := range indices {
		pos := g.Position(v)
		normal := g.Normal(v)
		segment := pos.Sub(prevPos)
		poses = append(poses, Pose{
			Position:    pos,
			Orientation: poseOrientation(segment, normal),
		})
		prevPos = pos
	}
	return poses
}
