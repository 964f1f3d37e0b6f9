package planner

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

// Publisher is the diagnostic/path sink the planner writes to. PublishCloud
// is only called for a topic when HasSubscribers reports true for it
// (spec.md §6, "all optional, emitted only when a subscriber exists").
type Publisher interface {
	HasSubscribers(topic string) bool
	PublishCloud(topic string, cloud pointcloud.Cloud)
	PublishPath(path []Pose)
}

const (
	topicFullMap         = "full_map"
	topicDirtyMap        = "dirty_map"
	topicLocalMap        = "local_map"
	topicViewpoints      = "viewpoints"
	topicOtherViewpoints = "other_viewpoints"
	topicNormalLabel     = "normal_label"
	topicFinalLabel      = "final_label"
	topicPathCost        = "path_cost"
	topicUtility         = "utility"
	topicFinalCost       = "final_cost"
)

// publishIngestDiagnostics emits the full/dirty/local map and viewpoint
// clouds of spec.md §6, each gated on a subscriber existing. dirty is the
// set of indices touched by the ingest tick's merge.
func (p *Planner) publishIngestDiagnostics(dirty []int, origin r3.Vector) {
	if p.publisher == nil || p.mapStore.Size() == 0 {
		return
	}
	now := time.Now()

	if p.publisher.HasSubscribers(topicFullMap) {
		p.publisher.PublishCloud(topicFullMap, p.labeledCloud(now, allIndices(p.mapStore.Size())))
	}
	if len(dirty) > 0 && p.publisher.HasSubscribers(topicDirtyMap) {
		p.publisher.PublishCloud(topicDirtyMap, p.labeledCloud(now, dirty))
	}
	if p.publisher.HasSubscribers(topicLocalMap) {
		local := p.mapStore.WithinRadius(origin, p.cfg.LocalMapWindow)
		p.publisher.PublishCloud(topicLocalMap, p.labeledCloud(now, local))
	}
	if p.publisher.HasSubscribers(topicNormalLabel) || p.publisher.HasSubscribers(topicFinalLabel) {
		p.publishLabelClouds(now)
	}
	if p.publisher.HasSubscribers(topicViewpoints) || p.publisher.HasSubscribers(topicOtherViewpoints) {
		p.publishViewpointClouds(now)
	}
}

// publishPlanDiagnostics emits the plan-derived diagnostic channels of the
// original implementation (path_cost, utility == reward, final_cost ==
// relative_cost), populated onto every Point by selectExplorationGoal or
// left at path_cost-only by goal-directed mode.
func (p *Planner) publishPlanDiagnostics() {
	if p.publisher == nil {
		return
	}
	now := time.Now()
	n := p.mapStore.Size()
	idxs := allIndices(n)

	if p.publisher.HasSubscribers(topicPathCost) {
		p.publisher.PublishCloud(topicPathCost, p.scalarCloud(now, idxs, "path_cost", func(pt *pointcloud.Point) float64 { return pt.PathCost }))
	}
	if p.publisher.HasSubscribers(topicUtility) {
		p.publisher.PublishCloud(topicUtility, p.scalarCloud(now, idxs, "utility", func(pt *pointcloud.Point) float64 { return pt.Reward }))
	}
	if p.publisher.HasSubscribers(topicFinalCost) {
		p.publisher.PublishCloud(topicFinalCost, p.scalarCloud(now, idxs, "final_cost", func(pt *pointcloud.Point) float64 { return pt.RelativeCost }))
	}
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (p *Planner) labeledCloud(now time.Time, idxs []int) pointcloud.Cloud {
	positions := make([]r3.Vector, len(idxs))
	flags := make([]float32, len(idxs))
	for i, v := range idxs {
		pt := p.mapStore.PointAt(v)
		positions[i] = pt.Position
		flags[i] = float32(pt.Flags)
	}
	return pointcloud.EncodeCloud(p.cfg.MapFrame, now, positions, map[string][]float32{"flags": flags})
}

func (p *Planner) scalarCloud(now time.Time, idxs []int, name string, get func(*pointcloud.Point) float64) pointcloud.Cloud {
	positions := make([]r3.Vector, len(idxs))
	values := make([]float32, len(idxs))
	for i, v := range idxs {
		pt := p.mapStore.PointAt(v)
		positions[i] = pt.Position
		values[i] = float32(get(pt))
	}
	return pointcloud.EncodeCloud(p.cfg.MapFrame, now, positions, map[string][]float32{name: values})
}

func (p *Planner) publishLabelClouds(now time.Time) {
	n := p.mapStore.Size()
	idxs := allIndices(n)
	positions := make([]r3.Vector, n)
	normalLabel := make([]float32, n)
	finalLabel := make([]float32, n)
	for i, v := range idxs {
		pt := p.mapStore.PointAt(v)
		positions[i] = pt.Position
		if pt.HasNormal() {
			normalLabel[i] = 1
		}
		finalLabel[i] = float32(pt.Flags)
	}
	if p.publisher.HasSubscribers(topicNormalLabel) {
		p.publisher.PublishCloud(topicNormalLabel, pointcloud.EncodeCloud(p.cfg.MapFrame, now, positions, map[string][]float32{"normal_label": normalLabel}))
	}
	if p.publisher.HasSubscribers(topicFinalLabel) {
		p.publisher.PublishCloud(topicFinalLabel, pointcloud.EncodeCloud(p.cfg.MapFrame, now, positions, map[string][]float32{"final_label": finalLabel}))
	}
}

func (p *Planner) publishViewpointClouds(now time.Time) {
	own, other := p.mapStore.ViewpointSnapshot()
	if p.publisher.HasSubscribers(topicViewpoints) {
		p.publisher.PublishCloud(topicViewpoints, pointcloud.EncodeCloud(p.cfg.MapFrame, now, own, nil))
	}
	if p.publisher.HasSubscribers(topicOtherViewpoints) {
		p.publisher.PublishCloud(topicOtherViewpoints, pointcloud.EncodeCloud(p.cfg.MapFrame, now, other, nil))
	}
}
