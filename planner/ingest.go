package planner

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ridgeline-robotics/graphplan/mapstore"
	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

// Ingest implements spec.md §4.4's ingest tick: validate, transform into
// the map frame, range-filter, optionally self-filter, merge, mark dirty,
// publish diagnostics.
func (p *Planner) Ingest(ctx context.Context, cloud *pointcloud.Cloud) error {
	if !p.ready() {
		return ErrNotReady
	}

	now := time.Now()
	if err := cloud.Validate(now, p.cfg.MaxCloudAge); err != nil {
		p.logger.Warnw("dropping invalid cloud", "err", err)
		return ErrStaleInput
	}

	xf, err := lookupWithTimeout(ctx, p.transforms, p.cfg.MapFrame, cloud.FrameID, cloud.Stamp, p.cfg.TransformTimeout)
	if err != nil {
		p.logger.Warnw("dropping cloud, transform unavailable", "frame", cloud.FrameID)
		return err
	}

	local, err := cloud.Positions()
	if err != nil {
		return errors.Wrap(err, "decoding cloud")
	}

	others := p.otherRobotPositions()
	world := make([]r3.Vector, 0, len(local))
	for _, lp := range local {
		if !pointcloud.Finite(lp) {
			continue
		}
		r := lp.Norm()
		if r < p.cfg.RangeMin || r > p.cfg.RangeMax {
			continue
		}
		wp := rotateByQuat(xf.Orientation, lp).Add(xf.Position)
		if p.cfg.FilterRobots && nearAny(wp, others, p.cfg.RobotFilterRadius) {
			continue
		}
		world = append(world, wp)
	}

	if len(world) < p.cfg.MinIngestPoints {
		p.logger.Debugw("ingest tick dropped, too few surviving points", "count", len(world))
		return ErrStaleInput
	}

	touched, err := p.mapStore.Merge(world, xf.Position)
	if err != nil {
		return errors.Wrap(err, "merging cloud")
	}
	p.mapStore.UpdateDirty(func(m mapstore.MapAccessor, dirty []int) { p.features.Process(m, dirty) })
	p.publishIngestDiagnostics(touched, xf.Position)
	return nil
}

func nearAny(p r3.Vector, others []r3.Vector, radius float64) bool {
	for _, o := range others {
		if p.Sub(o).Norm() <= radius {
			return true
		}
	}
	return false
}
