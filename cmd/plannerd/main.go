// Command plannerd wires a Planner to a stub transform source and robot
// tracker and runs its recurring activities until interrupted. It does not
// speak any wire protocol: message transport is an explicit external
// collaborator of spec.md §1, out of scope for the core this binary
// demonstrates.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/logging"
	"github.com/ridgeline-robotics/graphplan/planner"
	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

// staticTransforms always resolves the robot frame to a fixed origin pose,
// enough to exercise the ingest and viewpoint ticks without a real
// transform-frame bookkeeping system behind it.
type staticTransforms struct {
	pose planner.Pose
}

func (s staticTransforms) Lookup(_ context.Context, _, _ string, _ time.Time) (planner.Pose, error) {
	return s.pose, nil
}

// noRobots reports no other robots sharing the map, the single-robot
// demo configuration.
type noRobots struct{}

func (noRobots) OtherPositions() []r3.Vector { return nil }

// logPublisher logs path length on every publish and reports no
// subscribers, so the planner skips building diagnostic clouds nothing
// downstream would consume.
type logPublisher struct {
	logger logging.Logger
}

func (p logPublisher) HasSubscribers(string) bool { return false }

func (p logPublisher) PublishCloud(string, pointcloud.Cloud) {}

func (p logPublisher) PublishPath(path []planner.Pose) {
	p.logger.Infow("planned path", "poses", len(path))
}

func main() {
	logger := logging.New("plannerd")
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := planner.DefaultConfig()
	transforms := staticTransforms{pose: planner.Pose{Position: r3.Vector{}}}

	p := planner.New(cfg, logger, transforms, noRobots{}, logPublisher{logger: logger.Named("publisher")})
	if err := p.WaitForPeers(ctx, 0, 200*time.Millisecond, time.Second); err != nil {
		logger.Errorw("waiting for peers", "err", err)
		return
	}
	p.Start()
	defer p.Close() //nolint:errcheck

	logger.Infow("plannerd running", "planning_freq", cfg.PlanningFreq)
	<-ctx.Done()
	logger.Infow("plannerd shutting down")
}
