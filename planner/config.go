package planner

import (
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/ridgeline-robotics/graphplan/features"
	"github.com/ridgeline-robotics/graphplan/graphview"
	"github.com/ridgeline-robotics/graphplan/mapstore"
)

// Config aggregates every planner-level key of spec.md §6 plus the
// sub-configs of the three components it orchestrates.
type Config struct {
	MapFrame    string            `json:"map_frame"`
	RobotFrame  string            `json:"robot_frame"`
	RobotFrames map[string]string `json:"robot_frames"`

	MaxCloudAge      time.Duration `json:"max_cloud_age"`
	NumInputClouds   int           `json:"num_input_clouds"`
	InputQueueSize   int           `json:"input_queue_size"`
	FilterRobots     bool          `json:"filter_robots"`
	RobotFilterRadius float64      `json:"robot_filter_radius"`
	RangeMin         float64       `json:"range_min"`
	RangeMax         float64       `json:"range_max"`
	MinIngestPoints  int           `json:"min_ingest_points"`

	PlanningFreq         float64 `json:"planning_freq"`
	ViewpointsUpdateFreq float64 `json:"viewpoints_update_freq"`
	TransformTimeout     time.Duration `json:"transform_timeout"`
	KNeighbors           int     `json:"k_neighbors"`
	RandomStart          bool    `json:"random_start"`
	LocalMapWindow       float64 `json:"local_map_window"`

	MinVPDistance float64 `json:"min_vp_distance"`
	MaxVPDistance float64 `json:"max_vp_distance"`
	SelfFactor    float64 `json:"self_factor"`

	// StagingBoxEnabled/Min/Max expose the original implementation's
	// hard-coded world-frame staging-area coordinates as configuration,
	// per spec.md §9 Open Question (ii); the penalty is skipped entirely
	// when disabled.
	StagingBoxEnabled bool      `json:"staging_box_enabled"`
	StagingBoxMin     r3.Vector `json:"staging_box_min"`
	StagingBoxMax     r3.Vector `json:"staging_box_max"`

	MapStore mapstore.Config `json:"map_store"`
	Features features.Config `json:"features"`
	Graph    graphview.Config `json:"graph"`
}

// DefaultConfig returns the defaults referenced throughout spec.md §4.4
// and §6, translated from the original implementation's ROS parameters.
func DefaultConfig() Config {
	return Config{
		MapFrame:   "map",
		RobotFrame: "base_link",

		MaxCloudAge:       5 * time.Second,
		NumInputClouds:    1,
		InputQueueSize:    16,
		FilterRobots:      false,
		RobotFilterRadius: 1.0,
		RangeMin:          1.0,
		RangeMax:          25.0,
		MinIngestPoints:   16,

		PlanningFreq:         0.5,
		ViewpointsUpdateFreq: 1.0,
		TransformTimeout:     5 * time.Second,
		KNeighbors:           8,
		RandomStart:          false,
		LocalMapWindow:       20.0,

		MinVPDistance: 1.0,
		MaxVPDistance: 10.0,
		SelfFactor:    0.5,

		StagingBoxEnabled: false,
		StagingBoxMin:     r3.Vector{X: -60, Y: -30, Z: -30},
		StagingBoxMax:     r3.Vector{X: 0, Y: 30, Z: 30},

		MapStore: mapstore.DefaultConfig(),
		Features: features.DefaultConfig(),
		Graph:    graphview.DefaultConfig(),
	}
}

// Validate checks every sub-config and the planner-level keys, combining
// every failure found rather than stopping at the first (the teacher's
// go.uber.org/multierr aggregation pattern).
func (c Config) Validate(path string) error {
	var err error
	if c.MapFrame == "" {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "map_frame"))
	}
	if c.RobotFrame == "" {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "robot_frame"))
	}
	if c.PlanningFreq <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "planning_freq"))
	}
	if c.KNeighbors <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "k_neighbors"))
	}
	if c.MaxVPDistance <= c.MinVPDistance {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "max_vp_distance"))
	}

	err = multierr.Append(err, c.MapStore.Validate(path+".map_store"))
	err = multierr.Append(err, c.Features.Validate(path+".features"))
	err = multierr.Append(err, c.Graph.Validate(path+".graph"))
	return err
}
