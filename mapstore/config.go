package mapstore

import "go.viam.com/utils"

// Config holds the merge/index parameters of spec.md §6 that govern the
// Map Store's own behavior (everything else in that table belongs to a
// different component's Config type).
type Config struct {
	PointsMinDist      float64 `json:"points_min_dist"`
	NeighborhoodRadius float64 `json:"neighborhood_radius"`
	NeighborhoodKNN    int     `json:"neighborhood_knn"`
	MinEmptyCos        float64 `json:"min_empty_cos"`
	EmptyRatio         float64 `json:"empty_ratio"`
	ViewpointHorizon   int     `json:"viewpoint_horizon"`
}

// DefaultConfig returns the Map Store defaults taken from the original
// implementation's constructor initializers.
func DefaultConfig() Config {
	return Config{
		PointsMinDist:      0.2,
		NeighborhoodRadius: 0.5,
		NeighborhoodKNN:    12,
		MinEmptyCos:        0.9,
		EmptyRatio:         2,
		ViewpointHorizon:   21600,
	}
}

// Validate checks the Map Store config is usable, in the style of the
// teacher's services.Config.Validate.
func (c Config) Validate(path string) error {
	if c.PointsMinDist <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "points_min_dist")
	}
	if c.NeighborhoodRadius <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "neighborhood_radius")
	}
	if c.NeighborhoodKNN <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "neighborhood_knn")
	}
	return nil
}
