package graphview

import "go.viam.com/utils"

// Config holds the Graph View's adjacency and edge-cost parameters
// (spec.md §4.3, §6).
type Config struct {
	NeighborhoodRadius float64 `json:"neighborhood_radius"`
	NeighborhoodKNN    int     `json:"neighborhood_knn"`
	MaxSpeed           float64 `json:"max_speed"`
	MaxRoll            float64 `json:"max_roll"`
	MaxPitch           float64 `json:"max_pitch"`
	MaxAngularRate     float64 `json:"max_angular_rate"`
}

// DefaultConfig mirrors the locomotion limits of the original
// implementation's ROS parameter defaults.
func DefaultConfig() Config {
	return Config{
		NeighborhoodRadius: 0.5,
		NeighborhoodKNN:    12,
		MaxSpeed:           1.0,
		MaxRoll:            0.35,
		MaxPitch:           0.524,
		MaxAngularRate:     1.0,
	}
}

// Validate checks the Graph View config is usable.
func (c Config) Validate(path string) error {
	if c.MaxSpeed <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_speed")
	}
	if c.MaxAngularRate <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_angular_rate")
	}
	if c.MaxRoll <= 0 || c.MaxPitch <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_roll/max_pitch")
	}
	return nil
}
