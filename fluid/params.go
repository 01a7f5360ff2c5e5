package fluid

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is matched by every configuration rejection.
var ErrInvalidConfig = errors.New("fluid: invalid configuration")

// ConfigError describes a rejected configuration value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fluid: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func invalid(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// Params holds the tunables of a running simulation.
// They are replaced as a whole through Solver.SetParams so a partially
// edited set never reaches a step.
type Params struct {
	Gravity      float32 // vertical acceleration, negative is down
	GravityScale float32

	FlipRatio        float32 // 1 = pure FLIP, 0 = pure PIC
	OverRelaxation   float32 // SOR factor, (0, 2)
	NumPressureIters int
	NumParticleIters int // particle separation passes per step

	VelocityDamping   float32 // applied after the grid-to-particle blend
	MaxVelocity       float32 // per component clamp
	VelocityThreshold float32 // speeds below this snap to rest

	WallRestitution      float32
	WallFriction         float32
	CollisionRestitution float32

	Density           float32 // fluid density, scales the pressure output
	DriftCompensation bool
	DriftStiffness    float32
}

// DefaultParams returns the tunables used when nothing else is configured.
func DefaultParams() Params {
	return Params{
		Gravity:              -9.81,
		GravityScale:         1.0,
		FlipRatio:            0.9,
		OverRelaxation:       1.9,
		NumPressureIters:     50,
		NumParticleIters:     2,
		VelocityDamping:      1.0,
		MaxVelocity:          50.0,
		VelocityThreshold:    1e-3,
		WallRestitution:      0.1,
		WallFriction:         0.05,
		CollisionRestitution: 0.1,
		Density:              1000.0,
		DriftCompensation:    true,
		DriftStiffness:       1.0,
	}
}

// Validate reports the first out-of-range tunable.
func (p Params) Validate() error {
	if !finite(p.Gravity) {
		return invalid("gravity", p.Gravity, "must be finite")
	}
	if !finite(p.GravityScale) {
		return invalid("gravity_scale", p.GravityScale, "must be finite")
	}
	if !finite(p.FlipRatio) || p.FlipRatio < 0 || p.FlipRatio > 1 {
		return invalid("flip_ratio", p.FlipRatio, "must be in [0, 1]")
	}
	// 2.0 and above diverges, so the upper bound is exclusive.
	if !finite(p.OverRelaxation) || p.OverRelaxation <= 0 || p.OverRelaxation >= 2 {
		return invalid("over_relaxation", p.OverRelaxation, "must be in (0, 2)")
	}
	if p.NumPressureIters < 1 {
		return invalid("num_pressure_iters", p.NumPressureIters, "must be at least 1")
	}
	if p.NumParticleIters < 0 {
		return invalid("num_particle_iters", p.NumParticleIters, "must not be negative")
	}
	if !finite(p.VelocityDamping) || p.VelocityDamping < 0 || p.VelocityDamping > 1 {
		return invalid("velocity_damping", p.VelocityDamping, "must be in [0, 1]")
	}
	if !finite(p.MaxVelocity) || p.MaxVelocity <= 0 {
		return invalid("max_velocity", p.MaxVelocity, "must be positive")
	}
	if !finite(p.VelocityThreshold) || p.VelocityThreshold < 0 {
		return invalid("velocity_threshold", p.VelocityThreshold, "must not be negative")
	}
	if !unit(p.WallRestitution) {
		return invalid("wall_restitution", p.WallRestitution, "must be in [0, 1]")
	}
	if !unit(p.WallFriction) {
		return invalid("wall_friction", p.WallFriction, "must be in [0, 1]")
	}
	if !unit(p.CollisionRestitution) {
		return invalid("collision_restitution", p.CollisionRestitution, "must be in [0, 1]")
	}
	if !finite(p.Density) || p.Density <= 0 {
		return invalid("density", p.Density, "must be positive")
	}
	if !finite(p.DriftStiffness) || p.DriftStiffness < 0 {
		return invalid("drift_stiffness", p.DriftStiffness, "must not be negative")
	}
	return nil
}

// validateDims checks grid geometry shared by New, Reconfigure and Resize.
func validateDims(numX, numY int, h float32) error {
	if numX <= 0 || numY <= 0 {
		return invalid("grid", fmt.Sprintf("%dx%d", numX, numY), "cell count must be positive")
	}
	// One interior cell inside the solid border ring is the smallest usable grid.
	if numX < 3 || numY < 3 {
		return invalid("grid", fmt.Sprintf("%dx%d", numX, numY), "needs at least 3 cells per axis")
	}
	if !finite(h) || h <= 0 {
		return invalid("h", h, "cell size must be positive")
	}
	return nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func unit(v float32) bool {
	return finite(v) && v >= 0 && v <= 1
}
