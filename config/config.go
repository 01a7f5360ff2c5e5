// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flip/fluid"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Grid        GridConfig        `yaml:"grid"`
	Container   ContainerConfig   `yaml:"container"`
	Particles   ParticlesConfig   `yaml:"particles"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Obstacles   ObstaclesConfig   `yaml:"obstacles"`
	Interaction InteractionConfig `yaml:"interaction"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GridConfig holds the staggered grid geometry.
type GridConfig struct {
	NumX       int     `yaml:"num_x"`
	NumY       int     `yaml:"num_y"`
	CellSize   float64 `yaml:"cell_size"`
	TotalCells int     `yaml:"total_cells"` // optional consistency check, 0 = skip
}

// ContainerConfig holds the outer boundary shape.
type ContainerConfig struct {
	Shape   string  `yaml:"shape"`    // "box" or "circle"
	CenterX float64 `yaml:"center_x"` // 0 = domain center
	CenterY float64 `yaml:"center_y"`
	Radius  float64 `yaml:"radius"` // 0 = 45% of the shorter side
}

// ParticlesConfig holds the initial particle layout.
type ParticlesConfig struct {
	Radius  float64 `yaml:"radius"`  // 0 = 0.3 * cell_size
	Spacing float64 `yaml:"spacing"` // 0 = twice the radius
	Layout  string  `yaml:"layout"`  // "block" or "ring"

	// Block layout, as fractions of the domain.
	BlockWidth  float64 `yaml:"block_width"`
	BlockHeight float64 `yaml:"block_height"`

	// Ring layout, as fractions of the container radius.
	RingInner float64 `yaml:"ring_inner"`
	RingOuter float64 `yaml:"ring_outer"`
}

// PhysicsConfig holds the solver tunables.
type PhysicsConfig struct {
	DT                   float64 `yaml:"dt"`
	Substeps             int     `yaml:"substeps"`
	Gravity              float64 `yaml:"gravity"`
	GravityScale         float64 `yaml:"gravity_scale"`
	FlipRatio            float64 `yaml:"flip_ratio"`
	OverRelaxation       float64 `yaml:"over_relaxation"`
	PressureIters        int     `yaml:"pressure_iters"`
	ParticleIters        int     `yaml:"particle_iters"`
	VelocityDamping      float64 `yaml:"velocity_damping"`
	MaxVelocity          float64 `yaml:"max_velocity"`
	VelocityThreshold    float64 `yaml:"velocity_threshold"`
	WallRestitution      float64 `yaml:"wall_restitution"`
	WallFriction         float64 `yaml:"wall_friction"`
	CollisionRestitution float64 `yaml:"collision_restitution"`
	Density              float64 `yaml:"density"`
	DriftCompensation    bool    `yaml:"drift_compensation"`
	DriftStiffness       float64 `yaml:"drift_stiffness"`
}

// ObstaclesConfig holds the drifting obstacle population.
type ObstaclesConfig struct {
	Count  int     `yaml:"count"`
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed"` // initial speed, world units per second
	Seed   int64   `yaml:"seed"`
}

// InteractionConfig holds mouse interaction parameters.
type InteractionConfig struct {
	ForceRadius    float64 `yaml:"force_radius"`
	ForceStrength  float64 `yaml:"force_strength"` // acceleration per world unit of drag per second
	ObstacleRadius float64 `yaml:"obstacle_radius"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // seconds of simulated time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Physics.DT as float32
	SubDT32   float32 // DT32 / Substeps
	ScreenW32 float32
	ScreenH32 float32
	WorldW32  float32 // NumX * CellSize
	WorldH32  float32 // NumY * CellSize
	Radius32  float32 // effective particle radius
	Spacing32 float32 // effective seeding spacing
	Container fluid.Container
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated
// against the solver's rules before it is returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	if c.Physics.Substeps < 1 {
		c.Physics.Substeps = 1
	}
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.SubDT32 = c.Derived.DT32 / float32(c.Physics.Substeps)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.WorldW32 = float32(float64(c.Grid.NumX) * c.Grid.CellSize)
	c.Derived.WorldH32 = float32(float64(c.Grid.NumY) * c.Grid.CellSize)

	radius := c.Particles.Radius
	if radius == 0 {
		radius = 0.3 * c.Grid.CellSize
	}
	c.Derived.Radius32 = float32(radius)
	spacing := c.Particles.Spacing
	if spacing == 0 {
		spacing = 2 * radius
	}
	c.Derived.Spacing32 = float32(spacing)

	switch c.Container.Shape {
	case "", "box":
		c.Derived.Container = fluid.BoxContainer()
	case "circle":
		cx, cy := c.Container.CenterX, c.Container.CenterY
		if cx == 0 && cy == 0 {
			cx, cy = float64(c.Derived.WorldW32)/2, float64(c.Derived.WorldH32)/2
		}
		r := c.Container.Radius
		if r == 0 {
			r = 0.45 * math.Min(float64(c.Derived.WorldW32), float64(c.Derived.WorldH32))
		}
		c.Derived.Container = fluid.CircleContainer(float32(cx), float32(cy), float32(r))
	default:
		return fmt.Errorf("container shape %q: %w", c.Container.Shape, fluid.ErrInvalidConfig)
	}
	return nil
}

// Validate checks the values the solver will see, plus the layout and
// telemetry settings it does not know about.
func (c *Config) Validate() error {
	if err := c.FluidConfig().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Physics.DT <= 0 || math.IsNaN(c.Physics.DT) {
		return fmt.Errorf("config: physics.dt %v: %w", c.Physics.DT, fluid.ErrInvalidConfig)
	}
	switch c.Particles.Layout {
	case "block", "ring":
	default:
		return fmt.Errorf("config: particles.layout %q: %w", c.Particles.Layout, fluid.ErrInvalidConfig)
	}
	if c.Derived.Spacing32 <= 0 {
		return fmt.Errorf("config: particles.spacing %v: %w", c.Particles.Spacing, fluid.ErrInvalidConfig)
	}
	if c.Obstacles.Count < 0 || (c.Obstacles.Count > 0 && c.Obstacles.Radius <= 0) {
		return fmt.Errorf("config: obstacles need a positive radius: %w", fluid.ErrInvalidConfig)
	}
	if c.Interaction.ForceRadius <= 0 {
		return fmt.Errorf("config: interaction.force_radius %v: %w", c.Interaction.ForceRadius, fluid.ErrInvalidConfig)
	}
	return nil
}

// Params converts the physics section into solver tunables.
func (c *Config) Params() fluid.Params {
	p := c.Physics
	return fluid.Params{
		Gravity:              float32(p.Gravity),
		GravityScale:         float32(p.GravityScale),
		FlipRatio:            float32(p.FlipRatio),
		OverRelaxation:       float32(p.OverRelaxation),
		NumPressureIters:     p.PressureIters,
		NumParticleIters:     p.ParticleIters,
		VelocityDamping:      float32(p.VelocityDamping),
		MaxVelocity:          float32(p.MaxVelocity),
		VelocityThreshold:    float32(p.VelocityThreshold),
		WallRestitution:      float32(p.WallRestitution),
		WallFriction:         float32(p.WallFriction),
		CollisionRestitution: float32(p.CollisionRestitution),
		Density:              float32(p.Density),
		DriftCompensation:    p.DriftCompensation,
		DriftStiffness:       float32(p.DriftStiffness),
	}
}

// SetParams writes solver tunables back into the physics section so a run
// snapshot reflects what was used.
func (c *Config) SetParams(p fluid.Params) {
	c.Physics.Gravity = float64(p.Gravity)
	c.Physics.GravityScale = float64(p.GravityScale)
	c.Physics.FlipRatio = float64(p.FlipRatio)
	c.Physics.OverRelaxation = float64(p.OverRelaxation)
	c.Physics.PressureIters = p.NumPressureIters
	c.Physics.ParticleIters = p.NumParticleIters
	c.Physics.VelocityDamping = float64(p.VelocityDamping)
	c.Physics.MaxVelocity = float64(p.MaxVelocity)
	c.Physics.VelocityThreshold = float64(p.VelocityThreshold)
	c.Physics.WallRestitution = float64(p.WallRestitution)
	c.Physics.WallFriction = float64(p.WallFriction)
	c.Physics.CollisionRestitution = float64(p.CollisionRestitution)
	c.Physics.Density = float64(p.Density)
	c.Physics.DriftCompensation = p.DriftCompensation
	c.Physics.DriftStiffness = float64(p.DriftStiffness)
}

// FluidConfig builds the solver construction config.
func (c *Config) FluidConfig() fluid.Config {
	return fluid.Config{
		NumX:           c.Grid.NumX,
		NumY:           c.Grid.NumY,
		H:              float32(c.Grid.CellSize),
		TotalCells:     c.Grid.TotalCells,
		Params:         c.Params(),
		Container:      c.Derived.Container,
		ParticleRadius: c.Derived.Radius32,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
