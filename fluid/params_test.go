package fluid

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParamsValidate(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name  string
		edit  func(*Params)
		field string
	}{
		{"flip above one", func(p *Params) { p.FlipRatio = 1.5 }, "flip_ratio"},
		{"flip negative", func(p *Params) { p.FlipRatio = -0.1 }, "flip_ratio"},
		{"omega zero", func(p *Params) { p.OverRelaxation = 0 }, "over_relaxation"},
		{"omega two", func(p *Params) { p.OverRelaxation = 2 }, "over_relaxation"},
		{"no pressure iters", func(p *Params) { p.NumPressureIters = 0 }, "num_pressure_iters"},
		{"negative particle iters", func(p *Params) { p.NumParticleIters = -1 }, "num_particle_iters"},
		{"damping above one", func(p *Params) { p.VelocityDamping = 1.01 }, "velocity_damping"},
		{"zero max velocity", func(p *Params) { p.MaxVelocity = 0 }, "max_velocity"},
		{"nan gravity", func(p *Params) { p.Gravity = nan }, "gravity"},
		{"friction above one", func(p *Params) { p.WallFriction = 2 }, "wall_friction"},
		{"zero density", func(p *Params) { p.Density = 0 }, "density"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.edit(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestParamsValidateBoundaries(t *testing.T) {
	p := DefaultParams()
	p.FlipRatio = 0
	p.VelocityDamping = 0
	assert.NoError(t, p.Validate())

	p.FlipRatio = 1
	p.VelocityDamping = 1
	p.OverRelaxation = 1.99
	p.NumParticleIters = 0
	assert.NoError(t, p.Validate())
}

func TestNewRejectsBadConfig(t *testing.T) {
	base := func() Config {
		return Config{NumX: 10, NumY: 10, H: 1, Params: DefaultParams()}
	}
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"zero h", func(c *Config) { c.H = 0 }},
		{"negative h", func(c *Config) { c.H = -1 }},
		{"flip 1.5", func(c *Config) { c.Params.FlipRatio = 1.5 }},
		{"zero pressure iters", func(c *Config) { c.Params.NumPressureIters = 0 }},
		{"zero cells", func(c *Config) { c.NumX = 0 }},
		{"too narrow", func(c *Config) { c.NumY = 2 }},
		{"total mismatch", func(c *Config) { c.TotalCells = 99 }},
		{"radius above h", func(c *Config) { c.ParticleRadius = 1.5 }},
		{"circle outside grid", func(c *Config) { c.Container = CircleContainer(20, 5, 3) }},
		{"circle zero radius", func(c *Config) { c.Container = CircleContainer(5, 5, 0) }},
		{"circle within particle", func(c *Config) { c.Container = CircleContainer(5, 5, 0.3) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.edit(&cfg)
			s, err := New(cfg)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestNewAcceptsMatchingTotal(t *testing.T) {
	s, err := New(Config{NumX: 8, NumY: 6, H: 0.5, TotalCells: 48, Params: DefaultParams()})
	require.NoError(t, err)
	assert.Equal(t, 48, s.Grid().Len())
	assert.InDelta(t, 0.15, s.Particles().Radius, 1e-6)
}

func TestSetParamsKeepsPreviousOnError(t *testing.T) {
	s := newTestSolver(t, 10, 10, 1)
	before := s.Params()

	bad := before
	bad.OverRelaxation = 2
	require.Error(t, s.SetParams(bad))
	assert.Equal(t, before, s.Params())

	good := before
	good.FlipRatio = 0.5
	require.NoError(t, s.SetParams(good))
	assert.Equal(t, float32(0.5), s.Params().FlipRatio)
}

func TestConfigErrorMessage(t *testing.T) {
	err := invalid("h", float32(0), "cell size must be positive")
	assert.Equal(t, "fluid: invalid h (0): cell size must be positive", err.Error())
}
