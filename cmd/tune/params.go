package main

import (
	"github.com/pthm-cable/flip/fluid"
)

// ParamSpec defines a single tunable solver parameter.
type ParamSpec struct {
	Name    string  // column name in the eval log
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
	apply   func(p *fluid.Params, v float64)
}

// ParamVector holds the parameters a scenario tunes.
type ParamVector struct {
	Specs []ParamSpec
}

var (
	overRelaxation = ParamSpec{Name: "over_relaxation", Min: 1.0, Max: 1.99, Default: 1.9,
		apply: func(p *fluid.Params, v float64) { p.OverRelaxation = float32(v) }}
	driftStiffness = ParamSpec{Name: "drift_stiffness", Min: 0, Max: 5, Default: 1.0,
		apply: func(p *fluid.Params, v float64) { p.DriftStiffness = float32(v) }}
)

// NewParamVector returns the parameters tuned by scenario. The pressure
// scenario only sees the over-relaxation factor; the dam break also tunes
// drift compensation.
func NewParamVector(scenario string) *ParamVector {
	if scenario == scenarioDamBreak {
		return &ParamVector{Specs: []ParamSpec{overRelaxation, driftStiffness}}
	}
	return &ParamVector{Specs: []ParamSpec{overRelaxation}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Apply writes clamped values into p.
func (pv *ParamVector) Apply(p *fluid.Params, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].apply(p, v)
	}
}
