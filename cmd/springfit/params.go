// Package main fits spring constants to a target settle time.
package main

import (
	"fmt"

	"github.com/pthm-cable/deconstruct/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
}

// ParamVector holds the stiffness and damping of one spring.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the search space around a configured spring.
func NewParamVector(s config.SpringConfig) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "stiffness", Min: 5, Max: 1000, Default: s.Stiffness},
			{Name: "damping", Min: 1, Max: 150, Default: s.Damping},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting values as a slice.
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
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// Apply returns the spring with clamped values substituted.
func (pv *ParamVector) Apply(s config.SpringConfig, values []float64) config.SpringConfig {
	c := pv.Clamp(values)
	s.Stiffness = c[0]
	s.Damping = c[1]
	return s
}

// springConfig selects a named spring from the smoothing config.
func springConfig(cfg *config.Config, name string) (*config.SpringConfig, error) {
	switch name {
	case "progress":
		return &cfg.Smoothing.Progress, nil
	case "mode":
		return &cfg.Smoothing.Mode, nil
	case "intensity":
		return &cfg.Smoothing.Intensity, nil
	}
	return nil, fmt.Errorf("unknown spring %q (want progress, mode or intensity)", name)
}
