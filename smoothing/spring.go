// Package smoothing turns step-change control targets into continuous
// trajectories with mass-spring-damper integrators.
package smoothing

import (
	"math"

	"github.com/pthm-cable/deconstruct/config"
)

// maxSubsteps bounds the work done for one oversized dt.
const maxSubsteps = 1024

// Spring is a damped harmonic integrator tracking a scalar target:
//
//	a = (k(target - x) - c*v) / m;  v += a*dt;  x += v*dt
//
// Step splits dt into substeps no longer than MaxSubstep so irregular frame
// gaps do not destabilize stiff springs.
type Spring struct {
	Stiffness  float64 // k
	Damping    float64 // c
	Mass       float64 // m
	MaxSubstep float64 // Seconds; <= 0 integrates dt in one step

	X float64 // Current value
	V float64 // Current velocity
}

// NewSpring creates a spring at rest at zero.
func NewSpring(cfg config.SpringConfig, maxSubstep float64) *Spring {
	return &Spring{
		Stiffness:  cfg.Stiffness,
		Damping:    cfg.Damping,
		Mass:       cfg.Mass,
		MaxSubstep: maxSubstep,
	}
}

// Step advances the spring by dt seconds toward target and returns X.
// Non-positive or non-finite dt leaves the state untouched; a non-finite
// target is ignored for this step.
func (s *Spring) Step(dt, target float64) float64 {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return s.X
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		target = s.X
	}

	n := 1
	if s.MaxSubstep > 0 && dt > s.MaxSubstep {
		n = int(math.Ceil(dt / s.MaxSubstep))
		if n > maxSubsteps {
			n = maxSubsteps
		}
	}
	h := dt / float64(n)

	for i := 0; i < n; i++ {
		a := (s.Stiffness*(target-s.X) - s.Damping*s.V) / s.Mass
		s.V += a * h
		s.X += s.V * h
	}
	return s.X
}

// DampingRatio returns c / (2*sqrt(k*m)). Values >= 1 do not oscillate.
func (s *Spring) DampingRatio() float64 {
	km := s.Stiffness * s.Mass
	if km <= 0 {
		return math.Inf(1)
	}
	return s.Damping / (2 * math.Sqrt(km))
}

// Settled reports whether the spring is within tol of target and nearly still.
func (s *Spring) Settled(target, tol float64) bool {
	return math.Abs(s.X-target) <= tol && math.Abs(s.V) <= tol
}

// Reset places the spring at x with zero velocity.
func (s *Spring) Reset(x float64) {
	s.X = x
	s.V = 0
}
