// Package motion implements the two displacement models and their blend.
package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/geometry"
)

// Params is the per-frame input shared by every particle.
type Params struct {
	Time           float64 // Seconds since engine start
	Progress       float32 // Dispersion in [0,1]
	ModeBlend      float32 // 0 = linear, 1 = random
	LinearStrength float32
	NoiseStrength  float32
}

// Linear is the directional "glitch" model: horizontal slices jump sideways
// and forward while the whole image expands and drifts along Direction.
type Linear struct {
	Direction mgl32.Vec3

	WaveRowFreq  float64 // a
	WaveTimeFreq float64 // b
	WaveRowCos   float64 // c
	GlitchLow    float32
	GlitchHigh   float32

	// GlitchX (k1 = 2) and GlitchZ (k2 = 5) scale the slice offset.
	GlitchX float32
	GlitchZ float32

	Scale         float32
	Ripple        float32
	RippleColFreq float64
}

// NewLinear creates a linear model from config.
func NewLinear(cfg config.LinearConfig) Linear {
	d := cfg.Direction
	return Linear{
		Direction:     mgl32.Vec3{float32(d[0]), float32(d[1]), float32(d[2])},
		WaveRowFreq:   cfg.WaveRowFreq,
		WaveTimeFreq:  cfg.WaveTimeFreq,
		WaveRowCos:    cfg.WaveRowCos,
		GlitchLow:     float32(cfg.GlitchLow),
		GlitchHigh:    float32(cfg.GlitchHigh),
		GlitchX:       float32(cfg.GlitchX),
		GlitchZ:       float32(cfg.GlitchZ),
		Scale:         float32(cfg.Scale),
		Ripple:        float32(cfg.Ripple),
		RippleColFreq: cfg.RippleColFreq,
	}
}

// GlitchStrength returns how far row is shifted at time t.
func (m *Linear) GlitchStrength(row int, f Params) float32 {
	r := float64(row)
	wave := math.Sin(r*m.WaveRowFreq+f.Time*m.WaveTimeFreq) * math.Cos(r*m.WaveRowCos)
	return Smoothstep(m.GlitchLow, m.GlitchHigh, abs32(float32(wave))) * f.LinearStrength * f.Progress
}

// Displace returns the particle position under the linear model.
func (m *Linear) Displace(p *geometry.Particle, f Params) mgl32.Vec3 {
	o := p.Origin
	prog := f.Progress
	glitch := m.GlitchStrength(p.Row, f)
	expand := 1 + m.Scale*prog
	ripple := float32(math.Sin(float64(p.Col)*m.RippleColFreq+f.Time)) * prog * m.Ripple

	return mgl32.Vec3{
		(o.X()+glitch*m.GlitchX)*expand + ripple,
		o.Y()*expand + m.Direction.Y()*prog*f.LinearStrength*0.5,
		o.Z() + m.Direction.Z()*prog*f.LinearStrength + glitch*m.GlitchZ,
	}
}
