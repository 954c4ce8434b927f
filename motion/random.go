package motion

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/geometry"
)

// Random scatters particles along their random direction and lets them
// crawl through a curl-noise field.
type Random struct {
	Curl *CurlField

	Frequency float64 // Spatial frequency of the sample point
	Speed     float64 // Time scroll of the sample point
	PhaseStep float64 // Per-particle phase along z, times the permuted index

	Radial float32 // k3 = 8
	Swirl  float32 // k4 = 2
}

// NewRandom creates a random model from config.
func NewRandom(cfg config.RandomConfig) Random {
	return Random{
		Curl:      NewCurlField(cfg.Seed, cfg.Epsilon),
		Frequency: cfg.Frequency,
		Speed:     cfg.Speed,
		PhaseStep: cfg.PhaseStep,
		Radial:    float32(cfg.Radial),
		Swirl:     float32(cfg.Swirl),
	}
}

// SamplePoint returns where in the noise field particle p reads at time t.
func (m *Random) SamplePoint(p *geometry.Particle, t float64) (x, y, z float64) {
	drift := t * m.Speed
	x = float64(p.Origin.X())*m.Frequency + drift
	y = float64(p.Origin.Y())*m.Frequency + drift
	z = float64(p.Origin.Z())*m.Frequency + drift + float64(p.Permuted)*m.PhaseStep
	return x, y, z
}

// Displace returns the particle position under the random model.
func (m *Random) Displace(p *geometry.Particle, f Params) mgl32.Vec3 {
	amount := f.Progress * f.NoiseStrength
	if amount == 0 {
		return p.Origin
	}

	curl := m.Curl.At(m.SamplePoint(p, f.Time))
	return p.Origin.
		Add(p.Direction.Mul(amount * m.Radial)).
		Add(curl.Mul(amount * m.Swirl))
}
