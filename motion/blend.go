package motion

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/geometry"
)

// ErrDegenerateSample marks a particle whose computed position was not
// finite. It is logged, never returned from the frame loop.
var ErrDegenerateSample = errors.New("degenerate sample")

// Blender mixes the linear and random fields and pulls the result back
// toward rest by the residual cohesion factor.
type Blender struct {
	Linear   Linear
	Random   Random
	Residual float32
}

// NewBlender creates a blender with both models from config.
func NewBlender(cfg *config.Config) *Blender {
	return &Blender{
		Linear:   NewLinear(cfg.Linear),
		Random:   NewRandom(cfg.Random),
		Residual: Clamp01(float32(cfg.Blend.Residual)),
	}
}

// Blend returns lerp(linear, random, ModeBlend). The endpoints evaluate a
// single model so the other cannot leak in.
func (b *Blender) Blend(p *geometry.Particle, f Params) mgl32.Vec3 {
	switch {
	case f.ModeBlend <= 0:
		return b.Linear.Displace(p, f)
	case f.ModeBlend >= 1:
		return b.Random.Displace(p, f)
	}
	return Lerp(b.Linear.Displace(p, f), b.Random.Displace(p, f), f.ModeBlend)
}

// Cohere pulls pos toward the particle's rest position by
// residual * (1 - progress/2).
func (b *Blender) Cohere(pos mgl32.Vec3, p *geometry.Particle, progress float32) mgl32.Vec3 {
	if b.Residual == 0 {
		return pos
	}
	return Lerp(pos, p.Origin, b.Residual*(1-progress*0.5))
}

// Position is Blend followed by Cohere and the finiteness guard.
// ok is false when the particle was clamped to its origin.
func (b *Blender) Position(p *geometry.Particle, f Params) (pos mgl32.Vec3, ok bool) {
	return Guard(b.Cohere(b.Blend(p, f), p, f.Progress), p)
}

// Guard substitutes the rest position for a non-finite result.
func Guard(pos mgl32.Vec3, p *geometry.Particle) (mgl32.Vec3, bool) {
	if Finite(pos) {
		return pos, true
	}
	return p.Origin, false
}
