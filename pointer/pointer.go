// Package pointer tracks a smoothed pointer position and computes the
// repulsion it applies to nearby particles.
package pointer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/motion"
)

// Interactor holds the pointer target and its low-pass filtered position,
// both in normalized device coordinates [-1,1]².
type Interactor struct {
	Influence  float32
	MaxDist    float32
	DecayRate  float64 // Per second
	FollowRate float64 // Per second

	target mgl32.Vec2
	pos    mgl32.Vec2
}

// New creates an interactor at the center of the screen.
func New(cfg config.PointerConfig) *Interactor {
	return &Interactor{
		Influence:  float32(cfg.Influence),
		MaxDist:    float32(cfg.MaxDist),
		DecayRate:  cfg.DecayRate,
		FollowRate: cfg.FollowRate,
	}
}

// Step advances the filter by dt. When fresh is true the target jumps to
// input; otherwise it decays toward the center.
func (in *Interactor) Step(dt float64, input mgl32.Vec2, fresh bool) mgl32.Vec2 {
	if fresh {
		in.target = clampNDC(input)
	} else if dt > 0 {
		in.target = in.target.Mul(float32(math.Exp(-in.DecayRate * dt)))
	}
	if dt > 0 {
		alpha := float32(1 - math.Exp(-in.FollowRate*dt))
		in.pos = in.pos.Add(in.target.Sub(in.pos).Mul(alpha))
	}
	return in.pos
}

// Position returns the filtered pointer position.
func (in *Interactor) Position() mgl32.Vec2 { return in.pos }

// Target returns the unfiltered pointer target.
func (in *Interactor) Target() mgl32.Vec2 { return in.target }

// Reset returns the pointer to the center.
func (in *Interactor) Reset() {
	in.target = mgl32.Vec2{}
	in.pos = mgl32.Vec2{}
}

// Active reports whether Force can ever be non-zero for this configuration.
func (in *Interactor) Active(res mgl32.Vec2) bool {
	return in.MaxDist > 0 && in.Influence != 0 && res.X() > 0 && res.Y() > 0
}

// Force returns the XY displacement pushing a particle at xy away from the
// pointer. Falloff is smoothstep(MaxDist, 0, d) scaled by Influence and
// faded out as progress reaches 1.
func (in *Interactor) Force(xy, res mgl32.Vec2, progress float32) mgl32.Vec2 {
	if !in.Active(res) {
		return mgl32.Vec2{}
	}
	ndc := mgl32.Vec2{xy.X() / res.X() * 2, xy.Y() / res.Y() * 2}
	d := ndc.Sub(in.pos).Len()
	f := motion.Smoothstep(in.MaxDist, 0, d) * in.Influence * (1 - progress)
	if f == 0 {
		return mgl32.Vec2{}
	}
	anchor := mgl32.Vec2{in.pos.X() * res.X() * 0.5, in.pos.Y() * res.Y() * 0.5}
	return xy.Sub(anchor).Mul(f)
}

// Apply adds the pointer force to pos's XY components.
func (in *Interactor) Apply(pos mgl32.Vec3, res mgl32.Vec2, progress float32) mgl32.Vec3 {
	d := in.Force(pos.Vec2(), res, progress)
	return mgl32.Vec3{pos.X() + d.X(), pos.Y() + d.Y(), pos.Z()}
}

func clampNDC(v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{clamp1(v.X()), clamp1(v.Y())}
}

func clamp1(x float32) float32 {
	switch {
	case x != x:
		return 0
	case x < -1:
		return -1
	case x > 1:
		return 1
	}
	return x
}
