package shading

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/deconstruct/motion"
)

var (
	gray = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

	linearTint = colorful.Color{R: 0.7, G: 0.9, B: 1.0}
	linearGlow = colorful.Color{R: 0.0, G: 0.1, B: 0.2}
	randomTint = colorful.Color{R: 1.0, G: 0.8, B: 0.6}
	randomGlow = colorful.Color{R: 0.3, G: 0.1, B: 0.0}
)

// Grade is the color treatment: a cool tint for the linear model, a warm
// one for the random model, both glowing with progress, followed by
// contrast and vibrance.
type Grade struct {
	Contrast float64 // colorIntensity; 1 leaves the color unchanged
	Vibrance float64
}

// DefaultGrade returns the grade for a color intensity.
func DefaultGrade(intensity float64) Grade {
	return Grade{Contrast: intensity, Vibrance: 0.3}
}

// Apply grades a texture color for the given progress and mode blend.
func (g Grade) Apply(tex colorful.Color, progress, mode float32) colorful.Color {
	glow := float64(motion.Smoothstep(0, 1, progress))

	lin := add(mul(tex, linearTint), scale(linearGlow, glow))
	rnd := add(mul(tex, randomTint), scale(randomGlow, glow))
	c := lin.BlendRgb(rnd, float64(motion.Clamp01(mode)))

	c = gray.BlendRgb(c, g.Contrast)
	lum := c.R*0.299 + c.G*0.587 + c.B*0.114
	c = colorful.Color{R: lum, G: lum, B: lum}.BlendRgb(c, g.Vibrance+1)
	return c.Clamped()
}

// RGBA8 converts a graded color and alpha in [0,1] to 8-bit channels.
func RGBA8(c colorful.Color, alpha float64) (r, g, b, a uint8) {
	r, g, b = c.Clamped().RGB255()
	switch {
	case !(alpha > 0):
		a = 0
	case alpha >= 1:
		a = 255
	default:
		a = uint8(alpha*255 + 0.5)
	}
	return r, g, b, a
}

func mul(a, b colorful.Color) colorful.Color {
	return colorful.Color{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B}
}

func add(a, b colorful.Color) colorful.Color {
	return colorful.Color{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B}
}

func scale(a colorful.Color, s float64) colorful.Color {
	return colorful.Color{R: a.R * s, G: a.G * s, B: a.B * s}
}

// sizeAttenuation is the perspective point-size reference: a point at
// depth 300 has its base size.
const sizeAttenuation = 300

// Point size bounds in pixels.
const (
	MinPointSize = 1
	MaxPointSize = 20
)

// PointSize returns a particle's screen size in pixels: base size times
// pixel ratio, attenuated by view depth and shrunk by 30% at full progress.
func PointSize(base, pixelRatio, progress, depth float32) float32 {
	att := float32(1)
	if depth > 0 {
		att = sizeAttenuation / depth
	}
	s := base * pixelRatio * att * (1 - progress*0.3)
	if !(s > MinPointSize) {
		return MinPointSize
	}
	if s > MaxPointSize {
		return MaxPointSize
	}
	return s
}
