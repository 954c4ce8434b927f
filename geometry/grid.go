// Package geometry builds the static particle grid the motion models displace.
package geometry

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidDimension is returned when a grid is requested with a
// non-positive width or height.
var ErrInvalidDimension = errors.New("invalid grid dimension")

// Particle is one immutable grid point.
type Particle struct {
	Index     int        // Row-major grid index in [0, count)
	Row, Col  int        // Grid coordinates (gy, gx)
	UV        mgl32.Vec2 // Texture coordinate, v flipped so row 0 has v = 1
	Origin    mgl32.Vec3 // Rest position, centered layout, z = 0
	Direction mgl32.Vec3 // Unit vector uniform on the sphere
	Permuted  int        // Value from a permutation of [0, count)
}

// Grid is a width x height particle layout. It is never mutated after Build.
type Grid struct {
	Width, Height int
	Spacing       float32
	Particles     []Particle
}

// Build lays out width*height particles with the given spacing.
// rng seeds the permutation and the random directions; nil uses a
// time-based source.
func Build(width, height int, spacing float32, rng *rand.Rand) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	if !(spacing > 0) || math.IsInf(float64(spacing), 0) {
		return nil, fmt.Errorf("%w: spacing %v", ErrInvalidDimension, spacing)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	count := width * height
	g := &Grid{
		Width:     width,
		Height:    height,
		Spacing:   spacing,
		Particles: make([]Particle, count),
	}

	halfW := float32(width) * spacing / 2
	halfH := float32(height) * spacing / 2

	for gy := 0; gy < height; gy++ {
		for gx := 0; gx < width; gx++ {
			i := gy*width + gx
			g.Particles[i] = Particle{
				Index: i,
				Row:   gy,
				Col:   gx,
				UV:    mgl32.Vec2{axisUV(gx, width), 1 - axisUV(gy, height)},
				Origin: mgl32.Vec3{
					float32(gx)*spacing - halfW,
					halfH - float32(gy)*spacing,
					0,
				},
			}
		}
	}

	perm := Permutation(count, rng)
	for i := range g.Particles {
		g.Particles[i].Permuted = perm[i]
	}

	for i := range g.Particles {
		d, ok := SphereDirection(rng)
		if !ok {
			slog.Warn("degenerate direction sample", "index", i)
			d = mgl32.Vec3{0, 0, 1}
		}
		g.Particles[i].Direction = d
	}

	return g, nil
}

// axisUV maps a grid coordinate to [0,1]. A single cell maps to the middle.
func axisUV(i, n int) float32 {
	if n == 1 {
		return 0.5
	}
	return float32(i) / float32(n-1)
}

// Permutation returns a Fisher-Yates shuffle of [0, n).
func Permutation(n int, rng *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// SphereDirection samples a unit vector uniformly on the sphere.
// Returns false if the sample came out non-finite.
func SphereDirection(rng *rand.Rand) (mgl32.Vec3, bool) {
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(2*rng.Float64() - 1)

	x := math.Sin(phi) * math.Cos(theta)
	y := math.Sin(phi) * math.Sin(theta)
	z := math.Cos(phi)

	n := math.Sqrt(x*x + y*y + z*z)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{float32(x / n), float32(y / n), float32(z / n)}, true
}

// Count returns the number of particles.
func (g *Grid) Count() int {
	return len(g.Particles)
}

// At returns the particle at grid coordinate (row, col).
func (g *Grid) At(row, col int) *Particle {
	return &g.Particles[row*g.Width+col]
}

// Origins returns a fresh copy of every rest position in index order.
func (g *Grid) Origins() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(g.Particles))
	for i := range g.Particles {
		out[i] = g.Particles[i].Origin
	}
	return out
}

// Extent returns the half-size of the grid in world units.
func (g *Grid) Extent() (halfW, halfH float32) {
	return float32(g.Width) * g.Spacing / 2, float32(g.Height) * g.Spacing / 2
}
