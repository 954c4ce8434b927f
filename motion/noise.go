package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

// CurlField derives a swirling vector field from 3D OpenSimplex noise.
//
// Component i is the central difference of the noise along axis (i+1) mod 3:
//
//	curl = normalize(N(y+e)-N(y-e), N(z+e)-N(z-e), N(x+e)-N(x-e))
//
// with step e (0.001 by default). The result is a unit vector, or zero when
// the differences vanish.
type CurlField struct {
	noise opensimplex.Noise
	eps   float64
}

// NewCurlField creates a curl field over seeded noise.
func NewCurlField(seed int64, eps float64) *CurlField {
	if eps <= 0 {
		eps = 0.001
	}
	return &CurlField{noise: opensimplex.New(seed), eps: eps}
}

// Noise samples the scalar field, roughly in [-1, 1].
func (c *CurlField) Noise(x, y, z float64) float64 {
	return c.noise.Eval3(x, y, z)
}

// At returns the normalized curl vector at (x, y, z).
func (c *CurlField) At(x, y, z float64) mgl32.Vec3 {
	e := c.eps
	dy := c.noise.Eval3(x, y+e, z) - c.noise.Eval3(x, y-e, z)
	dz := c.noise.Eval3(x, y, z+e) - c.noise.Eval3(x, y, z-e)
	dx := c.noise.Eval3(x+e, y, z) - c.noise.Eval3(x-e, y, z)

	n := math.Sqrt(dy*dy + dz*dz + dx*dx)
	if !(n > 1e-12) || math.IsInf(n, 0) {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{float32(dy / n), float32(dz / n), float32(dx / n)}
}
