package shading

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/deconstruct/geometry"
)

// quadrants returns a 4x4 image: red top-left, green top-right,
// blue bottom-left, transparent black bottom-right.
func quadrants() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			var c color.NRGBA
			switch {
			case x < 2 && y < 2:
				c = color.NRGBA{R: 255, A: 255}
			case y < 2:
				c = color.NRGBA{G: 255, A: 255}
			case x < 2:
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestTextureUVOrientation(t *testing.T) {
	tex := NewTexture(quadrants())

	c, a := tex.At(0, 1)
	assert.Equal(t, colorful.Color{R: 1}, c, "v = 1 is the top row")
	assert.Equal(t, 1.0, a)

	c, _ = tex.At(1, 1)
	assert.Equal(t, colorful.Color{G: 1}, c)

	c, _ = tex.At(0, 0)
	assert.Equal(t, colorful.Color{B: 1}, c)

	_, a = tex.At(1, 0)
	assert.Equal(t, 0.0, a)
}

func TestSampleGridMatchesCorners(t *testing.T) {
	g, err := geometry.Build(2, 2, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	sw, err := SampleGrid(g, NewTexture(quadrants()))
	require.NoError(t, err)
	require.Len(t, sw, 4)

	// Row 0 is the top of the grid
	assert.InDelta(t, 1, sw[g.At(0, 0).Index].Color.R, 0.05)
	assert.InDelta(t, 1, sw[g.At(0, 1).Index].Color.G, 0.05)
	assert.InDelta(t, 1, sw[g.At(1, 0).Index].Color.B, 0.05)
	assert.InDelta(t, 0, sw[g.At(1, 1).Index].A, 0.05)
}

func TestSampleGridMissingTexture(t *testing.T) {
	g, err := geometry.Build(3, 2, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	sw, err := SampleGrid(g, nil)
	assert.Equal(t, ErrMissingTexture, err)
	require.Len(t, sw, 6)
	for _, s := range sw {
		assert.Equal(t, Swatch{Color: white, A: 1}, s)
	}
}

func TestLoadTexture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, quadrants()))
	require.NoError(t, f.Close())

	tex, err := LoadTexture(path)
	require.NoError(t, err)
	w, h := tex.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	small := tex.Resample(2, 2)
	w, h = small.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)

	_, err = LoadTexture(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestGradeNeutralAtRest(t *testing.T) {
	g := Grade{Contrast: 1, Vibrance: 0}
	tex := colorful.Color{R: 0.5, G: 0.5, B: 0.5}

	lin := g.Apply(tex, 0, 0)
	assert.InDelta(t, 0.35, lin.R, 1e-9)
	assert.InDelta(t, 0.45, lin.G, 1e-9)
	assert.InDelta(t, 0.5, lin.B, 1e-9)

	rnd := g.Apply(tex, 0, 1)
	assert.InDelta(t, 0.5, rnd.R, 1e-9)
	assert.InDelta(t, 0.3, rnd.B, 1e-9)
}

func TestGradeGlowAndClamp(t *testing.T) {
	g := DefaultGrade(1.5)
	tex := colorful.Color{R: 1, G: 1, B: 1}

	rest := g.Apply(tex, 0, 1)
	lit := g.Apply(tex, 1, 1)
	assert.GreaterOrEqual(t, lit.R, rest.R, "random glow warms the red channel")
	for _, c := range []colorful.Color{rest, lit} {
		for _, ch := range []float64{c.R, c.G, c.B} {
			assert.True(t, ch >= 0 && ch <= 1)
		}
	}
}

func TestRGBA8(t *testing.T) {
	r, g, b, a := RGBA8(colorful.Color{R: 1, G: 0.5, B: 2}, 0.5)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(128), g)
	assert.Equal(t, uint8(255), b)
	assert.Equal(t, uint8(128), a)

	_, _, _, a = RGBA8(white, -1)
	assert.Equal(t, uint8(0), a)
}

func TestPointSize(t *testing.T) {
	// Depth 300 is the reference; progress shrinks by 30%
	assert.InDelta(t, 3, float64(PointSize(3, 1, 0, 300)), 1e-5)
	assert.InDelta(t, 2.1, float64(PointSize(3, 1, 1, 300)), 1e-5)
	assert.InDelta(t, 6, float64(PointSize(3, 2, 0, 300)), 1e-5)

	assert.Equal(t, float32(MaxPointSize), PointSize(3, 1, 0, 10))
	assert.Equal(t, float32(MinPointSize), PointSize(0.1, 1, 0, 300))
	assert.InDelta(t, 3, float64(PointSize(3, 1, 0, 0)), 1e-5, "no attenuation without depth")
}
