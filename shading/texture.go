// Package shading holds the renderer-side color and size math: texture
// sampling at particle uv, the per-mode color grade and point sizing.
package shading

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/pthm-cable/deconstruct/geometry"
)

// ErrMissingTexture is reported when a frame carries no usable texture.
// Particles then render white.
var ErrMissingTexture = errors.New("missing texture")

// Texture is a decoded image sampled by uv, with v = 1 at the top row.
type Texture struct {
	img *image.NRGBA
}

// NewTexture converts img to NRGBA.
func NewTexture(img image.Image) *Texture {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Texture{img: dst}
}

// LoadTexture decodes a PNG, JPEG or WebP file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", path, err)
	}
	return NewTexture(img), nil
}

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (w, h int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resample scales the texture to w x h with bilinear filtering, so a
// nearest lookup per grid cell averages the source pixels it covers.
func (t *Texture) Resample(w, h int) *Texture {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), t.img, t.img.Bounds(), draw.Src, nil)
	return &Texture{img: dst}
}

// At samples the nearest pixel at uv. Returns the color in [0,1] and alpha.
func (t *Texture) At(u, v float32) (colorful.Color, float64) {
	w, h := t.Size()
	if w == 0 || h == 0 {
		return white, 1
	}
	x := pixel(u, w)
	y := pixel(1-v, h)
	c := t.img.NRGBAAt(x, y)
	return nrgbaColor(c), float64(c.A) / 255
}

func pixel(f float32, n int) int {
	i := int(math.Round(float64(f) * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func nrgbaColor(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

var white = colorful.Color{R: 1, G: 1, B: 1}

// Swatch is a particle's base texture color.
type Swatch struct {
	Color colorful.Color
	A     float64
}

// SampleGrid looks up every particle's base color. A nil texture yields
// white swatches and ErrMissingTexture.
func SampleGrid(g *geometry.Grid, tex *Texture) ([]Swatch, error) {
	out := make([]Swatch, g.Count())
	if tex == nil {
		for i := range out {
			out[i] = Swatch{Color: white, A: 1}
		}
		return out, ErrMissingTexture
	}

	src := tex
	if w, h := tex.Size(); w > g.Width && h > g.Height {
		src = tex.Resample(g.Width, g.Height)
	}
	for i := range g.Particles {
		p := &g.Particles[i]
		c, a := src.At(p.UV.X(), p.UV.Y())
		out[i] = Swatch{Color: c, A: a}
	}
	return out, nil
}
