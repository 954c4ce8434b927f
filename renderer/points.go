// Package renderer draws engine frames with raylib.
package renderer

import (
	"errors"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/deconstruct/camera"
	"github.com/pthm-cable/deconstruct/engine"
	"github.com/pthm-cable/deconstruct/geometry"
	"github.com/pthm-cable/deconstruct/shading"
)

// minAlpha matches the fragment discard threshold.
const minAlpha = 0.01

// Points draws materialized particle positions as graded circles.
type Points struct {
	cam    *camera.Camera
	logger *slog.Logger

	// Swatches are cached per grid and texture
	grid     *geometry.Grid
	texture  *shading.Texture
	swatches []shading.Swatch
	warned   bool

	// Drawn is the number of particles drawn by the last Draw
	Drawn int
}

// NewPoints creates a points renderer projecting through cam.
func NewPoints(cam *camera.Camera, logger *slog.Logger) *Points {
	if logger == nil {
		logger = slog.Default()
	}
	return &Points{cam: cam, logger: logger}
}

// Draw renders f. Frames without materialized positions draw nothing.
func (p *Points) Draw(f *engine.Frame) {
	p.Drawn = 0
	if f == nil || f.Grid == nil || len(f.Positions) != f.Grid.Count() {
		return
	}
	p.refresh(f)

	s := f.Snapshot
	grade := shading.DefaultGrade(float64(s.ColorIntensity))

	for i, pos := range f.Positions {
		sw := p.swatches[i]
		alpha := float64(f.Alphas[i]) * sw.A
		if alpha < minAlpha {
			continue
		}
		sx, sy, ok := p.cam.WorldToScreen(pos.X(), pos.Y(), pos.Z())
		if !ok {
			continue
		}
		size := shading.PointSize(s.PointSize, s.PixelRatio, s.Progress, p.cam.Distance-pos.Z())
		r := size / 2
		if !p.cam.IsVisible(sx, sy, r) {
			continue
		}

		c := grade.Apply(sw.Color, s.Progress, s.ModeBlend)
		cr, cg, cb, ca := shading.RGBA8(c, alpha)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, rl.Color{R: cr, G: cg, B: cb, A: ca})
		p.Drawn++
	}
}

// refresh resamples swatches when the grid or texture changes.
func (p *Points) refresh(f *engine.Frame) {
	tex, _ := f.Texture.(*shading.Texture)
	if p.swatches != nil && p.grid == f.Grid && p.texture == tex {
		return
	}
	sw, err := shading.SampleGrid(f.Grid, tex)
	if errors.Is(err, shading.ErrMissingTexture) && !p.warned {
		p.logger.Warn("no texture, drawing white particles", "error", err)
		p.warned = true
	}
	p.grid = f.Grid
	p.texture = tex
	p.swatches = sw
}
