package main

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/deconstruct/camera"
	"github.com/pthm-cable/deconstruct/engine"
	"github.com/pthm-cable/deconstruct/geometry"
	"github.com/pthm-cable/deconstruct/shading"
)

// ramp maps cell coverage to glyphs, sparse to dense.
var ramp = []rune(" .:-=+*#%@")

// Cell accumulates the particles landing in one terminal cell.
type Cell struct {
	Color colorful.Color // Alpha-weighted mean color
	Cover float64        // Summed alpha
}

// Glyph returns the ramp glyph for the cell's coverage relative to full.
func (c Cell) Glyph(full float64) rune {
	if c.Cover <= 0 || full <= 0 {
		return ' '
	}
	i := int(c.Cover / full * float64(len(ramp)-1))
	if i < 1 {
		i = 1
	}
	if i >= len(ramp) {
		i = len(ramp) - 1
	}
	return ramp[i]
}

// Raster projects frames onto a character grid. Terminal cells are about
// twice as tall as wide, so the camera sees two pixel rows per cell.
type Raster struct {
	Cols, Rows int
	Cells      []Cell

	cam      *camera.Camera
	grid     *geometry.Grid
	texture  *shading.Texture
	swatches []shading.Swatch
}

// NewRaster creates a raster framing visibleH world units vertically.
func NewRaster(cols, rows int, visibleH, distance float32) *Raster {
	r := &Raster{cam: camera.New(0, 0, visibleH, distance)}
	r.Resize(cols, rows)
	return r
}

// Resize changes the character grid.
func (r *Raster) Resize(cols, rows int) {
	r.Cols, r.Rows = cols, rows
	r.Cells = make([]Cell, cols*rows)
	r.cam.Resize(float32(cols), float32(rows*2))
}

// NDC maps a cell position to normalized device coordinates.
func (r *Raster) NDC(col, row int) (x, y float32) {
	return r.cam.ScreenToNDC(float32(col)+0.5, float32(row*2)+1)
}

// Consume rasterizes a frame. It implements engine.Sink.
func (r *Raster) Consume(f *engine.Frame) {
	for i := range r.Cells {
		r.Cells[i] = Cell{}
	}
	if f.Grid == nil || len(f.Positions) != f.Grid.Count() {
		return
	}
	tex, _ := f.Texture.(*shading.Texture)
	if r.swatches == nil || r.grid != f.Grid || r.texture != tex {
		r.swatches, _ = shading.SampleGrid(f.Grid, tex)
		r.grid, r.texture = f.Grid, tex
	}

	grade := shading.DefaultGrade(float64(f.ColorIntensity))
	for i, pos := range f.Positions {
		sw := r.swatches[i]
		a := float64(f.Alphas[i]) * sw.A
		if a < 0.01 {
			continue
		}
		sx, sy, ok := r.cam.WorldToScreen(pos.X(), pos.Y(), pos.Z())
		if !ok {
			continue
		}
		col, row := int(sx), int(sy/2)
		if sx < 0 || sy < 0 || col >= r.Cols || row >= r.Rows {
			continue
		}

		c := &r.Cells[row*r.Cols+col]
		graded := grade.Apply(sw.Color, f.Progress, f.ModeBlend)
		total := c.Cover + a
		c.Color = c.Color.BlendRgb(graded, a/total)
		c.Cover = total
	}
}

// Full returns the coverage of a cell at the rest layout density, used to
// normalize glyph selection.
func (r *Raster) Full() float64 {
	if r.grid == nil || r.Cols == 0 {
		return 1
	}
	ppu := r.cam.PixelsPerUnit()
	perCell := float64(2 / (ppu * ppu * r.grid.Spacing * r.grid.Spacing))
	if perCell < 1 {
		return 1
	}
	return perCell
}
