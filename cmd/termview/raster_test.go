package main

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/deconstruct/engine"
	"github.com/pthm-cable/deconstruct/geometry"
)

func TestRasterCentersParticle(t *testing.T) {
	g, err := geometry.Build(1, 1, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	r := NewRaster(40, 20, 8, 10)
	r.Consume(&engine.Frame{
		Snapshot:  engine.Snapshot{ColorIntensity: 1},
		Grid:      g,
		Positions: []mgl32.Vec3{{0, 0, 0}},
		Alphas:    []float32{1},
	})

	c := r.Cells[10*40+20]
	assert.InDelta(t, 1, c.Cover, 1e-9)
	assert.NotEqual(t, ' ', c.Glyph(1))

	var covered int
	for _, c := range r.Cells {
		if c.Cover > 0 {
			covered++
		}
	}
	assert.Equal(t, 1, covered)
}

func TestRasterSkipsInvisible(t *testing.T) {
	g, err := geometry.Build(3, 1, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	r := NewRaster(40, 20, 8, 10)
	r.Consume(&engine.Frame{
		Grid: g,
		Positions: []mgl32.Vec3{
			{100, 0, 0}, // Off screen
			{0, 0, 20},  // Behind the camera
			{0, 0, 0},   // Faded out
		},
		Alphas: []float32{1, 1, 0},
	})
	for _, c := range r.Cells {
		assert.Equal(t, 0.0, c.Cover)
	}

	// Frames without positions clear the raster
	r.Consume(&engine.Frame{Grid: g})
	assert.Len(t, r.Cells, 40*20)
}

func TestGlyphRamp(t *testing.T) {
	assert.Equal(t, ' ', Cell{}.Glyph(4))
	assert.Equal(t, '.', Cell{Cover: 0.01}.Glyph(4))
	assert.Equal(t, '@', Cell{Cover: 10}.Glyph(4))
}

func TestRasterNDC(t *testing.T) {
	r := NewRaster(40, 20, 8, 10)
	x, y := r.NDC(0, 0)
	assert.Less(t, x, float32(-0.9))
	assert.Greater(t, y, float32(0.9))

	x, y = r.NDC(19, 9)
	assert.InDelta(t, 0, x, 0.05)
	assert.InDelta(t, 0, y, 0.1)
}
