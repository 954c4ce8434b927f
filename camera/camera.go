// Package camera projects particle world positions onto a screen.
package camera

import "math"

// Camera is a perspective camera on the +z axis looking at the origin.
// At z = 0 it shows VisibleH world units across the viewport height.
type Camera struct {
	// Viewport dimensions (screen size, pixels)
	ViewportW, ViewportH float32

	// World height visible at z = 0 with zoom 1
	VisibleH float32

	// Distance from the camera to the z = 0 plane
	Distance float32

	// Zoom level (1.0 = configured framing)
	Zoom float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera framing visibleH world units vertically.
func New(viewportW, viewportH, visibleH, distance float32) *Camera {
	return &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		VisibleH:  visibleH,
		Distance:  distance,
		Zoom:      1.0,
		MinZoom:   0.25,
		MaxZoom:   4.0,
	}
}

// PixelsPerUnit returns screen pixels per world unit at z = 0.
func (c *Camera) PixelsPerUnit() float32 {
	if c.VisibleH <= 0 {
		return 0
	}
	return c.ViewportH / c.VisibleH * c.Zoom
}

// DepthScale returns the perspective magnification of a point at depth z,
// or 0 when the point is at or behind the camera.
func (c *Camera) DepthScale(z float32) float32 {
	d := c.Distance - z
	if d <= 0 || c.Distance <= 0 {
		return 0
	}
	return c.Distance / d
}

// WorldToScreen projects a world position. ok is false for points at or
// behind the camera.
func (c *Camera) WorldToScreen(x, y, z float32) (sx, sy float32, ok bool) {
	s := c.DepthScale(z)
	if s == 0 {
		return 0, 0, false
	}
	ppu := c.PixelsPerUnit() * s
	sx = c.ViewportW/2 + x*ppu
	sy = c.ViewportH/2 - y*ppu
	return sx, sy, true
}

// ScreenToWorld maps a screen position onto the z = 0 plane.
func (c *Camera) ScreenToWorld(sx, sy float32) (x, y float32) {
	ppu := c.PixelsPerUnit()
	if ppu == 0 {
		return 0, 0
	}
	x = (sx - c.ViewportW/2) / ppu
	y = (c.ViewportH/2 - sy) / ppu
	return x, y
}

// ScreenToNDC maps a screen position to normalized device coordinates,
// y up, clamped to [-1,1].
func (c *Camera) ScreenToNDC(sx, sy float32) (nx, ny float32) {
	if c.ViewportW <= 0 || c.ViewportH <= 0 {
		return 0, 0
	}
	nx = clamp(sx/c.ViewportW*2-1, -1, 1)
	ny = clamp(1-sy/c.ViewportH*2, -1, 1)
	return nx, ny
}

// IsVisible returns true if a point with the given screen radius could be
// visible (conservative check for culling).
func (c *Camera) IsVisible(sx, sy, radius float32) bool {
	return sx >= -radius && sx <= c.ViewportW+radius &&
		sy >= -radius && sy <= c.ViewportH+radius
}

// Resize updates viewport dimensions. The world framing is kept.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the configured framing.
func (c *Camera) Reset() {
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world bounds visible on the z = 0 plane.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	ppu := c.PixelsPerUnit()
	if ppu == 0 {
		return 0, 0, 0, 0
	}
	halfW := c.ViewportW / (2 * ppu)
	halfH := c.ViewportH / (2 * ppu)
	return -halfW, -halfH, halfW, halfH
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if math.IsNaN(float64(x)) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
