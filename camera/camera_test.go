package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 720, 8, 10)

	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
	if ppu := cam.PixelsPerUnit(); !near(ppu, 90) {
		t.Errorf("expected 90 pixels per unit, got %f", ppu)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 8, 10)

	sx, sy, ok := cam.WorldToScreen(0, 0, 0)
	if !ok || !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f, %v)", sx, sy, ok)
	}

	// y is up in world space
	_, sy, _ = cam.WorldToScreen(0, 1, 0)
	if sy >= 360 {
		t.Errorf("expected positive y above center, got %f", sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 8, 10)
	cam.SetZoom(1.5)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}
	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy, _ := cam.WorldToScreen(wx, wy, 0)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPerspective(t *testing.T) {
	cam := New(1280, 720, 8, 10)

	if s := cam.DepthScale(5); !near(s, 2) {
		t.Errorf("expected 2x magnification halfway to the camera, got %f", s)
	}
	if s := cam.DepthScale(-10); !near(s, 0.5) {
		t.Errorf("expected 0.5x at twice the distance, got %f", s)
	}

	// Closer points spread further from the center
	far, _, _ := cam.WorldToScreen(1, 0, 0)
	closer, _, _ := cam.WorldToScreen(1, 0, 5)
	if closer <= far {
		t.Errorf("expected closer point further right: near=%f far=%f", closer, far)
	}

	if _, _, ok := cam.WorldToScreen(0, 0, 10); ok {
		t.Error("point at the camera must not project")
	}
	if _, _, ok := cam.WorldToScreen(0, 0, 20); ok {
		t.Error("point behind the camera must not project")
	}
}

func TestScreenToNDC(t *testing.T) {
	cam := New(800, 600, 8, 10)

	tests := []struct {
		sx, sy, nx, ny float32
	}{
		{400, 300, 0, 0},
		{0, 0, -1, 1},
		{800, 600, 1, -1},
		{-50, 900, -1, -1},
	}
	for _, tt := range tests {
		nx, ny := cam.ScreenToNDC(tt.sx, tt.sy)
		if !near(nx, tt.nx) || !near(ny, tt.ny) {
			t.Errorf("ScreenToNDC(%v,%v) = (%v,%v), want (%v,%v)", tt.sx, tt.sy, nx, ny, tt.nx, tt.ny)
		}
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 8, 10)

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
	cam.ZoomBy(0.001)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.Reset()
	if cam.Zoom != 1 {
		t.Errorf("expected reset zoom 1, got %f", cam.Zoom)
	}
}

func TestResizeKeepsFraming(t *testing.T) {
	cam := New(1280, 720, 8, 10)
	cam.Resize(1920, 1080)

	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if !near(maxY-minY, 8) {
		t.Errorf("expected 8 visible units vertically, got %f", maxY-minY)
	}
	if !near(maxX-minX, 8*1920.0/1080.0) {
		t.Errorf("expected width to follow aspect, got %f", maxX-minX)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 8, 10)
	if !cam.IsVisible(640, 360, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(-10, 360, 2) {
		t.Error("point left of the screen should be culled")
	}
	if !cam.IsVisible(-1, 360, 2) {
		t.Error("point overlapping the edge should be kept")
	}
}
