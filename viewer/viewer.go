// Package viewer is the raylib desktop front-end: it drives engine ticks
// from the render loop and maps mouse and keyboard input onto controls.
package viewer

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/deconstruct/camera"
	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/engine"
	"github.com/pthm-cable/deconstruct/renderer"
	"github.com/pthm-cable/deconstruct/telemetry"
)

// Viewer renders frames in a raylib window. It must be created after
// rl.InitWindow and used from the window's goroutine.
type Viewer struct {
	eng    *engine.Engine
	perf   *telemetry.PerfCollector
	logger *slog.Logger

	driver   *engine.ManualDriver
	cam      *camera.Camera
	points   *renderer.Points
	backdrop *renderer.Backdrop

	frame *engine.Frame // Last consumed frame, valid until the next Fire

	scroll    float64
	intensity float64
	showHUD   bool

	screenW, screenH float32
}

// New creates a viewer for the current window size.
func New(eng *engine.Engine, cfg *config.Config, perf *telemetry.PerfCollector, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	cam := camera.New(w, h, float32(cfg.Render.ViewportHeight), float32(cfg.Render.CameraDistance))

	v := &Viewer{
		eng:       eng,
		perf:      perf,
		logger:    logger,
		driver:    engine.NewManualDriver(),
		cam:       cam,
		points:    renderer.NewPoints(cam, logger),
		backdrop:  renderer.NewBackdrop(int32(w), int32(h), 6, 8, 14),
		intensity: 1,
		showHUD:   true,
		screenW:   w,
		screenH:   h,
	}
	v.syncViewport()
	return v
}

// Driver returns the frame driver fired once per rendered frame.
func (v *Viewer) Driver() engine.FrameDriver { return v.driver }

// Consume keeps the frame for Draw. It implements engine.Sink.
func (v *Viewer) Consume(f *engine.Frame) {
	v.frame = f
}

// Update handles input and runs one engine tick.
func (v *Viewer) Update() {
	v.handleInput()
	v.driver.Fire()
}

// Draw renders the last frame.
func (v *Viewer) Draw() {
	v.perf.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	if v.frame != nil {
		v.backdrop.Draw(v.frame.Snapshot)
		v.points.Draw(v.frame)
	}
	if v.showHUD {
		v.drawHUD()
	}

	rl.EndDrawing()
}

func (v *Viewer) drawHUD() {
	if v.frame == nil {
		return
	}
	s := v.frame.Snapshot
	rl.DrawText(fmt.Sprintf("Tick: %d  FPS: %d", s.Tick, rl.GetFPS()), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Progress: %.2f  Mode: %.2f  Noise: %.2f", s.Progress, s.ModeBlend, s.NoiseStrength), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Particles: %d drawn", v.points.Drawn), 10, 60, 20, rl.White)
	if v.frame.Degenerate > 0 {
		rl.DrawText(fmt.Sprintf("Clamped: %d", v.frame.Degenerate), 10, 85, 20, rl.Yellow)
	}

	stats := v.perf.Stats()
	rl.DrawText(fmt.Sprintf("Tick: %v  TPS: %.0f", stats.AvgTickDuration, stats.TicksPerSecond), 10, int32(v.screenH)-50, 14, rl.Gray)
	rl.DrawText("[1] linear  [2] random  [L/R] mode  [wheel] scroll  [up/down] intensity  [H] hud", 10, int32(v.screenH)-28, 14, rl.Gray)
}

// Unload frees GPU resources.
func (v *Viewer) Unload() {
	v.backdrop.Unload()
}
