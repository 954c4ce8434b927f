package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/deconstruct/engine"
)

const (
	scrollStep    = 0.05
	intensityStep = 0.1
)

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		v.showHUD = !v.showHUD
	}

	// Explosions and mode
	if rl.IsKeyPressed(rl.KeyOne) {
		v.report(v.eng.TriggerExplosion(engine.ModeLinear))
	}
	if rl.IsKeyPressed(rl.KeyTwo) {
		v.report(v.eng.TriggerExplosion(engine.ModeRandom))
	}
	if rl.IsKeyPressed(rl.KeyL) {
		v.report(v.eng.AnimateMode(engine.ModeLinear, 0))
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.report(v.eng.AnimateMode(engine.ModeRandom, 0))
	}

	// Noise intensity
	if rl.IsKeyPressed(rl.KeyUp) {
		v.intensity += intensityStep
		v.report(v.eng.SetIntensity(v.intensity))
	}
	if rl.IsKeyPressed(rl.KeyDown) && v.intensity > 0 {
		v.intensity -= intensityStep
		if v.intensity < 0 {
			v.intensity = 0
		}
		v.report(v.eng.SetIntensity(v.intensity))
	}

	// Wheel scrolls through the deconstruction
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.scroll -= float64(wheel) * scrollStep
		if v.scroll < 0 {
			v.scroll = 0
		}
		if v.scroll > 1 {
			v.scroll = 1
		}
		v.report(v.eng.BindScroll(v.scroll))
	}

	// Pointer only updates on movement so the idle decay can take over
	if d := rl.GetMouseDelta(); d.X != 0 || d.Y != 0 {
		m := rl.GetMousePosition()
		nx, ny := v.cam.ScreenToNDC(m.X, m.Y)
		v.report(v.eng.SetPointer(float64(nx), float64(ny)))
	}

	v.handleCameraInput()
}

// handleResize propagates window size changes to the camera, backdrop
// and engine viewport.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW = w
	v.screenH = h
	v.cam.Resize(w, h)
	v.backdrop.Resize(int32(w), int32(h))
	v.syncViewport()
}

func (v *Viewer) syncViewport() {
	dpi := rl.GetWindowScaleDPI()
	v.report(v.eng.SetViewport(float64(v.screenW), float64(v.screenH), float64(dpi.X)))
}

// handleCameraInput processes zoom controls.
func (v *Viewer) handleCameraInput() {
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
}

func (v *Viewer) report(err error) {
	if err != nil {
		v.logger.Warn("control rejected", "error", err)
	}
}
