package renderer

import (
	_ "embed"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/deconstruct/engine"
)

//go:embed shaders/backdrop.fs
var backdropFS string

// Backdrop fills the screen behind the particles with a vignette that
// glows in the mode's tint as progress rises.
type Backdrop struct {
	shader        rl.Shader
	timeLoc       int32
	resolutionLoc int32
	progressLoc   int32
	modeLoc       int32
	mouseLoc      int32
	baseColorLoc  int32

	screenW, screenH float32
	baseColor        [3]float32
	initialized      bool
}

// NewBackdrop creates a backdrop with a base color.
func NewBackdrop(screenW, screenH int32, baseR, baseG, baseB uint8) *Backdrop {
	return &Backdrop{
		screenW: float32(screenW),
		screenH: float32(screenH),
		baseColor: [3]float32{
			float32(baseR) / 255.0,
			float32(baseG) / 255.0,
			float32(baseB) / 255.0,
		},
	}
}

// Init compiles the shader (must be called after the raylib window is created).
func (b *Backdrop) Init() {
	if b.initialized {
		return
	}

	b.shader = rl.LoadShaderFromMemory("", backdropFS)
	b.timeLoc = rl.GetShaderLocation(b.shader, "time")
	b.resolutionLoc = rl.GetShaderLocation(b.shader, "resolution")
	b.progressLoc = rl.GetShaderLocation(b.shader, "progress")
	b.modeLoc = rl.GetShaderLocation(b.shader, "modeBlend")
	b.mouseLoc = rl.GetShaderLocation(b.shader, "mouse")
	b.baseColorLoc = rl.GetShaderLocation(b.shader, "baseColor")

	rl.SetShaderValue(b.shader, b.baseColorLoc, b.baseColor[:], rl.ShaderUniformVec3)
	b.initialized = true
}

// Resize updates the fullscreen quad size.
func (b *Backdrop) Resize(screenW, screenH int32) {
	b.screenW = float32(screenW)
	b.screenH = float32(screenH)
}

// Draw renders the backdrop for a snapshot.
func (b *Backdrop) Draw(s engine.Snapshot) {
	if !b.initialized {
		b.Init()
	}

	rl.BeginShaderMode(b.shader)

	rl.SetShaderValue(b.shader, b.timeLoc, []float32{float32(s.Time)}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.shader, b.resolutionLoc, []float32{b.screenW, b.screenH}, rl.ShaderUniformVec2)
	rl.SetShaderValue(b.shader, b.progressLoc, []float32{s.Progress}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.shader, b.modeLoc, []float32{s.ModeBlend}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.shader, b.mouseLoc, []float32{s.MouseX, s.MouseY}, rl.ShaderUniformVec2)

	rl.DrawRectangle(0, 0, int32(b.screenW), int32(b.screenH), rl.White)

	rl.EndShaderMode()
}

// Unload frees resources.
func (b *Backdrop) Unload() {
	if b.initialized {
		rl.UnloadShader(b.shader)
		b.initialized = false
	}
}
