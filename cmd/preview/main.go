// Deconstruction preview tool - tune the motion parameters with sliders.
//
// Usage: go run ./cmd/preview [-config file] [-image file]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/deconstruct/camera"
	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/engine"
	"github.com/pthm-cable/deconstruct/renderer"
	"github.com/pthm-cable/deconstruct/shading"
)

const (
	windowWidth  = 1200
	windowHeight = 720
	previewWidth = 800
	panelWidth   = windowWidth - previewWidth - 30
)

// Params holds the tunable values.
type Params struct {
	LinearStrength float32
	NoiseStrength  float32
	Residual       float32
	Influence      float32
	Progress       float32
}

func paramsFrom(cfg *config.Config) Params {
	return Params{
		LinearStrength: float32(cfg.Linear.Strength),
		NoiseStrength:  float32(cfg.Random.Strength),
		Residual:       float32(cfg.Blend.Residual),
		Influence:      float32(cfg.Pointer.Influence),
	}
}

func (p Params) apply(cfg *config.Config) {
	cfg.Linear.Strength = float64(p.LinearStrength)
	cfg.Random.Strength = float64(p.NoiseStrength)
	cfg.Blend.Residual = float64(p.Residual)
	cfg.Pointer.Influence = float64(p.Influence)
}

func (p Params) yaml() string {
	return fmt.Sprintf(`linear:
  strength: %.2f
random:
  strength: %.2f
blend:
  residual: %.2f
pointer:
  influence: %.2f`, p.LinearStrength, p.NoiseStrength, p.Residual, p.Influence)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	imagePath := flag.String("image", "", "Image to sample particle colors from")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Grid.Seed == 0 {
		cfg.Grid.Seed = 12345
	}

	var tex *shading.Texture
	if *imagePath != "" {
		if tex, err = shading.LoadTexture(*imagePath); err != nil {
			logger.Error("failed to load image", "error", err)
			os.Exit(1)
		}
	}

	rl.InitWindow(windowWidth, windowHeight, "Deconstruction Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	cam := camera.New(previewWidth, windowHeight, float32(cfg.Render.ViewportHeight), float32(cfg.Render.CameraDistance))
	points := renderer.NewPoints(cam, logger)

	params := paramsFrom(cfg)
	defaults := params
	mode := engine.ModeLinear

	var eng *engine.Engine
	rebuild := func() {
		if eng != nil {
			eng.Dispose()
		}
		params.apply(cfg)
		eng, err = engine.New(cfg, engine.WithLogger(logger))
		if err != nil {
			logger.Error("failed to build engine", "error", err)
			os.Exit(1)
		}
		eng.SetTexture(tex)
		eng.SetViewport(previewWidth, windowHeight, 1)
		eng.SetMode(mode)
		eng.SetProgress(float64(params.Progress))
	}
	rebuild()
	defer func() { eng.Dispose() }()

	for !rl.WindowShouldClose() {
		m := rl.GetMousePosition()
		if m.X < previewWidth {
			nx, ny := cam.ScreenToNDC(m.X, m.Y)
			eng.SetPointer(float64(nx), float64(ny))
		}
		f, err := eng.Tick()
		if err != nil {
			break
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		points.Draw(f)
		rl.DrawText(fmt.Sprintf("Progress: %.2f  Mode: %.2f", f.Progress, f.ModeBlend), 10, 10, 16, rl.Gray)

		// Control panel
		panelX := float32(previewWidth + 20)
		panelY := float32(10)
		rl.DrawRectangle(previewWidth, 0, windowWidth-previewWidth, windowHeight, rl.RayWhite)
		rl.DrawText("Deconstruction Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		changed := false
		slider := func(label, lo, hi string, value *float32, min, max float32) {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				lo, hi, *value, min, max,
			)
			rl.DrawText(fmt.Sprintf("%.2f", *value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if v != *value {
				*value = v
				changed = true
			}
			panelY += 35
		}

		slider("Linear strength (glitch drift)", "0", "10", &params.LinearStrength, 0, 10)
		slider("Noise strength (curl dispersion)", "0", "8", &params.NoiseStrength, 0, 8)
		slider("Residual (pull toward rest)", "0", "1", &params.Residual, 0, 1)
		slider("Pointer influence", "-1", "1", &params.Influence, -1, 1)
		if changed {
			rebuild()
		}

		prev := params.Progress
		slider("Progress target", "0", "1", &params.Progress, 0, 1)
		if params.Progress != prev {
			eng.SetProgress(float64(params.Progress))
		}

		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 150, Height: 30}, "Explode Linear") {
			mode = engine.ModeLinear
			eng.TriggerExplosion(mode)
		}
		if gui.Button(rl.Rectangle{X: panelX + 160, Y: panelY, Width: 150, Height: 30}, "Explode Random") {
			mode = engine.ModeRandom
			eng.TriggerExplosion(mode)
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 150, Height: 30}, toggleText(mode == engine.ModeRandom, "Mode: Random", "Mode: Linear")) {
			if mode == engine.ModeRandom {
				mode = engine.ModeLinear
			} else {
				mode = engine.ModeRandom
			}
			eng.AnimateMode(mode, 0)
		}
		if gui.Button(rl.Rectangle{X: panelX + 160, Y: panelY, Width: 150, Height: 30}, "Reset All") {
			params = defaults
			rebuild()
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range strings.Split(params.yaml(), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(params.yaml())
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
