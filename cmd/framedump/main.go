// Frame dump tool - renders one engine frame to a PNG file for inspection.
//
// Usage: go run ./cmd/framedump -progress 0.6 -mode random -out frame.png
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/deconstruct/camera"
	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/engine"
	"github.com/pthm-cable/deconstruct/renderer"
	"github.com/pthm-cable/deconstruct/shading"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Image to sample particle colors from")
	outPath := flag.String("out", "frame.png", "Output PNG path")
	width := flag.Int("width", 1280, "Render width")
	height := flag.Int("height", 720, "Render height")
	progress := flag.Float64("progress", 0.5, "Progress target")
	modeName := flag.String("mode", "linear", "Displacement model: linear or random")
	settle := flag.Duration("settle", 2*time.Second, "Simulated time before the frame is captured")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("failed to load config: %v", err)
	}
	cfg.Scheduler.Materialize = true
	mode, err := engine.ParseMode(*modeName)
	if err != nil {
		fail("%v", err)
	}

	// Fixed clock so the dump is reproducible for a given seed
	clock := engine.NewManualClock(time.Unix(0, 0))
	eng, err := engine.New(cfg, engine.WithClock(clock), engine.WithLogger(logger))
	if err != nil {
		fail("failed to build engine: %v", err)
	}
	defer eng.Dispose()

	if *imagePath != "" {
		tex, err := shading.LoadTexture(*imagePath)
		if err != nil {
			fail("failed to load image: %v", err)
		}
		eng.SetTexture(tex)
	}
	eng.SetViewport(float64(*width), float64(*height), 1)
	eng.SetMode(mode)
	eng.SetProgress(*progress)

	var f *engine.Frame
	step := cfg.Derived.TickInterval
	for t := time.Duration(0); t <= *settle; t += step {
		if f, err = eng.Tick(); err != nil {
			fail("tick failed: %v", err)
		}
		clock.Advance(step)
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*height), "Frame Dump")
	defer rl.CloseWindow()

	cam := camera.New(float32(*width), float32(*height), float32(cfg.Render.ViewportHeight), float32(cfg.Render.CameraDistance))
	points := renderer.NewPoints(cam, logger)
	backdrop := renderer.NewBackdrop(int32(*width), int32(*height), 6, 8, 14)
	defer backdrop.Unload()

	target := rl.LoadRenderTexture(int32(*width), int32(*height))
	defer rl.UnloadRenderTexture(target)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	backdrop.Draw(f.Snapshot)
	points.Draw(f)
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if !success {
		fail("failed to export image")
	}
	fmt.Printf("Frame %d rendered to: %s (%dx%d, progress %.2f, mode %.2f, %d particles)\n",
		f.Tick, *outPath, *width, *height, f.Progress, f.ModeBlend, points.Drawn)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
