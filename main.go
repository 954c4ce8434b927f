package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/deconstruct/app"
	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Image to sample particle colors from (PNG, JPEG, WebP)")
	headless := flag.Bool("headless", false, "Run without graphics")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV traces and config snapshot")
	seed := flag.Int64("seed", 0, "Grid seed (0 = config, then time-based)")
	serve := flag.String("serve", "", "Serve snapshots over websocket on this address (e.g. :8080)")
	tickRate := flag.Int("tick-rate", 0, "Headless ticks per second (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts := app.Options{
		Seed:      *seed,
		ImagePath: *imagePath,
		OutputDir: *outputDir,
		Serve:     *serve,
		TickRate:  *tickRate,
		MaxTicks:  *maxTicks,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headless {
		// Headless mode - ticker-driven, no raylib needed
		a, err := app.New(cfg, opts, logger)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer a.Close()

		slog.Info("starting headless run",
			"grid", cfg.Grid.Width*cfg.Grid.Height,
			"max_ticks", *maxTicks,
			"serve", *serve,
		)
		if err := a.Run(ctx); err != nil {
			slog.Error("run failed", "error", err)
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Deconstruct")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	a, err := app.New(cfg, opts, logger)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer a.Close()

	v := viewer.New(a.Engine(), cfg, a.Perf(), logger)
	defer v.Unload()
	a.AddSink(v)
	if err := a.Attach(v.Driver()); err != nil {
		slog.Error("failed to attach", "error", err)
		return
	}

	go func() {
		if err := a.Serve(ctx); err != nil {
			slog.Error("snapshot server failed", "error", err)
		}
	}()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()
		v.Draw()

		if a.Done() {
			break
		}
	}
}
