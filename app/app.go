// Package app wires the engine to its collaborators: texture loading,
// CSV telemetry, the snapshot server and any renderer sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/engine"
	"github.com/pthm-cable/deconstruct/server"
	"github.com/pthm-cable/deconstruct/shading"
	"github.com/pthm-cable/deconstruct/telemetry"
)

// App owns an engine and fans its frames out to telemetry, the snapshot
// server and registered sinks.
type App struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	eng     *engine.Engine
	perf    *telemetry.PerfCollector
	output  *telemetry.OutputManager
	hub     *server.Hub
	texture *shading.Texture
	sinks   []engine.Sink

	tick int64
	stop context.CancelFunc
}

// New builds the engine and its collaborators. Extra engine options are
// applied after the app's own. On error the engine is disposed.
func New(cfg *config.Config, opts Options, logger *slog.Logger, engineOpts ...engine.Option) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Seed != 0 {
		cfg.Grid.Seed = opts.Seed
	}

	a := &App{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		perf:   telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
	}

	eo := append([]engine.Option{
		engine.WithLogger(logger),
		engine.WithPerfCollector(a.perf),
	}, engineOpts...)
	eng, err := engine.New(cfg, eo...)
	if err != nil {
		return nil, err
	}
	a.eng = eng
	defer func() {
		if err != nil {
			eng.Dispose()
		}
	}()

	if opts.ImagePath != "" {
		tex, err := shading.LoadTexture(opts.ImagePath)
		if err != nil {
			return nil, err
		}
		a.texture = tex
		if err := eng.SetTexture(tex); err != nil {
			return nil, err
		}
		w, h := tex.Size()
		logger.Info("texture loaded", "path", opts.ImagePath, "width", w, "height", h)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	a.output = output
	if output != nil {
		if err := output.WriteConfig(cfg); err != nil {
			logger.Error("failed to write config", "error", err)
		}
	}

	if opts.Serve != "" {
		a.hub = server.NewHub(eng, logger)
	}
	return a, nil
}

// Engine returns the app's engine.
func (a *App) Engine() *engine.Engine { return a.eng }

// Texture returns the loaded texture, or nil.
func (a *App) Texture() *shading.Texture { return a.texture }

// Perf returns the tick performance collector.
func (a *App) Perf() *telemetry.PerfCollector { return a.perf }

// Hub returns the snapshot server, or nil when not serving.
func (a *App) Hub() *server.Hub { return a.hub }

// Tick returns the last consumed tick.
func (a *App) Tick() int64 { return a.tick }

// AddSink registers a sink that receives every frame after telemetry.
func (a *App) AddSink(s engine.Sink) {
	a.sinks = append(a.sinks, s)
}

// Consume handles one frame. It implements engine.Sink.
func (a *App) Consume(f *engine.Frame) {
	if a.Done() {
		return // Ticks racing the stop
	}
	a.tick = f.Tick
	a.flushTelemetry(f)
	if a.hub != nil {
		a.hub.Consume(f)
	}
	for _, s := range a.sinks {
		s.Consume(f)
	}
	if a.opts.MaxTicks > 0 && a.tick >= a.opts.MaxTicks && a.stop != nil {
		a.logger.Info("max ticks reached", "tick", a.tick)
		a.stop()
	}
}

// Done reports whether the tick limit has been reached.
func (a *App) Done() bool {
	return a.opts.MaxTicks > 0 && a.tick >= a.opts.MaxTicks
}

// Run ticks the engine on a ticker and serves snapshots until ctx is done
// or the tick limit is reached.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.stop = cancel

	interval := a.cfg.Derived.TickInterval
	if a.opts.TickRate > 0 {
		interval = time.Second / time.Duration(a.opts.TickRate)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.eng.Run(ctx, interval, a)
		cancel()
		return err
	})
	if a.hub != nil {
		g.Go(func() error {
			return a.hub.ListenAndServe(ctx, a.opts.Serve)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Attach drives the engine from an external frame driver, e.g. a render
// loop, instead of Run.
func (a *App) Attach(driver engine.FrameDriver) error {
	return a.eng.Attach(driver, a)
}

// Serve runs only the snapshot server until ctx is done. Used alongside
// Attach when a window drives the ticks.
func (a *App) Serve(ctx context.Context) error {
	if a.hub == nil {
		return nil
	}
	return a.hub.ListenAndServe(ctx, a.opts.Serve)
}

// Close disposes the engine and flushes telemetry.
func (a *App) Close() error {
	a.eng.Dispose()
	if a.output != nil {
		if err := a.output.WritePerf(a.perf.Stats(), a.tick); err != nil {
			a.logger.Error("failed to write perf", "error", err)
		}
		return a.output.Close()
	}
	return nil
}
