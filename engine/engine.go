// Package engine drives the particle field: it collects control inputs from
// any goroutine, and once per frame advances the springs and pointer filter
// and emits a Frame with the parameter snapshot and, optionally, every
// particle's position.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/geometry"
	"github.com/pthm-cable/deconstruct/telemetry"
)

// ErrDisposed is returned by every operation on a disposed engine.
var ErrDisposed = errors.New("engine disposed")

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPerfCollector times every tick into pc.
func WithPerfCollector(pc *telemetry.PerfCollector) Option {
	return func(e *Engine) { e.perf = pc }
}

// WithRand sets the generator used for grid permutations and directions.
// The default is seeded from cfg.Grid.Seed, or the clock when that is 0.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// Engine is the frame scheduler and its input mailbox. Setters may be called
// from any goroutine; ticks are serialized.
type Engine struct {
	cfg    *config.Config
	clock  Clock
	logger *slog.Logger
	perf   *telemetry.PerfCollector
	rng    *rand.Rand

	box      *mailbox
	disposed atomic.Bool

	mu          sync.Mutex // Held for the duration of a tick
	grid        *geometry.Grid
	sched       *Scheduler
	unsubscribe func()
}

// New builds the particle grid from cfg and returns an idle engine.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := cfg.Grid.Seed
		if seed == 0 {
			seed = e.clock.Now().UnixNano()
		}
		e.rng = rand.New(rand.NewSource(seed))
	}

	e.box = newMailbox(float64(cfg.Screen.Width), float64(cfg.Screen.Height), cfg.Derived.PixelRatio)
	e.sched = newScheduler(cfg, e.logger, e.perf)

	if err := e.rebuild(cfg.Grid.Width, cfg.Grid.Height); err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Grid returns the current particle grid, or nil after Dispose.
func (e *Engine) Grid() *geometry.Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid
}

// Rebuild regenerates the grid with new dimensions and fresh permutations.
// On error the previous grid is kept.
func (e *Engine) Rebuild(width, height int) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.rebuild(width, height); err != nil {
		return fmt.Errorf("rebuilding grid: %w", err)
	}
	return nil
}

func (e *Engine) rebuild(width, height int) error {
	g, err := geometry.Build(width, height, float32(e.cfg.Grid.Spacing), e.rng)
	if err != nil {
		return err
	}
	e.grid = g
	e.sched.resize(g.Count())
	e.logger.Info("grid built", "width", width, "height", height, "particles", g.Count())
	return nil
}

// Tick advances the simulation by the clock time elapsed since the previous
// tick and returns the frame. The frame is reused by the next Tick.
func (e *Engine) Tick() (*Frame, error) {
	if e.disposed.Load() {
		return nil, ErrDisposed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grid == nil {
		return nil, ErrDisposed
	}
	now := e.clock.Now()
	return e.sched.step(e.grid, e.box.snapshot(now), now), nil
}

// tickInto runs one tick and hands the frame to sink. Errors end quietly:
// the only tick error is disposal.
func (e *Engine) tickInto(sink Sink) {
	f, err := e.Tick()
	if err != nil || sink == nil {
		return
	}
	sink.Consume(f)
}

// Attach subscribes the engine's tick to driver. Each driver callback runs
// one tick and passes the frame to sink. A previous subscription is
// released first.
func (e *Engine) Attach(driver FrameDriver, sink Sink) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.mu.Lock()
	prev := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()
	if prev != nil {
		prev()
	}

	cancel := driver.Subscribe(func() { e.tickInto(sink) })

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed.Load() {
		cancel()
		return ErrDisposed
	}
	e.unsubscribe = cancel
	return nil
}

// Run ticks every interval until ctx is done, passing frames to sink.
// A non-positive interval uses the configured tick rate. The engine is
// disposed if a tick or the sink panics.
func (e *Engine) Run(ctx context.Context, interval time.Duration, sink Sink) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	if interval <= 0 {
		interval = e.cfg.Derived.TickInterval
	}
	defer func() {
		if r := recover(); r != nil {
			e.Dispose()
			panic(r)
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f, err := e.Tick()
			if err != nil {
				return err
			}
			if sink != nil {
				sink.Consume(f)
			}
		}
	}
}

// Dispose releases the driver subscription and the grid. It is idempotent.
func (e *Engine) Dispose() {
	if !e.disposed.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.grid = nil
	e.sched.resize(0)
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	e.logger.Info("engine disposed")
}

// Disposed reports whether Dispose has been called.
func (e *Engine) Disposed() bool {
	return e.disposed.Load()
}

// SetProgress sets the progress target directly, clamped to [0,1].
func (e *Engine) SetProgress(p float64) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.box.setProgress(p)
	return nil
}

// BindScroll maps a scroll position onto the progress target. At or below
// the threshold progress is 0; above it progress rescales to [0,1] and the
// linear model is forced.
func (e *Engine) BindScroll(scroll float64) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.box.bindScroll(scroll, e.cfg.Scroll.Threshold)
	return nil
}

// TriggerExplosion selects mode, jumps the progress target to 1 and reverts
// it to 0 after the mode's configured delay.
func (e *Engine) TriggerExplosion(mode Mode) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	delay := e.cfg.Derived.LinearRevert
	if mode == ModeRandom {
		delay = e.cfg.Derived.RandomRevert
	}
	e.box.explode(mode.Target(), e.clock.Now(), delay)
	e.logger.Debug("explosion triggered", "mode", mode, "revert_after", delay)
	return nil
}

// SetMode flips the mode target. The mode spring carries the blend.
func (e *Engine) SetMode(mode Mode) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.box.setMode(mode.Target())
	return nil
}

// AnimateMode eases the mode target to mode over duration. A non-positive
// duration uses the configured default.
func (e *Engine) AnimateMode(mode Mode, duration time.Duration) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	sec := duration.Seconds()
	if sec <= 0 {
		sec = e.cfg.Smoothing.ModeTweenSec
	}
	e.box.animateMode(mode.Target(), sec)
	return nil
}

// SetPointer records a pointer position in NDC, clamped to [-1,1]².
func (e *Engine) SetPointer(x, y float64) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.box.setPointer(x, y)
	return nil
}

// SetViewport updates the render size and pixel ratio. The pixel ratio is
// capped at the configured maximum; the grid is never touched.
func (e *Engine) SetViewport(width, height, pixelRatio float64) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	if !(pixelRatio > 0) || math.IsInf(pixelRatio, 0) {
		pixelRatio = 1
	}
	if limit := e.cfg.Render.MaxPixelRatio; limit > 0 && pixelRatio > limit {
		pixelRatio = limit
	}
	if !(width > 0) || !(height > 0) {
		return fmt.Errorf("viewport %vx%v: %w", width, height, geometry.ErrInvalidDimension)
	}
	e.box.setViewport(width, height, pixelRatio)
	return nil
}

// SetIntensity sets the noise strength multiplier target (>= 0).
func (e *Engine) SetIntensity(v float64) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.box.setIntensity(v)
	return nil
}

// SetTexture passes an opaque image handle through to frames.
func (e *Engine) SetTexture(tex any) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	e.box.setTexture(tex)
	return nil
}

// Targets are the raw control targets the next tick will observe.
type Targets struct {
	Progress   float64
	Mode       float64
	Intensity  float64
	PointerX   float64
	PointerY   float64
	Width      float64
	Height     float64
	PixelRatio float64
}

// Targets returns the current targets, applying any explosion revert that
// is already due.
func (e *Engine) Targets() Targets {
	in := e.box.snapshot(e.clock.Now())
	return Targets{
		Progress:   in.Progress,
		Mode:       in.Mode,
		Intensity:  in.Intensity,
		PointerX:   float64(in.Pointer.X()),
		PointerY:   float64(in.Pointer.Y()),
		Width:      in.Width,
		Height:     in.Height,
		PixelRatio: in.PixelRatio,
	}
}
