package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/geometry"
	"github.com/pthm-cable/deconstruct/telemetry"
)

const frame = time.Second / 60

var epoch = time.Unix(1_700_000_000, 0)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Grid.Width = 16
	cfg.Grid.Height = 12
	cfg.Grid.Spacing = 0.25
	cfg.Grid.Seed = 3
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, opts ...Option) (*Engine, *ManualClock) {
	t.Helper()
	clock := NewManualClock(epoch)
	opts = append([]Option{
		WithClock(clock),
		WithLogger(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))),
	}, opts...)
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Dispose)
	return e, clock
}

// runFor ticks at 60 Hz for d and returns the last frame.
func runFor(t *testing.T, e *Engine, clock *ManualClock, d time.Duration) *Frame {
	t.Helper()
	var f *Frame
	var err error
	for elapsed := time.Duration(0); elapsed <= d; elapsed += frame {
		f, err = e.Tick()
		require.NoError(t, err)
		clock.Advance(frame)
	}
	return f
}

func TestNewRejectsInvalidGrid(t *testing.T) {
	cfg := testConfig()
	cfg.Grid.Width = 0
	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, geometry.ErrInvalidDimension))
}

func TestBindScroll(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	require.NoError(t, e.BindScroll(0.05))
	assert.Equal(t, 0.0, e.Targets().Progress)

	require.NoError(t, e.SetMode(ModeRandom))
	require.NoError(t, e.BindScroll(0.55))
	tg := e.Targets()
	assert.InDelta(t, 0.5, tg.Progress, 1e-9)
	assert.Equal(t, 0.0, tg.Mode, "scrolling forces the linear model")

	require.NoError(t, e.BindScroll(1.7))
	assert.Equal(t, 1.0, e.Targets().Progress)

	require.NoError(t, e.BindScroll(0.1))
	assert.Equal(t, 0.0, e.Targets().Progress, "threshold itself maps to 0")
}

func TestExplosionTimings(t *testing.T) {
	tests := []struct {
		mode  Mode
		want  float64
		delay time.Duration
	}{
		{ModeLinear, 0, 1500 * time.Millisecond},
		{ModeRandom, 1, 2500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			e, clock := newTestEngine(t, testConfig())
			if tt.mode == ModeLinear {
				require.NoError(t, e.SetMode(ModeRandom))
			}

			require.NoError(t, e.TriggerExplosion(tt.mode))
			tg := e.Targets()
			assert.Equal(t, 1.0, tg.Progress)
			assert.Equal(t, tt.want, tg.Mode)

			clock.Advance(tt.delay - 50*time.Millisecond)
			assert.Equal(t, 1.0, e.Targets().Progress, "still exploded just before the delay")

			clock.Advance(100 * time.Millisecond)
			assert.Equal(t, 0.0, e.Targets().Progress, "reverted just after the delay")
			assert.Equal(t, tt.want, e.Targets().Mode, "mode is left as set")
		})
	}
}

func TestLaterExplosionReplacesRevert(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())

	require.NoError(t, e.TriggerExplosion(ModeLinear))
	clock.Advance(time.Second)
	require.NoError(t, e.TriggerExplosion(ModeRandom))

	clock.Advance(time.Second)
	assert.Equal(t, 1.0, e.Targets().Progress, "first revert was replaced")

	clock.Advance(1600 * time.Millisecond)
	assert.Equal(t, 0.0, e.Targets().Progress)
}

func TestProgressWriteCancelsRevert(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())

	require.NoError(t, e.TriggerExplosion(ModeLinear))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, e.BindScroll(0.55))
	assert.InDelta(t, 0.5, e.Targets().Progress, 1e-9)

	clock.Advance(1100 * time.Millisecond)
	assert.InDelta(t, 0.5, e.Targets().Progress, 1e-9, "scroll position survives the revert deadline")

	require.NoError(t, e.TriggerExplosion(ModeRandom))
	require.NoError(t, e.SetProgress(0.7))
	clock.Advance(3 * time.Second)
	assert.Equal(t, 0.7, e.Targets().Progress)

	require.NoError(t, e.TriggerExplosion(ModeLinear))
	require.NoError(t, e.BindScroll(0.05))
	require.NoError(t, e.SetProgress(0.3))
	clock.Advance(2 * time.Second)
	assert.Equal(t, 0.3, e.Targets().Progress, "scroll below the threshold also cancels")
}

func TestRevertAppliesDuringTicks(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())
	require.NoError(t, e.TriggerExplosion(ModeLinear))

	f := runFor(t, e, clock, time.Second)
	assert.Greater(t, f.Progress, float32(0.9))

	f = runFor(t, e, clock, 3*time.Second)
	assert.Less(t, f.Progress, float32(0.01), "progress springs back after the revert")
}

func TestFirstTickAndFrameClamp(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())

	f, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Time)
	assert.Equal(t, int64(1), f.Tick)

	clock.Advance(10 * time.Second)
	f, err = e.Tick()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f.Time, 1e-9, "gaps are clamped to the max frame delta")

	clock.Advance(-time.Second)
	f, err = e.Tick()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f.Time, 1e-9, "backwards clocks add nothing")
}

// At rest the blended position is the origin. The pointer push is a separate
// layer that stays active at progress 0, so it is disabled here.
func TestZeroProgressKeepsOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.Pointer.Enabled = false
	e, clock := newTestEngine(t, cfg)
	require.NoError(t, e.SetMode(ModeRandom))

	f := runFor(t, e, clock, time.Second)
	assert.Greater(t, f.ModeBlend, float32(0.9))
	assert.Equal(t, float32(0), f.Progress)
	for i, p := range f.Grid.Particles {
		require.Equal(t, p.Origin, f.Positions[i])
		require.Equal(t, float32(1), f.Alphas[i])
	}
}

func TestExplosionDisplacesParticles(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())
	require.NoError(t, e.TriggerExplosion(ModeRandom))

	f := runFor(t, e, clock, 500*time.Millisecond)
	assert.Equal(t, 0, f.Degenerate)

	moved := 0
	for i, p := range f.Grid.Particles {
		pos := f.Positions[i]
		require.False(t, math.IsNaN(float64(pos.X())) || math.IsNaN(float64(pos.Z())))
		if pos.Sub(p.Origin).Len() > 0.1 {
			moved++
		}
	}
	assert.Equal(t, f.Grid.Count(), moved)
}

func TestViewportResizeKeepsGrid(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	grid := e.Grid()
	before := grid.Origins()

	require.NoError(t, e.SetViewport(1920, 1080, 3))
	f, err := e.Tick()
	require.NoError(t, err)

	assert.Same(t, grid, f.Grid)
	assert.Equal(t, before, f.Grid.Origins())
	assert.Equal(t, float32(2), f.PixelRatio, "pixel ratio is capped")
	assert.Equal(t, float32(3840), f.ResolutionW)
	assert.Equal(t, float32(2160), f.ResolutionH)

	err = e.SetViewport(0, 100, 1)
	assert.True(t, errors.Is(err, geometry.ErrInvalidDimension))
}

func TestRebuildRegeneratesGrid(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	old := e.Grid()

	require.NoError(t, e.Rebuild(10, 8))
	g := e.Grid()
	assert.NotSame(t, old, g)
	assert.Equal(t, 80, g.Count())

	f, err := e.Tick()
	require.NoError(t, err)
	assert.Len(t, f.Positions, 80)

	err = e.Rebuild(-1, 8)
	assert.True(t, errors.Is(err, geometry.ErrInvalidDimension))
	assert.Same(t, g, e.Grid(), "failed rebuild keeps the grid")
}

func TestModeBlendIsContinuous(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())
	require.NoError(t, e.SetMode(ModeRandom))

	var prev float32
	sawMiddle := false
	for i := 0; i < 60; i++ {
		f, err := e.Tick()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f.ModeBlend, prev)
		if f.ModeBlend > 0.1 && f.ModeBlend < 0.9 {
			sawMiddle = true
		}
		prev = f.ModeBlend
		clock.Advance(frame)
	}
	assert.True(t, sawMiddle, "blend must pass through intermediate values")
	assert.Greater(t, prev, float32(0.99))
}

func TestAnimateModeEasesTarget(t *testing.T) {
	direct, dclock := newTestEngine(t, testConfig())
	eased, eclock := newTestEngine(t, testConfig())
	require.NoError(t, direct.SetMode(ModeRandom))
	require.NoError(t, eased.AnimateMode(ModeRandom, time.Second))

	fd := runFor(t, direct, dclock, 200*time.Millisecond)
	fe := runFor(t, eased, eclock, 200*time.Millisecond)
	assert.Less(t, fe.ModeBlend, fd.ModeBlend, "eased transition starts slower")

	fe = runFor(t, eased, eclock, 2*time.Second)
	assert.Greater(t, fe.ModeBlend, float32(0.99))
}

func TestSetModeCancelsTween(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())
	require.NoError(t, e.AnimateMode(ModeRandom, 10*time.Second))
	runFor(t, e, clock, 100*time.Millisecond)

	require.NoError(t, e.SetMode(ModeLinear))
	f := runFor(t, e, clock, time.Second)
	assert.Less(t, f.ModeBlend, float32(0.01))
}

func TestPointerReachesSnapshot(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())
	require.NoError(t, e.SetPointer(2, -0.5))
	assert.Equal(t, 1.0, e.Targets().PointerX)

	f := runFor(t, e, clock, 100*time.Millisecond)
	assert.Greater(t, f.MouseX, float32(0))
	assert.Less(t, f.MouseY, float32(0))
	assert.Equal(t, float32(0.2), f.MouseInfluence)
}

func TestIntensityDrivesNoiseStrength(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())
	f := runFor(t, e, clock, 100*time.Millisecond)
	assert.InDelta(t, 3, float64(f.NoiseStrength), 1e-5)

	require.NoError(t, e.SetIntensity(2))
	f = runFor(t, e, clock, 3*time.Second)
	assert.InDelta(t, 6, float64(f.NoiseStrength), 1e-2)

	require.NoError(t, e.SetIntensity(math.NaN()))
	assert.Equal(t, 0.0, e.Targets().Intensity)
}

func TestTexturePassesThrough(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	tex := struct{ name string }{"photo"}
	require.NoError(t, e.SetTexture(tex))
	f, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, tex, f.Texture)
}

func TestDegenerateSamplesClampedAndLoggedOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Random.Strength = 3e38 // Finite, but overflows float32 once scaled
	var logs bytes.Buffer
	e, clock := newTestEngine(t, cfg, WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	require.NoError(t, e.SetMode(ModeRandom))
	require.NoError(t, e.SetProgress(1))

	f := runFor(t, e, clock, 500*time.Millisecond)
	assert.Equal(t, f.Grid.Count(), f.Degenerate)
	for i, p := range f.Grid.Particles {
		require.Equal(t, p.Origin, f.Positions[i])
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "clamped particles to rest"))
}

func TestNonFiniteSnapshotScalarsReplaced(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Materialize = false
	cfg.Random.Strength = math.Inf(1)
	cfg.Render.PointSize = math.NaN()
	cfg.Render.ColorIntensity = 1e300
	var logs bytes.Buffer
	e, clock := newTestEngine(t, cfg, WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

	f := runFor(t, e, clock, 500*time.Millisecond)
	assert.Equal(t, float32(0), f.NoiseStrength)
	assert.Equal(t, float32(1), f.PointSize)
	assert.Equal(t, float32(1), f.ColorIntensity)
	assert.Equal(t, float32(cfg.Linear.Strength), f.LinearStrength, "finite fields are untouched")

	_, err := json.Marshal(f.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(logs.String(), "replaced non-finite frame parameters"))
	assert.Contains(t, logs.String(), "noiseStrength")
}

func TestMaterializeOff(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Materialize = false
	e, _ := newTestEngine(t, cfg)
	f, err := e.Tick()
	require.NoError(t, err)
	assert.Nil(t, f.Positions)
	assert.NotNil(t, f.Grid)
}

func TestPerfCollectorRecordsTicks(t *testing.T) {
	pc := telemetry.NewPerfCollector(10)
	e, clock := newTestEngine(t, testConfig(), WithPerfCollector(pc))
	runFor(t, e, clock, 100*time.Millisecond)

	stats := pc.Stats()
	assert.Contains(t, stats.PhaseAvg, telemetry.PhaseParticles)
	assert.Greater(t, stats.ParticlesPerSecond, 0.0)
}

func TestConcurrentWriters(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				switch rng.Intn(6) {
				case 0:
					_ = e.BindScroll(rng.Float64()*2 - 0.5)
				case 1:
					_ = e.SetPointer(rng.Float64()*4-2, rng.Float64()*4-2)
				case 2:
					_ = e.TriggerExplosion(Mode(rng.Intn(2)))
				case 3:
					_ = e.SetViewport(100+rng.Float64()*1000, 100+rng.Float64()*1000, rng.Float64()*4)
				case 4:
					_ = e.AnimateMode(Mode(rng.Intn(2)), time.Duration(rng.Intn(500))*time.Millisecond)
				case 5:
					_ = e.SetIntensity(rng.Float64() * 3)
				}
			}
		}(int64(w))
	}

	for i := 0; i < 200; i++ {
		f, err := e.Tick()
		require.NoError(t, err)
		assert.True(t, f.Progress >= 0 && f.Progress <= 1)
		assert.True(t, f.ModeBlend >= 0 && f.ModeBlend <= 1)
		assert.True(t, f.MouseX >= -1 && f.MouseX <= 1)
		assert.LessOrEqual(t, f.PixelRatio, float32(2))
		clock.Advance(frame)
	}
	close(stop)
	wg.Wait()
}

func TestAttachAndDispose(t *testing.T) {
	e, clock := newTestEngine(t, testConfig())
	driver := NewManualDriver()

	frames := 0
	require.NoError(t, e.Attach(driver, SinkFunc(func(f *Frame) {
		frames++
		clock.Advance(frame)
	})))
	assert.Equal(t, 1, driver.Subscribers())

	driver.Fire()
	driver.Fire()
	assert.Equal(t, 2, frames)

	// Re-attaching releases the previous subscription
	require.NoError(t, e.Attach(driver, SinkFunc(func(f *Frame) { frames++ })))
	assert.Equal(t, 1, driver.Subscribers())

	e.Dispose()
	e.Dispose()
	assert.True(t, e.Disposed())
	assert.Equal(t, 0, driver.Subscribers())
	assert.Nil(t, e.Grid())

	driver.Fire()
	assert.Equal(t, 2, frames, "no ticks after dispose")

	_, err := e.Tick()
	assert.Equal(t, ErrDisposed, err)
	assert.Equal(t, ErrDisposed, e.SetPointer(0, 0))
	assert.Equal(t, ErrDisposed, e.TriggerExplosion(ModeRandom))
	assert.Equal(t, ErrDisposed, e.Attach(driver, nil))
	assert.Equal(t, ErrDisposed, e.Rebuild(4, 4))
}

func TestRunStopsOnContext(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(), WithClock(SystemClock{}))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	frames := 0
	err := e.Run(ctx, time.Millisecond, SinkFunc(func(f *Frame) {
		mu.Lock()
		frames++
		mu.Unlock()
	}))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	mu.Lock()
	assert.Greater(t, frames, 0)
	mu.Unlock()
}

func TestRunDisposesOnPanic(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(), WithClock(SystemClock{}))
	assert.Panics(t, func() {
		_ = e.Run(context.Background(), time.Millisecond, SinkFunc(func(f *Frame) {
			panic("sink failed")
		}))
	})
	assert.True(t, e.Disposed())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Random ")
	require.NoError(t, err)
	assert.Equal(t, ModeRandom, m)

	_, err = ParseMode("spiral")
	assert.Error(t, err)
	assert.Equal(t, "linear", ModeLinear.String())
}

func TestAlpha(t *testing.T) {
	assert.Equal(t, float32(1), Alpha(1, 0))
	assert.Equal(t, float32(0), Alpha(1, 60))
	assert.InDelta(t, 0.5, float64(Alpha(1, 35)), 1e-6)
	assert.Equal(t, float32(0), Alpha(0, 0))
}
