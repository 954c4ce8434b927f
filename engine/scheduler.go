package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/geometry"
	"github.com/pthm-cable/deconstruct/motion"
	"github.com/pthm-cable/deconstruct/pointer"
	"github.com/pthm-cable/deconstruct/smoothing"
	"github.com/pthm-cable/deconstruct/telemetry"
)

// degenerateLogEvery rate-limits the clamped-sample warning.
const degenerateLogEvery = time.Second

// Scheduler owns all simulation state advanced by a tick: the control
// springs, the pointer filter and the mode tween. Only Engine calls it,
// always under the engine lock.
type Scheduler struct {
	cfg     *config.Config
	logger  *slog.Logger
	perf    *telemetry.PerfCollector
	blender *motion.Blender

	smoother *smoothing.Smoother
	pointer  *pointer.Interactor
	tween    *smoothing.ModeTween

	modeTarget float64 // Effective (possibly eased) target of the last tick
	modeSeq    uint64
	pointerSeq uint64

	started bool
	last    time.Time
	elapsed float64
	tick    int64

	lastDegenerateLog time.Time
	lastScalarLog     time.Time

	frame Frame
}

func newScheduler(cfg *config.Config, logger *slog.Logger, perf *telemetry.PerfCollector) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		logger:   logger,
		perf:     perf,
		blender:  motion.NewBlender(cfg),
		smoother: smoothing.NewSmoother(cfg.Smoothing),
		pointer:  pointer.New(cfg.Pointer),
	}
}

// resize reallocates the materialized buffers for n particles.
func (s *Scheduler) resize(n int) {
	if !s.cfg.Scheduler.Materialize {
		s.frame.Positions = nil
		s.frame.Alphas = nil
		return
	}
	s.frame.Positions = make([]mgl32.Vec3, n)
	s.frame.Alphas = make([]float32, n)
}

// frameDelta returns the clamped seconds since the previous tick.
// The first tick has dt = 0.
func (s *Scheduler) frameDelta(now time.Time) float64 {
	if !s.started {
		s.started = true
		s.last = now
		return 0
	}
	d := now.Sub(s.last)
	s.last = now
	if d < 0 {
		return 0
	}
	if limit := s.cfg.Derived.MaxFrameDelta; limit > 0 && d > limit {
		d = limit
	}
	return d.Seconds()
}

// effectiveMode resolves the mode target for this tick, starting or
// cancelling the eased transition when the mode slot changed.
func (s *Scheduler) effectiveMode(in inputs, dt float64) float64 {
	if in.ModeSeq != s.modeSeq {
		s.modeSeq = in.ModeSeq
		s.tween = nil
		if in.Tween != nil {
			s.tween = smoothing.NewModeTween(s.modeTarget, in.Tween.To, in.Tween.Duration)
		}
	}
	target := in.Mode
	if s.tween != nil {
		target = s.tween.Update(dt)
		if s.tween.Done {
			s.tween = nil
		}
	}
	s.modeTarget = target
	return target
}

// pointerScale is the world-space extent the pointer's NDC maps onto:
// the configured visible height at z=0, widened to the viewport aspect.
func (s *Scheduler) pointerScale(in inputs) mgl32.Vec2 {
	h := float32(s.cfg.Render.ViewportHeight)
	aspect := float32(s.cfg.Render.ViewportWidth / s.cfg.Render.ViewportHeight)
	if in.Width > 0 && in.Height > 0 {
		aspect = float32(in.Width / in.Height)
	}
	return mgl32.Vec2{h * aspect, h}
}

// step advances one tick against a single input snapshot.
func (s *Scheduler) step(grid *geometry.Grid, in inputs, now time.Time) *Frame {
	cfg := s.cfg

	s.perf.StartTick()
	s.perf.StartPhase(telemetry.PhaseInputs)

	dt := s.frameDelta(now)
	s.elapsed += dt
	s.tick++
	modeTarget := s.effectiveMode(in, dt)

	s.perf.StartPhase(telemetry.PhaseSmoothing)
	v := s.smoother.Step(dt, smoothing.Targets{
		Progress:  in.Progress,
		Mode:      modeTarget,
		Intensity: in.Intensity,
	})
	progress := motion.Clamp01(float32(v.Progress))
	modeBlend := motion.Clamp01(float32(v.ModeBlend))

	s.perf.StartPhase(telemetry.PhasePointer)
	fresh := in.PointerSeq != s.pointerSeq
	s.pointerSeq = in.PointerSeq
	mouse := s.pointer.Step(dt, in.Pointer, fresh)

	influence := float32(cfg.Pointer.Influence)
	if !cfg.Pointer.Enabled {
		influence = 0
	}
	pr := in.PixelRatio
	snap := Snapshot{
		Tick:           s.tick,
		Time:           s.elapsed,
		Progress:       progress,
		ModeBlend:      modeBlend,
		PointSize:      float32(cfg.Render.PointSize),
		PixelRatio:     float32(pr),
		ResolutionW:    float32(in.Width * pr),
		ResolutionH:    float32(in.Height * pr),
		LinearStrength: float32(cfg.Linear.Strength),
		NoiseStrength:  float32(cfg.Random.Strength * v.Intensity),
		MouseX:         mouse.X(),
		MouseY:         mouse.Y(),
		MouseInfluence: influence,
		ColorIntensity: float32(cfg.Render.ColorIntensity),
		Residual:       s.blender.Residual,
	}

	if bad := finiteScalars(&snap); len(bad) > 0 && now.Sub(s.lastScalarLog) >= degenerateLogEvery {
		s.lastScalarLog = now
		s.logger.Warn("replaced non-finite frame parameters",
			"error", motion.ErrDegenerateSample,
			"fields", bad,
			"tick", s.tick,
		)
	}

	s.frame.Snapshot = snap
	s.frame.Grid = grid
	s.frame.Texture = in.Texture
	s.frame.Degenerate = 0

	s.perf.StartPhase(telemetry.PhaseParticles)
	if cfg.Scheduler.Materialize && grid != nil {
		s.materialize(grid, snap, s.pointerScale(in))
		s.perf.SetParticles(grid.Count())
		if s.frame.Degenerate > 0 && now.Sub(s.lastDegenerateLog) >= degenerateLogEvery {
			s.lastDegenerateLog = now
			s.logger.Warn("clamped particles to rest",
				"error", motion.ErrDegenerateSample,
				"count", s.frame.Degenerate,
				"tick", s.tick,
			)
		}
	}
	s.perf.EndTick()

	return &s.frame
}

// finiteScalars replaces every non-finite snapshot scalar with its neutral
// value and returns the json names of the replaced fields.
func finiteScalars(snap *Snapshot) []string {
	var bad []string
	fix := func(name string, v *float32, fallback float32) {
		if f := float64(*v); math.IsNaN(f) || math.IsInf(f, 0) {
			*v = fallback
			bad = append(bad, name)
		}
	}
	fix("progress", &snap.Progress, 0)
	fix("modeBlend", &snap.ModeBlend, 0)
	fix("pointSize", &snap.PointSize, 1)
	fix("pixelRatio", &snap.PixelRatio, 1)
	fix("resolutionW", &snap.ResolutionW, 0)
	fix("resolutionH", &snap.ResolutionH, 0)
	fix("linearStrength", &snap.LinearStrength, 0)
	fix("noiseStrength", &snap.NoiseStrength, 0)
	fix("mouseX", &snap.MouseX, 0)
	fix("mouseY", &snap.MouseY, 0)
	fix("mouseInfluence", &snap.MouseInfluence, 0)
	fix("colorIntensity", &snap.ColorIntensity, 1)
	fix("residual", &snap.Residual, 0)
	if math.IsNaN(snap.Time) || math.IsInf(snap.Time, 0) {
		snap.Time = 0
		bad = append(bad, "time")
	}
	return bad
}

// materialize computes every particle's position and alpha:
// blend, pointer push, residual cohesion, then the finiteness guard.
func (s *Scheduler) materialize(grid *geometry.Grid, snap Snapshot, scale mgl32.Vec2) {
	f := motion.Params{
		Time:           snap.Time,
		Progress:       snap.Progress,
		ModeBlend:      snap.ModeBlend,
		LinearStrength: snap.LinearStrength,
		NoiseStrength:  snap.NoiseStrength,
	}
	push := snap.MouseInfluence != 0 && s.pointer.Active(scale)
	fade := motion.Smoothstep(1, 0.8, snap.Progress)

	for i := range grid.Particles {
		p := &grid.Particles[i]
		pos := s.blender.Blend(p, f)
		if push {
			pos = s.pointer.Apply(pos, scale, snap.Progress)
		}
		pos = s.blender.Cohere(pos, p, snap.Progress)
		pos, ok := motion.Guard(pos, p)
		if !ok {
			s.frame.Degenerate++
		}
		s.frame.Positions[i] = pos
		s.frame.Alphas[i] = Alpha(fade, pos.Z())
	}
}

// Alpha is the per-particle opacity: the progress fade times a depth fade
// between z=20 and z=50. fade is smoothstep(1, 0.8, progress).
func Alpha(fade, z float32) float32 {
	return fade * (1 - motion.Smoothstep(20, 50, z))
}
