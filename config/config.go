// Package config provides configuration loading and access for the particle engine.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Validate for configurations the engine cannot run.
var ErrInvalid = errors.New("invalid config")

// Config holds all engine configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Linear    LinearConfig    `yaml:"linear"`
	Random    RandomConfig    `yaml:"random"`
	Blend     BlendConfig     `yaml:"blend"`
	Pointer   PointerConfig   `yaml:"pointer"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Explosion ExplosionConfig `yaml:"explosion"`
	Scroll    ScrollConfig    `yaml:"scroll"`
	Render    RenderConfig    `yaml:"render"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings for the graphical front-ends.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GridConfig holds particle grid dimensions.
type GridConfig struct {
	Width   int     `yaml:"width"`   // Particles per row
	Height  int     `yaml:"height"`  // Particles per column
	Spacing float64 `yaml:"spacing"` // World units between neighbours
	Seed    int64   `yaml:"seed"`    // Permutation/direction seed (0 = time-based)
}

// LinearConfig holds the directional "glitch" motion parameters.
type LinearConfig struct {
	Direction     [3]float64 `yaml:"direction"`       // Drift direction (dx, dy, dz)
	Strength      float64    `yaml:"strength"`        // linearStrength
	WaveRowFreq   float64    `yaml:"wave_row_freq"`   // a: row frequency of the glitch sine
	WaveTimeFreq  float64    `yaml:"wave_time_freq"`  // b: time frequency of the glitch sine
	WaveRowCos    float64    `yaml:"wave_row_cos"`    // c: row frequency of the glitch cosine
	GlitchLow     float64    `yaml:"glitch_low"`      // smoothstep lower edge on |wave|
	GlitchHigh    float64    `yaml:"glitch_high"`     // smoothstep upper edge on |wave|
	GlitchX       float64    `yaml:"glitch_x"`        // k1: horizontal slice offset scale
	GlitchZ       float64    `yaml:"glitch_z"`        // k2: depth slice offset scale
	Scale         float64    `yaml:"scale"`           // XY expansion per unit progress
	Ripple        float64    `yaml:"ripple"`          // Column ripple amplitude
	RippleColFreq float64    `yaml:"ripple_col_freq"` // Column ripple frequency
}

// RandomConfig holds the curl-noise dispersion parameters.
type RandomConfig struct {
	Frequency float64 `yaml:"frequency"`  // Spatial frequency of the noise sample point
	Speed     float64 `yaml:"speed"`      // Time scroll of the noise sample point
	PhaseStep float64 `yaml:"phase_step"` // Per-permuted-index phase offset (z axis)
	Strength  float64 `yaml:"strength"`   // noiseStrength at intensity 1
	Radial    float64 `yaml:"radial"`     // k3: spherical dispersion scale
	Swirl     float64 `yaml:"swirl"`      // k4: curl crawl scale
	Epsilon   float64 `yaml:"epsilon"`    // Central difference step
	Seed      int64   `yaml:"seed"`       // Noise seed
}

// BlendConfig holds mode blending parameters.
type BlendConfig struct {
	Residual float64 `yaml:"residual"` // Residual cohesion toward rest position [0,1]
}

// PointerConfig holds pointer interaction parameters.
type PointerConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Influence  float64 `yaml:"influence"`   // mouseInfluence
	MaxDist    float64 `yaml:"max_dist"`    // Radius of effect in NDC
	DecayRate  float64 `yaml:"decay_rate"`  // Idle decay toward center, per second
	FollowRate float64 `yaml:"follow_rate"` // Low-pass follow rate, per second
}

// SpringConfig holds mass-spring-damper constants.
type SpringConfig struct {
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	Mass      float64 `yaml:"mass"`
}

// SmoothingConfig holds the control parameter springs.
type SmoothingConfig struct {
	Progress     SpringConfig `yaml:"progress"`
	Mode         SpringConfig `yaml:"mode"`
	Intensity    SpringConfig `yaml:"intensity"`
	MaxSubstep   float64      `yaml:"max_substep"`    // Seconds; integrator substep cap
	ModeTweenSec float64      `yaml:"mode_tween_sec"` // Default eased mode transition duration
}

// ExplosionConfig holds one-shot explosion timings.
type ExplosionConfig struct {
	LinearRevertSec float64 `yaml:"linear_revert_sec"`
	RandomRevertSec float64 `yaml:"random_revert_sec"`
}

// ScrollConfig holds scroll binding parameters.
type ScrollConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// RenderConfig holds renderer-facing pass-through parameters.
type RenderConfig struct {
	PointSize      float64 `yaml:"point_size"`
	PixelRatio     float64 `yaml:"pixel_ratio"`
	MaxPixelRatio  float64 `yaml:"max_pixel_ratio"`
	ColorIntensity float64 `yaml:"color_intensity"`
	ViewportWidth  float64 `yaml:"viewport_width"`  // Visible world width at z=0
	ViewportHeight float64 `yaml:"viewport_height"` // Visible world height at z=0
	CameraDistance float64 `yaml:"camera_distance"`
}

// SchedulerConfig holds frame scheduling parameters.
type SchedulerConfig struct {
	MaxFrameDelta float64 `yaml:"max_frame_delta"` // Seconds; larger gaps are clamped
	Materialize   bool    `yaml:"materialize"`     // Compute per-particle positions on the CPU
	TickRate      int     `yaml:"tick_rate"`       // Ticks per second for ticker-driven runs
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window"`
	TraceEvery          int `yaml:"trace_every"` // Write every Nth frame snapshot (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PixelRatio    float64       // Render.PixelRatio capped at Render.MaxPixelRatio
	LinearRevert  time.Duration // Explosion.LinearRevertSec
	RandomRevert  time.Duration // Explosion.RandomRevertSec
	MaxFrameDelta time.Duration // Scheduler.MaxFrameDelta
	TickInterval  time.Duration // 1s / Scheduler.TickRate
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Default returns the embedded defaults.
func Default() *Config {
	return MustLoad("")
}

// Validate reports configurations that would make the engine misbehave.
// Out-of-range blend factors are clamped by the engine and not rejected here.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalid, c.Grid.Width, c.Grid.Height)
	}
	if !(c.Grid.Spacing > 0) || math.IsInf(c.Grid.Spacing, 0) {
		return fmt.Errorf("%w: grid spacing %v", ErrInvalid, c.Grid.Spacing)
	}
	for name, v := range c.floats() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalid, name, v)
		}
	}
	springs := map[string]SpringConfig{
		"progress":  c.Smoothing.Progress,
		"mode":      c.Smoothing.Mode,
		"intensity": c.Smoothing.Intensity,
	}
	for name, s := range springs {
		if !(s.Mass > 0) || s.Stiffness < 0 || s.Damping < 0 {
			return fmt.Errorf("%w: %s spring k=%v c=%v m=%v", ErrInvalid, name, s.Stiffness, s.Damping, s.Mass)
		}
	}
	if c.Pointer.DecayRate < 0 || c.Pointer.FollowRate < 0 {
		return fmt.Errorf("%w: negative pointer rate", ErrInvalid)
	}
	if c.Random.Epsilon <= 0 {
		return fmt.Errorf("%w: curl epsilon %v", ErrInvalid, c.Random.Epsilon)
	}
	if c.Explosion.LinearRevertSec < 0 || c.Explosion.RandomRevertSec < 0 {
		return fmt.Errorf("%w: negative explosion delay", ErrInvalid)
	}
	if c.Scroll.Threshold < 0 || c.Scroll.Threshold >= 1 {
		return fmt.Errorf("%w: scroll threshold %v", ErrInvalid, c.Scroll.Threshold)
	}
	return nil
}

// floats lists every float parameter the engine reads, by yaml path.
func (c *Config) floats() map[string]float64 {
	return map[string]float64{
		"linear.direction[0]":           c.Linear.Direction[0],
		"linear.direction[1]":           c.Linear.Direction[1],
		"linear.direction[2]":           c.Linear.Direction[2],
		"linear.strength":               c.Linear.Strength,
		"linear.wave_row_freq":          c.Linear.WaveRowFreq,
		"linear.wave_time_freq":         c.Linear.WaveTimeFreq,
		"linear.wave_row_cos":           c.Linear.WaveRowCos,
		"linear.glitch_low":             c.Linear.GlitchLow,
		"linear.glitch_high":            c.Linear.GlitchHigh,
		"linear.glitch_x":               c.Linear.GlitchX,
		"linear.glitch_z":               c.Linear.GlitchZ,
		"linear.scale":                  c.Linear.Scale,
		"linear.ripple":                 c.Linear.Ripple,
		"linear.ripple_col_freq":        c.Linear.RippleColFreq,
		"random.frequency":              c.Random.Frequency,
		"random.speed":                  c.Random.Speed,
		"random.phase_step":             c.Random.PhaseStep,
		"random.strength":               c.Random.Strength,
		"random.radial":                 c.Random.Radial,
		"random.swirl":                  c.Random.Swirl,
		"random.epsilon":                c.Random.Epsilon,
		"blend.residual":                c.Blend.Residual,
		"pointer.influence":             c.Pointer.Influence,
		"pointer.max_dist":              c.Pointer.MaxDist,
		"pointer.decay_rate":            c.Pointer.DecayRate,
		"pointer.follow_rate":           c.Pointer.FollowRate,
		"smoothing.progress.stiffness":  c.Smoothing.Progress.Stiffness,
		"smoothing.progress.damping":    c.Smoothing.Progress.Damping,
		"smoothing.progress.mass":       c.Smoothing.Progress.Mass,
		"smoothing.mode.stiffness":      c.Smoothing.Mode.Stiffness,
		"smoothing.mode.damping":        c.Smoothing.Mode.Damping,
		"smoothing.mode.mass":           c.Smoothing.Mode.Mass,
		"smoothing.intensity.stiffness": c.Smoothing.Intensity.Stiffness,
		"smoothing.intensity.damping":   c.Smoothing.Intensity.Damping,
		"smoothing.intensity.mass":      c.Smoothing.Intensity.Mass,
		"smoothing.max_substep":         c.Smoothing.MaxSubstep,
		"smoothing.mode_tween_sec":      c.Smoothing.ModeTweenSec,
		"explosion.linear_revert_sec":   c.Explosion.LinearRevertSec,
		"explosion.random_revert_sec":   c.Explosion.RandomRevertSec,
		"scroll.threshold":              c.Scroll.Threshold,
		"render.point_size":             c.Render.PointSize,
		"render.pixel_ratio":            c.Render.PixelRatio,
		"render.max_pixel_ratio":        c.Render.MaxPixelRatio,
		"render.color_intensity":        c.Render.ColorIntensity,
		"render.viewport_width":         c.Render.ViewportWidth,
		"render.viewport_height":        c.Render.ViewportHeight,
		"render.camera_distance":        c.Render.CameraDistance,
		"scheduler.max_frame_delta":     c.Scheduler.MaxFrameDelta,
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PixelRatio = c.Render.PixelRatio
	if c.Render.MaxPixelRatio > 0 && c.Derived.PixelRatio > c.Render.MaxPixelRatio {
		c.Derived.PixelRatio = c.Render.MaxPixelRatio
	}

	c.Derived.LinearRevert = seconds(c.Explosion.LinearRevertSec)
	c.Derived.RandomRevert = seconds(c.Explosion.RandomRevertSec)
	c.Derived.MaxFrameDelta = seconds(c.Scheduler.MaxFrameDelta)

	rate := c.Scheduler.TickRate
	if rate <= 0 {
		rate = 60
	}
	c.Derived.TickInterval = time.Second / time.Duration(rate)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
