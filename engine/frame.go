package engine

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/deconstruct/geometry"
	"github.com/pthm-cable/deconstruct/telemetry"
)

// Snapshot is the immutable parameter set produced every tick. A GPU
// renderer can consume it directly as uniforms.
type Snapshot struct {
	Tick           int64   `json:"tick"`
	Time           float64 `json:"time"`
	Progress       float32 `json:"progress"`
	ModeBlend      float32 `json:"modeBlend"`
	PointSize      float32 `json:"pointSize"`
	PixelRatio     float32 `json:"pixelRatio"`
	ResolutionW    float32 `json:"resolutionW"`
	ResolutionH    float32 `json:"resolutionH"`
	LinearStrength float32 `json:"linearStrength"`
	NoiseStrength  float32 `json:"noiseStrength"`
	MouseX         float32 `json:"mouseX"`
	MouseY         float32 `json:"mouseY"`
	MouseInfluence float32 `json:"mouseInfluence"`
	ColorIntensity float32 `json:"colorIntensity"`
	Residual       float32 `json:"residual"`
}

// Record converts the snapshot into a frames.csv row.
func (s Snapshot) Record(degenerate int) telemetry.FrameRecord {
	return telemetry.FrameRecord{
		Tick:           s.Tick,
		Time:           s.Time,
		Progress:       s.Progress,
		ModeBlend:      s.ModeBlend,
		PointSize:      s.PointSize,
		PixelRatio:     s.PixelRatio,
		ResolutionW:    s.ResolutionW,
		ResolutionH:    s.ResolutionH,
		LinearStrength: s.LinearStrength,
		NoiseStrength:  s.NoiseStrength,
		MouseX:         s.MouseX,
		MouseY:         s.MouseY,
		MouseInfluence: s.MouseInfluence,
		ColorIntensity: s.ColorIntensity,
		Residual:       s.Residual,
		Degenerate:     degenerate,
	}
}

// Frame is the per-tick output handed to a Sink. Positions and Alphas are
// only filled when materialization is enabled; their backing arrays are
// reused by the next tick, so sinks must copy anything they keep.
type Frame struct {
	Snapshot

	Grid       *geometry.Grid
	Texture    any
	Positions  []mgl32.Vec3
	Alphas     []float32
	Degenerate int // Particles clamped to rest this tick
}

// Sink receives frames.
type Sink interface {
	Consume(f *Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f *Frame)

// Consume calls fn(f).
func (fn SinkFunc) Consume(f *Frame) { fn(f) }

// FrameDriver invokes subscribed callbacks once per display frame.
// The returned cancel func removes the subscription.
type FrameDriver interface {
	Subscribe(fn func()) (cancel func())
}

// ManualDriver is a FrameDriver fired explicitly, e.g. from a raylib
// render loop or a test.
type ManualDriver struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// NewManualDriver creates an idle driver.
func NewManualDriver() *ManualDriver {
	return &ManualDriver{subs: make(map[int]func())}
}

// Subscribe registers fn to run on every Fire.
func (d *ManualDriver) Subscribe(fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// Fire runs every subscriber once, outside the driver lock.
func (d *ManualDriver) Fire() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribers returns the number of live subscriptions.
func (d *ManualDriver) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}
