package engine

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// tweenRequest asks the scheduler to ease the mode target to To.
type tweenRequest struct {
	To       float64
	Duration float64 // Seconds
}

// inputs is one consistent copy of every external control value.
type inputs struct {
	Progress  float64
	Mode      float64
	ModeSeq   uint64 // Bumped on every mode write; lets the scheduler cancel tweens
	Tween     *tweenRequest
	Intensity float64

	Pointer    mgl32.Vec2
	PointerSeq uint64

	Width, Height float64
	PixelRatio    float64

	Texture any

	RevertPending bool
	RevertAt      time.Time
}

// mailbox holds latest-value slots written by any goroutine and read once
// per tick by the scheduler. There is no queue: a write replaces the slot.
type mailbox struct {
	mu sync.Mutex
	in inputs
}

func newMailbox(width, height, pixelRatio float64) *mailbox {
	return &mailbox{in: inputs{
		Intensity:  1,
		Width:      width,
		Height:     height,
		PixelRatio: pixelRatio,
	}}
}

// snapshot applies any due explosion revert and returns a copy.
func (m *mailbox) snapshot(now time.Time) inputs {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyRevert(now)
	return m.in
}

func (m *mailbox) applyRevert(now time.Time) {
	if m.in.RevertPending && !now.Before(m.in.RevertAt) {
		m.in.Progress = 0
		m.in.RevertPending = false
	}
}

func (m *mailbox) setProgress(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in.Progress = clamp01(p)
	m.in.RevertPending = false
}

// setModeLocked sets a discrete mode target and cancels any tween.
func (m *mailbox) setModeLocked(target float64) {
	m.in.Mode = target
	m.in.ModeSeq++
	m.in.Tween = nil
}

func (m *mailbox) setMode(target float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setModeLocked(clamp01(target))
}

func (m *mailbox) animateMode(target, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target = clamp01(target)
	m.in.Mode = target
	m.in.ModeSeq++
	m.in.Tween = &tweenRequest{To: target, Duration: duration}
}

// bindScroll maps scroll progress past threshold onto [0,1] and forces the
// linear model while scrolling. Either way it cancels a pending explosion
// revert.
func (m *mailbox) bindScroll(s, threshold float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in.RevertPending = false
	if !(s > threshold) {
		m.in.Progress = 0
		return
	}
	m.in.Progress = clamp01((s - threshold) / (1 - threshold))
	m.setModeLocked(0)
}

// explode jumps progress to 1 and schedules its revert. A later call
// replaces the pending revert.
func (m *mailbox) explode(mode float64, now time.Time, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setModeLocked(mode)
	m.in.Progress = 1
	m.in.RevertPending = true
	m.in.RevertAt = now.Add(delay)
}

func (m *mailbox) setPointer(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in.Pointer = mgl32.Vec2{float32(clampNDC(x)), float32(clampNDC(y))}
	m.in.PointerSeq++
}

func (m *mailbox) setViewport(w, h, pixelRatio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in.Width = w
	m.in.Height = h
	m.in.PixelRatio = pixelRatio
}

func (m *mailbox) setIntensity(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		v = 0
	}
	m.in.Intensity = v
}

func (m *mailbox) setTexture(tex any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in.Texture = tex
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampNDC(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
