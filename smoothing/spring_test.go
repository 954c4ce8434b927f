package smoothing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/deconstruct/config"
)

const frame = 1.0 / 60

func defaultSmoothing(t *testing.T) config.SmoothingConfig {
	t.Helper()
	return config.Default().Smoothing
}

func TestSpringConverges(t *testing.T) {
	cfg := defaultSmoothing(t)
	s := NewSpring(cfg.Progress, cfg.MaxSubstep)

	for i := 0; i < 5*60; i++ {
		s.Step(frame, 1)
	}
	assert.InDelta(t, 1, s.X, 1e-3)
	assert.True(t, s.Settled(1, 1e-3))
}

func TestOverdampedSpringDoesNotOscillate(t *testing.T) {
	cfg := defaultSmoothing(t)
	for name, sc := range map[string]config.SpringConfig{
		"progress": cfg.Progress,
		"mode":     cfg.Mode,
	} {
		t.Run(name, func(t *testing.T) {
			s := NewSpring(sc, cfg.MaxSubstep)
			require.GreaterOrEqual(t, s.DampingRatio(), 1.0)

			crossings := 0
			prev := s.X - 1
			maxX := s.X
			for i := 0; i < 10*60; i++ {
				s.Step(frame, 1)
				d := s.X - 1
				if (prev < 0) != (d < 0) {
					crossings++
				}
				prev = d
				maxX = math.Max(maxX, s.X)
			}
			assert.LessOrEqual(t, crossings, 1)
			assert.Less(t, maxX-1, 0.01, "overshoot")
		})
	}
}

func TestSpringStableUnderLargeStep(t *testing.T) {
	cfg := defaultSmoothing(t)
	s := NewSpring(cfg.Mode, cfg.MaxSubstep)

	for i := 0; i < 10; i++ {
		x := s.Step(1, 1)
		require.False(t, math.IsNaN(x) || math.IsInf(x, 0))
	}
	assert.InDelta(t, 1, s.X, 1e-3)
}

func TestSpringIgnoresBadInputs(t *testing.T) {
	cfg := defaultSmoothing(t)
	s := NewSpring(cfg.Progress, cfg.MaxSubstep)
	s.Reset(0.4)

	assert.Equal(t, 0.4, s.Step(0, 1))
	assert.Equal(t, 0.4, s.Step(-1, 1))
	assert.Equal(t, 0.4, s.Step(math.NaN(), 1))
	assert.Equal(t, 0.4, s.Step(frame, math.NaN()))
	assert.Equal(t, 0.0, s.V)
}

func TestModeSettlesFasterThanProgress(t *testing.T) {
	sm := NewSmoother(defaultSmoothing(t))

	settle := func(s *Spring) int {
		for i := 1; i <= 20*60; i++ {
			s.Step(frame, 1)
			if s.Settled(1, 1e-2) {
				return i
			}
		}
		return math.MaxInt32
	}
	assert.Less(t, settle(sm.Mode), settle(sm.Progress))
}

func TestSmootherStartsAtRestWithUnitIntensity(t *testing.T) {
	sm := NewSmoother(defaultSmoothing(t))
	v := sm.Current()
	assert.Equal(t, 0.0, v.Progress)
	assert.Equal(t, 0.0, v.ModeBlend)
	assert.Equal(t, 1.0, v.Intensity)

	v = sm.Step(frame, Targets{Progress: 0, Mode: 0, Intensity: 1})
	assert.Equal(t, Values{Progress: 0, ModeBlend: 0, Intensity: 1}, v)
}

func TestModeTweenEasesToTarget(t *testing.T) {
	tw := NewModeTween(0, 1, 1)

	first := tw.Update(0.1)
	assert.Greater(t, first, 0.0)
	assert.Less(t, first, 0.05, "quadratic ease starts slow")

	mid := tw.Update(0.4)
	assert.InDelta(t, 0.5, mid, 1e-3)
	assert.False(t, tw.Done)

	last := tw.Update(0.6)
	assert.Equal(t, 1.0, last)
	assert.True(t, tw.Done)
	assert.Equal(t, 1.0, tw.Update(frame))
}

func TestModeTweenZeroDuration(t *testing.T) {
	tw := NewModeTween(1, 0, 0)
	assert.True(t, tw.Done)
	assert.Equal(t, 0.0, tw.Update(frame))
	assert.Equal(t, 0.0, tw.To())
}
