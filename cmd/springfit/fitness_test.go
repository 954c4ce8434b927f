package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/deconstruct/config"
)

func TestStepResponseDefaults(t *testing.T) {
	cfg := config.Default()

	progress := StepResponse(cfg.Smoothing.Progress, cfg.Smoothing.MaxSubstep)
	mode := StepResponse(cfg.Smoothing.Mode, cfg.Smoothing.MaxSubstep)

	assert.Less(t, progress.Overshoot, 0.01)
	assert.Less(t, progress.SettleTime, 2.0)
	assert.Less(t, mode.SettleTime, progress.SettleTime, "mode spring is the faster one")
}

func TestStepResponseUnderdamped(t *testing.T) {
	r := StepResponse(config.SpringConfig{Stiffness: 400, Damping: 2, Mass: 1}, 0.004)
	assert.Greater(t, r.Overshoot, 0.5)
}

func TestParamVectorRoundtrip(t *testing.T) {
	pv := NewParamVector(config.SpringConfig{Stiffness: 100, Damping: 30, Mass: 0.5})
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		assert.InDelta(t, raw[i], back[i], 1e-9)
	}

	c := pv.Clamp([]float64{-1, 1e6})
	assert.Equal(t, pv.Specs[0].Min, c[0])
	assert.Equal(t, pv.Specs[1].Max, c[1])
}

func TestNelderMeadImprovesFit(t *testing.T) {
	base := config.SpringConfig{Stiffness: 20, Damping: 4, Mass: 0.5}
	pv := NewParamVector(base)
	fe := NewFitnessEvaluator(pv, base, 0.004, 0.6)

	start := fe.Evaluate(pv.DefaultVector())
	res, err := optimize.Minimize(optimize.Problem{
		Func: func(x []float64) float64 {
			return fe.Evaluate(pv.Clamp(pv.Denormalize(x)))
		},
	}, pv.Normalize(pv.DefaultVector()), &optimize.Settings{FuncEvaluations: 200}, &optimize.NelderMead{})
	if err != nil {
		t.Logf("optimization ended: %v", err)
	}
	require.NotNil(t, res)
	assert.Less(t, res.F, start)
}

func TestSpringConfigLookup(t *testing.T) {
	cfg := config.Default()
	s, err := springConfig(cfg, "mode")
	require.NoError(t, err)
	assert.Equal(t, &cfg.Smoothing.Mode, s)

	_, err = springConfig(cfg, "nope")
	assert.Error(t, err)
}
