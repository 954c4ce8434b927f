package main

import (
	"math"

	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/smoothing"
)

const (
	frameDT      = 1.0 / 60.0
	settleBand   = 0.02 // Fraction of the step
	maxSimTime   = 6.0  // Seconds
	overshootWgt = 200.0
)

// Response summarizes a unit step response.
type Response struct {
	SettleTime float64 // Seconds until x stays within the band; maxSimTime if never
	Overshoot  float64 // Peak excursion past the target, >= 0
}

// StepResponse drives a spring from 0 to 1 at 60 Hz.
func StepResponse(s config.SpringConfig, maxSubstep float64) Response {
	sp := smoothing.NewSpring(s, maxSubstep)

	var r Response
	lastOutside := 0.0
	for t := frameDT; t <= maxSimTime; t += frameDT {
		x := sp.Step(frameDT, 1)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Response{SettleTime: maxSimTime, Overshoot: math.Inf(1)}
		}
		if x-1 > r.Overshoot {
			r.Overshoot = x - 1
		}
		if math.Abs(x-1) > settleBand {
			lastOutside = t
		}
	}
	r.SettleTime = lastOutside + frameDT
	if r.SettleTime > maxSimTime {
		r.SettleTime = maxSimTime
	}
	return r
}

// FitnessEvaluator scores spring constants against a target settle time.
type FitnessEvaluator struct {
	params     *ParamVector
	base       config.SpringConfig
	maxSubstep float64
	target     float64

	last Response
}

// NewFitnessEvaluator creates an evaluator for base's mass.
func NewFitnessEvaluator(params *ParamVector, base config.SpringConfig, maxSubstep, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{params: params, base: base, maxSubstep: maxSubstep, target: target}
}

// Evaluate returns the squared settle-time error plus an overshoot penalty.
// Lower is better.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	r := StepResponse(fe.params.Apply(fe.base, raw), fe.maxSubstep)
	fe.last = r
	if math.IsInf(r.Overshoot, 0) {
		return math.MaxFloat64
	}
	d := r.SettleTime - fe.target
	return d*d + overshootWgt*r.Overshoot*r.Overshoot
}

// Last returns the response of the most recent evaluation.
func (fe *FitnessEvaluator) Last() Response {
	return fe.last
}
