package smoothing

import "github.com/pthm-cable/deconstruct/config"

// Targets are the raw control values for one tick.
type Targets struct {
	Progress  float64 // [0,1]
	Mode      float64 // 0 = linear, 1 = random
	Intensity float64 // Noise strength multiplier
}

// Values are the smoothed control values for one tick.
type Values struct {
	Progress  float64
	ModeBlend float64
	Intensity float64
}

// Smoother owns one spring per control parameter. Mode uses a stiffer,
// faster-settling spring than progress; both share the same integrator.
type Smoother struct {
	Progress  *Spring
	Mode      *Spring
	Intensity *Spring
}

// NewSmoother creates the control springs from config.
// Intensity starts at 1 so the noise strength begins at its configured base.
func NewSmoother(cfg config.SmoothingConfig) *Smoother {
	s := &Smoother{
		Progress:  NewSpring(cfg.Progress, cfg.MaxSubstep),
		Mode:      NewSpring(cfg.Mode, cfg.MaxSubstep),
		Intensity: NewSpring(cfg.Intensity, cfg.MaxSubstep),
	}
	s.Intensity.Reset(1)
	return s
}

// Step advances every spring by dt.
func (s *Smoother) Step(dt float64, t Targets) Values {
	return Values{
		Progress:  s.Progress.Step(dt, t.Progress),
		ModeBlend: s.Mode.Step(dt, t.Mode),
		Intensity: s.Intensity.Step(dt, t.Intensity),
	}
}

// Current returns the smoothed values without advancing.
func (s *Smoother) Current() Values {
	return Values{
		Progress:  s.Progress.X,
		ModeBlend: s.Mode.X,
		Intensity: s.Intensity.X,
	}
}
