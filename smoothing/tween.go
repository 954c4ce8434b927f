package smoothing

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ModeTween eases the mode target from one value to another over a fixed
// duration (quadratic in-out). The mode spring still produces the blend;
// the tween only shapes what it chases.
type ModeTween struct {
	tween *gween.Tween
	to    float64
	Done  bool
}

// NewModeTween creates a tween from -> to over duration seconds.
// A non-positive duration finishes on the first Update.
func NewModeTween(from, to, duration float64) *ModeTween {
	m := &ModeTween{to: to}
	if duration <= 0 {
		m.Done = true
		return m
	}
	m.tween = gween.New(float32(from), float32(to), float32(duration), ease.InOutQuad)
	return m
}

// Update advances the tween by dt seconds and returns the eased target.
func (m *ModeTween) Update(dt float64) float64 {
	if m.Done {
		return m.to
	}
	val, finished := m.tween.Update(float32(dt))
	if finished {
		m.Done = true
		return m.to
	}
	return float64(val)
}

// To returns the final value of the tween.
func (m *ModeTween) To() float64 {
	return m.to
}
