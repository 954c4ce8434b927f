package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pthm-cable/deconstruct/engine"
)

// ErrUnknownMessage is returned for messages with an unrecognized type.
var ErrUnknownMessage = errors.New("unknown message type")

// maxTweenDuration caps client-requested mode transitions.
const maxTweenDuration = 60 * time.Second

// Controller is the engine surface clients can drive.
type Controller interface {
	SetProgress(p float64) error
	BindScroll(scroll float64) error
	SetPointer(x, y float64) error
	TriggerExplosion(mode engine.Mode) error
	SetMode(mode engine.Mode) error
	AnimateMode(mode engine.Mode, duration time.Duration) error
	SetViewport(width, height, pixelRatio float64) error
	SetIntensity(v float64) error
}

// Message is a client control message. Fields are read according to Type:
//
//	{"type":"scroll","value":0.4}
//	{"type":"progress","value":1}
//	{"type":"pointer","x":0.2,"y":-0.5}
//	{"type":"explode","kind":"random"}
//	{"type":"mode","kind":"linear","duration":1.2}
//	{"type":"viewport","width":1280,"height":720,"pixelRatio":2}
//	{"type":"intensity","value":1.5}
type Message struct {
	Type       string   `json:"type"`
	Value      *float64 `json:"value,omitempty"`
	X          float64  `json:"x,omitempty"`
	Y          float64  `json:"y,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Duration   float64  `json:"duration,omitempty"` // Seconds; mode only, 0 switches via the spring
	Width      float64  `json:"width,omitempty"`
	Height     float64  `json:"height,omitempty"`
	PixelRatio float64  `json:"pixelRatio,omitempty"`
}

// Decode parses a raw client message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decoding message: %w", err)
	}
	return m, nil
}

// Apply forwards the message to c.
func (m Message) Apply(c Controller) error {
	switch m.Type {
	case "scroll", "progress", "intensity":
		if m.Value == nil {
			return fmt.Errorf("%s message without value", m.Type)
		}
		switch m.Type {
		case "scroll":
			return c.BindScroll(*m.Value)
		case "progress":
			return c.SetProgress(*m.Value)
		default:
			return c.SetIntensity(*m.Value)
		}
	case "pointer":
		return c.SetPointer(m.X, m.Y)
	case "explode":
		mode, err := engine.ParseMode(m.Kind)
		if err != nil {
			return err
		}
		return c.TriggerExplosion(mode)
	case "mode":
		mode, err := engine.ParseMode(m.Kind)
		if err != nil {
			return err
		}
		if m.Duration > 0 {
			return c.AnimateMode(mode, tweenDuration(m.Duration))
		}
		return c.SetMode(mode)
	case "viewport":
		return c.SetViewport(m.Width, m.Height, m.PixelRatio)
	}
	return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
}

// tweenDuration converts client seconds, clamped to maxTweenDuration.
func tweenDuration(sec float64) time.Duration {
	if sec >= maxTweenDuration.Seconds() {
		return maxTweenDuration
	}
	return time.Duration(sec * float64(time.Second))
}
