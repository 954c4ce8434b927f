package engine

import (
	"fmt"
	"strings"
)

// Mode selects the displacement model the mode spring chases.
type Mode uint8

const (
	ModeLinear Mode = iota
	ModeRandom
)

// Target returns the mode target value: 0 for linear, 1 for random.
func (m Mode) Target() float64 {
	if m == ModeRandom {
		return 1
	}
	return 0
}

func (m Mode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeRandom:
		return "random"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode parses "linear" or "random" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return ModeLinear, nil
	case "random":
		return ModeRandom, nil
	}
	return ModeLinear, fmt.Errorf("unknown mode %q", s)
}
