package config

import (
	"fmt"
	"strings"
)

// TransformMode selects which correction strategies run on every tick
type TransformMode int

const (
	ModeColorBalance TransformMode = iota
	ModeLinear
	ModeBoth
)

// ParseTransformMode accepts "cb", "lin" and "both"
func ParseTransformMode(s string) (TransformMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cb":
		return ModeColorBalance, nil
	case "lin":
		return ModeLinear, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeBoth, fmt.Errorf("unknown transform mode %q", s)
	}
}

func (m TransformMode) String() string {
	switch m {
	case ModeColorBalance:
		return "cb"
	case ModeLinear:
		return "lin"
	case ModeBoth:
		return "both"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ColorBalance reports whether thresholds are estimated
func (m TransformMode) ColorBalance() bool {
	return m == ModeColorBalance || m == ModeBoth
}

// Linear reports whether the bounded linear transform is estimated
func (m TransformMode) Linear() bool {
	return m == ModeLinear || m == ModeBoth
}
