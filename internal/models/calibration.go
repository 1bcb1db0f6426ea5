package models

import (
	"fmt"
	"math"
)

// Channel indexes follow OpenCV's BGR interleaving
const (
	Blue = iota
	Green
	Red
	NumChannels
)

// ChannelNames is indexed by channel
var ChannelNames = [NumChannels]string{"b", "g", "r"}

// Thresholds holds per-channel low/high clip values of the color balance stretch
type Thresholds struct {
	Low  [NumChannels]float64 `json:"low"`
	High [NumChannels]float64 `json:"high"`
}

// Validate checks low <= high on every channel
func (t Thresholds) Validate() error {
	for c := 0; c < NumChannels; c++ {
		if math.IsNaN(t.Low[c]) || math.IsNaN(t.High[c]) {
			return fmt.Errorf("channel %s: threshold is NaN", ChannelNames[c])
		}
		if t.Low[c] > t.High[c] {
			return fmt.Errorf("channel %s: low %.2f above high %.2f", ChannelNames[c], t.Low[c], t.High[c])
		}
	}
	return nil
}

// Flat returns the six scalars in wire order: low b,g,r then high b,g,r
func (t Thresholds) Flat() [2 * NumChannels]float64 {
	var out [2 * NumChannels]float64
	copy(out[:NumChannels], t.Low[:])
	copy(out[NumChannels:], t.High[:])
	return out
}

// LinearTransform maps a pixel value v of channel c to Shift[c] + Scale[c]*v
type LinearTransform struct {
	Shift [NumChannels]float64 `json:"shift"`
	Scale [NumChannels]float64 `json:"scale"`
}

// Validate enforces a strictly positive, finite scale on every channel
func (t LinearTransform) Validate() error {
	for c := 0; c < NumChannels; c++ {
		if math.IsNaN(t.Shift[c]) || math.IsInf(t.Shift[c], 0) {
			return fmt.Errorf("channel %s: shift is not finite", ChannelNames[c])
		}
		if math.IsNaN(t.Scale[c]) || math.IsInf(t.Scale[c], 0) || t.Scale[c] <= 0 {
			return fmt.Errorf("channel %s: scale %.4f must be positive", ChannelNames[c], t.Scale[c])
		}
	}
	return nil
}

// Flat returns the six scalars in wire order: shift b,g,r then scale b,g,r
func (t LinearTransform) Flat() [2 * NumChannels]float64 {
	var out [2 * NumChannels]float64
	copy(out[:NumChannels], t.Shift[:])
	copy(out[NumChannels:], t.Scale[:])
	return out
}

// CalibrationMode is the scheduler life-cycle state
type CalibrationMode int

const (
	ModeInitializing CalibrationMode = iota
	ModeContinuous
)

func (m CalibrationMode) String() string {
	switch m {
	case ModeInitializing:
		return "initializing"
	case ModeContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
