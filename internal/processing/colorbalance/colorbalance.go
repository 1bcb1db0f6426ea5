// Package colorbalance implements the percentile clip-and-stretch correction.
package colorbalance

import (
	"errors"
	"fmt"
	"math"

	"anti-instagram/internal/models"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyRegion is returned when the masked frame contains no pixels
var ErrEmptyRegion = errors.New("masked region is empty")

// degenerate is the narrowest threshold span that still stretches
const degenerate = 1e-6

// Estimator computes thresholds from masked frames
type Estimator struct {
	Percentage float64
}

func NewEstimator(percentage float64) *Estimator {
	return &Estimator{Percentage: percentage}
}

// Estimate satisfies the scheduler's color balance collaborator
func (e *Estimator) Estimate(mf models.MaskedFrame) (models.Thresholds, error) {
	return EstimateThresholds(mf, e.Percentage)
}

// Apply satisfies the scheduler's color balance collaborator
func (e *Estimator) Apply(f *models.Frame, th models.Thresholds) *models.Frame {
	return Apply(f, th)
}

// EstimateThresholds returns, per channel, the percentage-th percentile of the
// included pixels as low and the (100-percentage)-th as high.
func EstimateThresholds(mf models.MaskedFrame, percentage float64) (models.Thresholds, error) {
	var th models.Thresholds
	if err := mf.Validate(); err != nil {
		return th, fmt.Errorf("invalid masked frame: %w", err)
	}
	if percentage < 0 || percentage >= 50 {
		return th, fmt.Errorf("percentage must be in [0, 50), got %g", percentage)
	}

	var hist [models.NumChannels][256]int
	n := 0
	mf.Each(func(bgr [models.NumChannels]uint8) {
		for c := 0; c < models.NumChannels; c++ {
			hist[c][bgr[c]]++
		}
		n++
	})
	if n == 0 {
		return th, ErrEmptyRegion
	}

	sorted := make([]float64, n)
	for c := 0; c < models.NumChannels; c++ {
		expand(hist[c][:], sorted)
		th.Low[c] = stat.Quantile(percentage/100, stat.LinearInterp, sorted, nil)
		th.High[c] = stat.Quantile(1-percentage/100, stat.LinearInterp, sorted, nil)
	}
	return th, nil
}

// expand writes the histogram out as an ascending sample, which is the
// sorted input stat.Quantile expects
func expand(hist []int, dst []float64) {
	i := 0
	for v, count := range hist {
		for k := 0; k < count; k++ {
			dst[i] = float64(v)
			i++
		}
	}
}

// Clip limits every channel of f to [Low, High]. Channels whose span is
// degenerate are left untouched.
func Clip(f *models.Frame, th models.Thresholds) *models.Frame {
	var luts [models.NumChannels][256]uint8
	for c := 0; c < models.NumChannels; c++ {
		lo, hi := th.Low[c], th.High[c]
		for v := 0; v < 256; v++ {
			if hi-lo < degenerate {
				luts[c][v] = uint8(v)
				continue
			}
			luts[c][v] = toByte(math.Min(math.Max(float64(v), lo), hi))
		}
	}
	return applyLUT(f, &luts)
}

// Apply clips every channel to [Low, High] and rescales that span to the
// full 0..255 range. Channels whose span is degenerate are left untouched,
// since low == high carries no stretch.
func Apply(f *models.Frame, th models.Thresholds) *models.Frame {
	var luts [models.NumChannels][256]uint8
	for c := 0; c < models.NumChannels; c++ {
		lo, hi := th.Low[c], th.High[c]
		span := hi - lo
		for v := 0; v < 256; v++ {
			if span < degenerate {
				luts[c][v] = uint8(v)
				continue
			}
			clipped := math.Min(math.Max(float64(v), lo), hi)
			luts[c][v] = toByte((clipped - lo) * 255 / span)
		}
	}
	return applyLUT(f, &luts)
}

func applyLUT(f *models.Frame, luts *[models.NumChannels][256]uint8) *models.Frame {
	out := &models.Frame{
		Pix:    make([]uint8, len(f.Pix)),
		Width:  f.Width,
		Height: f.Height,
		Stamp:  f.Stamp,
		Seq:    f.Seq,
	}
	for i := 0; i+models.NumChannels <= len(f.Pix); i += models.NumChannels {
		for c := 0; c < models.NumChannels; c++ {
			out.Pix[i+c] = luts[c][f.Pix[i+c]]
		}
	}
	return out
}

func toByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
