package colorbalance

import (
	"math/rand"
	"testing"
	"time"

	"anti-instagram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformFrame holds every intensity 0..255 equally often on every channel
func uniformFrame(repeats int) *models.Frame {
	f := models.NewFrame(256, repeats, time.Unix(1, 0))
	for y := 0; y < repeats; y++ {
		for x := 0; x < 256; x++ {
			f.Set(x, y, [models.NumChannels]uint8{uint8(x), uint8(255 - x), uint8((x + y*37) % 256)})
		}
	}
	return f
}

func TestEstimateThresholdsUniformDistribution(t *testing.T) {
	f := uniformFrame(40)

	th, err := EstimateThresholds(models.MaskedFrame{Frame: f}, 2)
	require.NoError(t, err)

	for c := 0; c < models.NumChannels; c++ {
		assert.InDelta(t, 5, th.Low[c], 1.5, "low %s", models.ChannelNames[c])
		assert.InDelta(t, 250, th.High[c], 1.5, "high %s", models.ChannelNames[c])
	}
	assert.NoError(t, th.Validate())
}

func TestEstimateThresholdsUsesOnlyMaskedPixels(t *testing.T) {
	f := models.NewFrame(4, 1, time.Time{})
	f.Set(0, 0, [models.NumChannels]uint8{10, 10, 10})
	f.Set(1, 0, [models.NumChannels]uint8{20, 20, 20})
	f.Set(2, 0, [models.NumChannels]uint8{0, 0, 0})
	f.Set(3, 0, [models.NumChannels]uint8{255, 255, 255})
	mask := &models.Mask{Pix: []uint8{1, 1, 0, 0}, Width: 4, Height: 1}

	th, err := EstimateThresholds(models.MaskedFrame{Frame: f, Mask: mask}, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, th.Low[models.Red])
	assert.Equal(t, 20.0, th.High[models.Red])
}

func TestEstimateThresholdsDegenerateRegion(t *testing.T) {
	f := models.NewFrame(8, 8, time.Time{})
	for i := range f.Pix {
		f.Pix[i] = 77
	}
	th, err := EstimateThresholds(models.MaskedFrame{Frame: f}, 2)
	require.NoError(t, err)
	assert.Equal(t, th.Low, th.High)

	out := Apply(f, th)
	assert.Equal(t, f.Pix, out.Pix, "low == high applies no stretch")
}

func TestEstimateThresholdsEmptyMask(t *testing.T) {
	f := models.NewFrame(2, 2, time.Time{})
	mask := &models.Mask{Pix: make([]uint8, 4), Width: 2, Height: 2}
	_, err := EstimateThresholds(models.MaskedFrame{Frame: f, Mask: mask}, 2)
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestEstimateThresholdsRejectsBadPercentage(t *testing.T) {
	_, err := EstimateThresholds(models.MaskedFrame{Frame: uniformFrame(1)}, 60)
	assert.Error(t, err)
}

func TestApplyStretchesToFullRange(t *testing.T) {
	f := models.NewFrame(3, 1, time.Time{})
	f.Set(0, 0, [models.NumChannels]uint8{0, 0, 0})
	f.Set(1, 0, [models.NumChannels]uint8{55, 55, 55})
	f.Set(2, 0, [models.NumChannels]uint8{250, 250, 250})
	th := models.Thresholds{
		Low:  [models.NumChannels]float64{10, 10, 10},
		High: [models.NumChannels]float64{100, 100, 100},
	}

	out := Apply(f, th)
	assert.Equal(t, [models.NumChannels]uint8{0, 0, 0}, out.At(0, 0))
	assert.Equal(t, [models.NumChannels]uint8{128, 128, 128}, out.At(1, 0))
	assert.Equal(t, [models.NumChannels]uint8{255, 255, 255}, out.At(2, 0))
	assert.Equal(t, uint8(0), f.Pix[0], "input is not modified")
}

func TestApplyIsIdempotentOnClippedImage(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	f := models.NewFrame(32, 32, time.Time{})
	rng.Read(f.Pix)
	th := models.Thresholds{
		Low:  [models.NumChannels]float64{12.4, 30, 0},
		High: [models.NumChannels]float64{240.6, 200, 80},
	}

	clipped := Clip(f, th)
	assert.Equal(t, clipped.Pix, Clip(clipped, th).Pix, "clip is idempotent")
	assert.Equal(t, Apply(f, th).Pix, Apply(clipped, th).Pix)
}
