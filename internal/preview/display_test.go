package preview

import (
	"image"
	"testing"

	"anti-instagram/internal/models"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestDisplayShowsCalibration(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	d := NewDisplay()
	assert.NotNil(t, d.Container())

	d.SetThresholds(models.Thresholds{
		Low:  [models.NumChannels]float64{5, 6, 7},
		High: [models.NumChannels]float64{250, 251, 252},
	})
	assert.Equal(t, "thresholds: low [5 6 7] high [250 251 252]", d.thresholds.Text)

	d.SetTransform(models.LinearTransform{Scale: [models.NumChannels]float64{1, 1, 1}})
	assert.Equal(t, "transform: shift [0.00 0.00 0.00] scale [1.000 1.000 1.000]", d.transform.Text)

	img := image.NewGray(image.Rect(0, 0, 2, 2))
	d.SetMask(img)
	assert.Same(t, img, d.maskImage.Image)
}
