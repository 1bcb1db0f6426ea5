package preview

import (
	"fmt"
	"image"

	"anti-instagram/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 400
	ImageAreaHeight = 300
)

// Display shows the masked frame next to the diagnostic mask, with the held
// calibration below
type Display struct {
	container  fyne.CanvasObject
	frameImage *canvas.Image
	maskImage  *canvas.Image
	thresholds *widget.Label
	transform  *widget.Label
}

func NewDisplay() *Display {
	d := &Display{}
	d.createComponents()
	d.setupLayout()
	return d
}

func (d *Display) createComponents() {
	d.frameImage = newImage()
	d.maskImage = newImage()
	d.thresholds = widget.NewLabel("thresholds: none yet")
	d.transform = widget.NewLabel("transform: none yet")
}

func newImage() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	return img
}

func (d *Display) setupLayout() {
	frameContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Masked frame**"),
		nil, nil, nil,
		d.frameImage,
	)

	maskContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Mask**"),
		nil, nil, nil,
		d.maskImage,
	)

	split := container.NewHSplit(frameContainer, maskContainer)
	split.SetOffset(0.5)

	d.container = container.NewBorder(nil, container.NewVBox(d.thresholds, d.transform), nil, nil, split)
}

func (d *Display) Container() fyne.CanvasObject {
	return d.container
}

// The setters below must run on the fyne main goroutine

func (d *Display) SetFrame(img image.Image) {
	d.frameImage.Image = img
	d.frameImage.Refresh()
}

func (d *Display) SetMask(img image.Image) {
	d.maskImage.Image = img
	d.maskImage.Refresh()
}

func (d *Display) SetThresholds(th models.Thresholds) {
	d.thresholds.SetText(fmt.Sprintf("thresholds: low %.0f high %.0f", th.Low, th.High))
}

func (d *Display) SetTransform(t models.LinearTransform) {
	d.transform.SetText(fmt.Sprintf("transform: shift %.2f scale %.3f", t.Shift, t.Scale))
}
