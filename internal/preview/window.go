package preview

import (
	"anti-instagram/internal/logger"
	"anti-instagram/internal/publish"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const component = "Preview"

// Window is a publish.Sink that renders publications in a desktop window.
// Run must be called from the main goroutine.
type Window struct {
	app     fyne.App
	window  fyne.Window
	display *Display
	logger  logger.Logger
}

func NewWindow(log logger.Logger) *Window {
	a := app.NewWithID("anti-instagram.preview")
	w := a.NewWindow("anti-instagram")
	display := NewDisplay()
	w.SetContent(display.Container())

	return &Window{app: a, window: w, display: display, logger: log}
}

func (w *Window) Name() string { return "preview" }

func (w *Window) Handle(p publish.Publication) error {
	switch p.Kind {
	case publish.KindMaskedFrame:
		img := p.Frame.Image()
		fyne.Do(func() { w.display.SetFrame(img) })
	case publish.KindDiagnosticMask:
		fyne.Do(func() { w.display.SetMask(p.Mask) })
	case publish.KindThresholds:
		th := *p.Thresholds
		fyne.Do(func() { w.display.SetThresholds(th) })
	case publish.KindTransform:
		t := *p.Transform
		fyne.Do(func() { w.display.SetTransform(t) })
	}
	return nil
}

// Run shows the window and blocks until it is closed or Close is called.
// onClosed runs when the user closes the window.
func (w *Window) Run(onClosed func()) {
	w.window.SetOnClosed(func() {
		w.logger.Info(component, "preview window closed", nil)
		if onClosed != nil {
			onClosed()
		}
	})
	w.window.Resize(fyne.NewSize(2*ImageAreaWidth, ImageAreaHeight+80))
	w.window.ShowAndRun()
}

// Shutdown quits the fyne event loop
func (w *Window) Shutdown() {
	fyne.Do(func() { w.app.Quit() })
}
