package capture

import (
	"context"
	"fmt"
	"time"

	"anti-instagram/internal/logger"
	"anti-instagram/internal/opencv/conversion"
	"anti-instagram/internal/opencv/safe"
	"anti-instagram/internal/timeutil"

	"gocv.io/x/gocv"
)

const (
	// maxReadFailures consecutive empty reads make the camera reopen the device
	maxReadFailures = 30
	retryDelay      = 100 * time.Millisecond
	reopenDelay     = time.Second
	maxReopenDelay  = 16 * time.Second
)

// frameReader is the part of gocv.VideoCapture the read loop needs
type frameReader interface {
	Read(m *gocv.Mat) bool
	Close() error
}

func openVideoCapture(device interface{}) (frameReader, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("device %v did not open", device)
	}
	return vc, nil
}

// Camera reads frames from a device index, video file or stream URL. A
// device that stops delivering is reopened; Run only returns on cancel.
type Camera struct {
	device interface{}
	label  string
	logger logger.Logger
	clock  timeutil.Clock
	open   func(device interface{}) (frameReader, error)
}

func NewCamera(device interface{}, label string, log logger.Logger, clock timeutil.Clock) *Camera {
	return &Camera{device: device, label: label, logger: log, clock: clock, open: openVideoCapture}
}

func (c *Camera) Name() string {
	return "camera:" + c.label
}

func (c *Camera) Run(ctx context.Context, sink Sink) error {
	img := gocv.NewMat()
	defer img.Close()

	retry := c.clock.NewTicker(retryDelay)
	defer retry.Stop()

	var capture frameReader
	defer func() {
		if capture != nil {
			capture.Close()
		}
	}()

	failures := 0
	backoff := reopenDelay
	for ctx.Err() == nil {
		if capture == nil {
			r, err := c.open(c.device)
			if err != nil {
				c.logger.Warning(component, "cannot open camera, retrying", map[string]interface{}{
					"source":   c.label,
					"error":    err.Error(),
					"retry_in": backoff.String(),
				})
				c.wait(ctx, retry, backoff)
				backoff = min(2*backoff, maxReopenDelay)
				continue
			}
			capture, failures, backoff = r, 0, reopenDelay
			c.logger.Info(component, "camera opened", map[string]interface{}{
				"source": c.label,
			})
		}

		if ok := capture.Read(&img); !ok || img.Empty() {
			failures++
			if failures >= maxReadFailures {
				c.logger.Warning(component, "camera stopped delivering frames, reopening", map[string]interface{}{
					"source":   c.label,
					"failures": failures,
				})
				capture.Close()
				capture = nil
				c.wait(ctx, retry, reopenDelay)
				continue
			}
			c.wait(ctx, retry, retryDelay)
			continue
		}
		failures = 0

		if err := c.deposit(img, sink); err != nil {
			c.logger.Warning(component, "cannot decode image, frame dropped", map[string]interface{}{
				"source": c.label,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

// wait blocks for one period d of the retry ticker or until ctx is done
func (c *Camera) wait(ctx context.Context, retry timeutil.Ticker, d time.Duration) {
	retry.Reset(d)
	select {
	case <-ctx.Done():
	case <-retry.C():
	}
}

func (c *Camera) deposit(img gocv.Mat, sink Sink) error {
	mat, err := safe.NewMatFromMat(img)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer mat.Close()

	f, err := conversion.MatToFrame(mat, c.clock.Now(), 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	sink.Deposit(f)
	return nil
}
