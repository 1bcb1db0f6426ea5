package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"anti-instagram/internal/logger"
	"anti-instagram/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// deadReader never delivers a frame
type deadReader struct {
	reads  *atomic.Int32
	closes *atomic.Int32
}

func (r deadReader) Read(m *gocv.Mat) bool {
	r.reads.Add(1)
	return false
}

func (r deadReader) Close() error {
	r.closes.Add(1)
	return nil
}

type cameraHarness struct {
	cam       *Camera
	clock     *timeutil.MockClock
	log       *logger.Recorder
	opens     atomic.Int32
	openFails int32
	reads     atomic.Int32
	closes    atomic.Int32
}

func newCameraHarness(openFails int32) *cameraHarness {
	h := &cameraHarness{
		clock:     timeutil.NewMockClock(time.Unix(0, 0)),
		log:       logger.NewRecorder(),
		openFails: openFails,
	}
	h.cam = NewCamera(0, "0", h.log, h.clock)
	h.cam.open = func(device interface{}) (frameReader, error) {
		if h.opens.Add(1) <= h.openFails {
			return nil, errors.New("no such device")
		}
		return deadReader{reads: &h.reads, closes: &h.closes}, nil
	}
	return h
}

func (h *cameraHarness) start() (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.cam.Run(ctx, &recordingSink{}) }()
	return cancel, done
}

func TestCameraPacesFailedReads(t *testing.T) {
	h := newCameraHarness(0)
	cancel, done := h.start()

	require.Eventually(t, func() bool { return h.reads.Load() == 1 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return h.reads.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	h.clock.Advance(retryDelay)
	require.Eventually(t, func() bool { return h.reads.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestCameraReopensInsteadOfStopping(t *testing.T) {
	h := newCameraHarness(0)
	cancel, done := h.start()

	require.Eventually(t, func() bool {
		h.clock.Advance(retryDelay)
		return h.opens.Load() >= 2 && h.reads.Load() >= 2*maxReadFailures
	}, 5*time.Second, time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("camera run ended on read failures: %v", err)
	default:
	}
	assert.GreaterOrEqual(t, h.log.Count("camera stopped delivering frames, reopening"), 1)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, h.opens.Load(), h.closes.Load(), "every opened capture is closed")
}

func TestCameraRetriesFailedOpen(t *testing.T) {
	h := newCameraHarness(2)
	cancel, done := h.start()

	require.Eventually(t, func() bool {
		h.clock.Advance(time.Second)
		return h.log.Count("camera opened") == 1
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, 2, h.log.Count("cannot open camera, retrying"))
	assert.Equal(t, int32(3), h.opens.Load())

	cancel()
	require.NoError(t, <-done)
}
