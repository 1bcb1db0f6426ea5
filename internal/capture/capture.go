package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"anti-instagram/internal/config"
	"anti-instagram/internal/logger"
	"anti-instagram/internal/models"
	"anti-instagram/internal/timeutil"
)

const component = "Capture"

// ErrDecode marks a frame that arrived but could not be decoded. Only that
// arrival is lost.
var ErrDecode = errors.New("cannot decode image")

// Sink receives decoded frames; pipeline.FrameBuffer is the production sink
type Sink interface {
	Deposit(f *models.Frame)
}

// Source delivers frames until its context is cancelled
type Source interface {
	Run(ctx context.Context, sink Sink) error
	Name() string
}

// Open picks a source for uri: an existing directory replays still images,
// an integer opens a camera device, anything else is passed to OpenCV as a
// file or stream URL.
func Open(cfg config.SourceConfig, log logger.Logger, clock timeutil.Clock) (Source, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("source uri is empty")
	}

	if info, err := os.Stat(cfg.URI); err == nil && info.IsDir() {
		return NewDirectory(cfg.URI, cfg.FPS, log, clock)
	}

	if id, err := strconv.Atoi(cfg.URI); err == nil {
		return NewCamera(id, cfg.URI, log, clock), nil
	}
	return NewCamera(cfg.URI, cfg.URI, log, clock), nil
}
