package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"anti-instagram/internal/logger"
	"anti-instagram/internal/models"
	"anti-instagram/internal/opencv/conversion"
	"anti-instagram/internal/timeutil"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Directory replays the still images of a folder in name order, looping
// forever at a fixed rate.
type Directory struct {
	dir    string
	files  []string
	period time.Duration
	logger logger.Logger
	clock  timeutil.Clock
}

func NewDirectory(dir string, fps float64, log logger.Logger, clock timeutil.Clock) (*Directory, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %g", fps)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no jpeg or png images in %s", dir)
	}
	sort.Strings(files)

	return &Directory{
		dir:    dir,
		files:  files,
		period: time.Duration(float64(time.Second) / fps),
		logger: log,
		clock:  clock,
	}, nil
}

func (d *Directory) Name() string {
	return "directory:" + d.dir
}

// Files lists the images in replay order
func (d *Directory) Files() []string {
	return append([]string(nil), d.files...)
}

func (d *Directory) Run(ctx context.Context, sink Sink) error {
	ticker := d.clock.NewTicker(d.period)
	defer ticker.Stop()

	d.logger.Info(component, "replaying images", map[string]interface{}{
		"dir":    d.dir,
		"images": len(d.files),
		"period": d.period.String(),
	})

	next := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C():
			path := d.files[next]
			next = (next + 1) % len(d.files)

			f, err := d.Load(path, now)
			if err != nil {
				d.logger.Warning(component, "cannot decode image, frame dropped", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
				continue
			}
			sink.Deposit(f)
		}
	}
}

// Load reads and decodes one image, stamping it with stamp
func (d *Directory) Load(path string, stamp time.Time) (*models.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	d.logger.Debug(component, "image data read", map[string]interface{}{
		"path":       path,
		"size_bytes": len(data),
	})

	f, err := conversion.DecodeFrame(data, stamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return f, nil
}
