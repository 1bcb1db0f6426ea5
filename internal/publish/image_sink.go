package publish

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"anti-instagram/internal/logger"
)

// ImageSink keeps the latest masked frame and diagnostic mask on disk.
// Files are replaced atomically so a reader never sees a partial image.
type ImageSink struct {
	dir    string
	format string
	logger logger.Logger
}

func NewImageSink(dir, format string, log logger.Logger) (*ImageSink, error) {
	format = strings.ToLower(format)
	switch format {
	case "", "png":
		format = "png"
	case "jpg", "jpeg":
		format = "jpeg"
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ImageSink{dir: dir, format: format, logger: log}, nil
}

func (s *ImageSink) Name() string { return "image" }

func (s *ImageSink) Handle(p Publication) error {
	switch p.Kind {
	case KindMaskedFrame:
		return s.save("masked_latest."+s.extension(), p.Frame.Image(), s.format)
	case KindDiagnosticMask:
		return s.save("mask_latest.png", p.Mask, "png")
	default:
		return nil
	}
}

// Path returns where a file written by this sink lives
func (s *ImageSink) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *ImageSink) extension() string {
	if s.format == "jpeg" {
		return "jpg"
	}
	return "png"
}

func (s *ImageSink) save(name string, img image.Image, format string) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, img, format); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	s.logger.Debug(component, "image saved", map[string]interface{}{
		"file":   name,
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	})
	return nil
}

func encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		return png.Encode(w, img)
	}
}
