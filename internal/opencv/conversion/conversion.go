package conversion

import (
	"fmt"
	"image"
	"time"

	"anti-instagram/internal/models"
	"anti-instagram/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// FrameToMat copies a BGR frame into a CV_8UC3 Mat
func FrameToMat(f *models.Frame) (*safe.Mat, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("frame to Mat conversion: %w", err)
	}

	view, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return nil, fmt.Errorf("Mat creation failed: %w", err)
	}
	defer view.Close()

	return safe.NewMatFromMat(view)
}

// MatToFrame copies a CV_8UC3 Mat into a new frame
func MatToFrame(src *safe.Mat, stamp time.Time, seq uint64) (*models.Frame, error) {
	if err := safe.ValidateChannels(src, models.NumChannels, "Mat to frame conversion"); err != nil {
		return nil, err
	}
	if src.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("Mat to frame conversion requires CV_8UC3, got type %d", int(src.Type()))
	}

	pix, err := src.Bytes()
	if err != nil {
		return nil, err
	}

	f := &models.Frame{
		Pix:    pix,
		Width:  src.Cols(),
		Height: src.Rows(),
		Stamp:  stamp,
		Seq:    seq,
	}
	return f, f.Validate()
}

// MatToMask turns a single-channel Mat into a 0/1 inclusion map
func MatToMask(src *safe.Mat) (*models.Mask, error) {
	if err := safe.ValidateChannels(src, 1, "Mat to mask conversion"); err != nil {
		return nil, err
	}

	pix, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	for i, v := range pix {
		if v != 0 {
			pix[i] = 1
		}
	}

	return &models.Mask{
		Pix:    pix,
		Width:  src.Cols(),
		Height: src.Rows(),
		Crop:   image.Rect(0, 0, src.Cols(), src.Rows()),
	}, nil
}

// DecodeFrame decodes a JPEG or PNG buffer into a frame
func DecodeFrame(buf []byte, stamp time.Time) (*models.Frame, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("empty image buffer")
	}

	decoded, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("image decoding failed: %w", err)
	}

	mat, err := safe.Adopt(decoded)
	if err != nil {
		return nil, fmt.Errorf("image decoding failed: %w", err)
	}
	defer mat.Close()

	return MatToFrame(mat, stamp, 0)
}

// MaskToMat renders a per-pixel mask as a 0/255 CV_8UC1 Mat
func MaskToMat(m *models.Mask) (*safe.Mat, error) {
	if m == nil || m.Pix == nil {
		return nil, fmt.Errorf("mask has no per-pixel map")
	}

	vis := m.Visual()
	view, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, vis.Pix)
	if err != nil {
		return nil, fmt.Errorf("Mat creation failed: %w", err)
	}
	defer view.Close()

	return safe.NewMatFromMat(view)
}
