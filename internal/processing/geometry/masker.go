package geometry

import (
	"context"
	"errors"
	"fmt"
	"image"

	"anti-instagram/internal/models"
	"anti-instagram/internal/opencv/conversion"
	"anti-instagram/internal/opencv/safe"
	"anti-instagram/internal/processing/chain"
	"anti-instagram/internal/processing/filters"

	"gocv.io/x/gocv"
)

var ErrEmptyRegion = errors.New("region of interest is empty")

// horizonFraction is the share of rows at the top assumed to show no road
const horizonFraction = 0.3

type Options struct {
	Fancy  bool
	Resize float64
	// DilateKernel closes gaps in the edge map before the flood fill
	DilateKernel int
	// CloseKernel fills holes left in the ground mask by lane markings
	CloseKernel int
}

func DefaultOptions() Options {
	return Options{Resize: 0.2, DilateKernel: 3, CloseKernel: 5}
}

// RegionMasker resizes frames and restricts them to the visible ground
type RegionMasker struct {
	opts    Options
	edges   *chain.Chain
	closing filters.Filter
}

func NewRegionMasker(opts Options, blur filters.Filter) (*RegionMasker, error) {
	if opts.Resize <= 0 || opts.Resize > 1 {
		return nil, fmt.Errorf("resize factor must be in (0, 1], got %g", opts.Resize)
	}
	if blur == nil {
		return nil, fmt.Errorf("blur filter is required")
	}
	if err := safe.ValidateKernel(opts.DilateKernel, "dilate"); err != nil {
		return nil, err
	}
	if err := safe.ValidateKernel(opts.CloseKernel, "close"); err != nil {
		return nil, err
	}

	return &RegionMasker{
		opts:    opts,
		edges:   chain.New(blur, filters.NewCannyFilter(), filters.NewDilateFilter(opts.DilateKernel)),
		closing: filters.NewCloseFilter(opts.CloseKernel),
	}, nil
}

// Mask derives the region of interest. All coordinates of the result are
// in the resized frame.
func (m *RegionMasker) Mask(f *models.Frame) (models.MaskedFrame, error) {
	if err := f.Validate(); err != nil {
		return models.MaskedFrame{}, err
	}

	src, err := conversion.FrameToMat(f)
	if err != nil {
		return models.MaskedFrame{}, err
	}
	defer src.Close()

	w, h := conversion.ScaledSize(f.Width, f.Height, m.opts.Resize)
	resized, err := conversion.ResizeMat(src, w, h, gocv.InterpolationLinear)
	if err != nil {
		return models.MaskedFrame{}, fmt.Errorf("resize: %w", err)
	}
	defer resized.Close()

	if m.opts.Fancy {
		return m.ground(resized, f)
	}
	return m.crop(resized, f)
}

func (m *RegionMasker) crop(resized *safe.Mat, f *models.Frame) (models.MaskedFrame, error) {
	rect, err := CropRect(resized.Cols(), resized.Rows())
	if err != nil {
		return models.MaskedFrame{}, err
	}

	cropped, err := conversion.CropMat(resized, rect)
	if err != nil {
		return models.MaskedFrame{}, err
	}
	defer cropped.Close()

	frame, err := conversion.MatToFrame(cropped, f.Stamp, f.Seq)
	if err != nil {
		return models.MaskedFrame{}, err
	}

	return models.MaskedFrame{
		Frame: frame,
		Mask:  &models.Mask{Width: frame.Width, Height: frame.Height, Crop: rect},
	}, nil
}

func (m *RegionMasker) ground(resized *safe.Mat, f *models.Frame) (models.MaskedFrame, error) {
	ctx := context.Background()

	edgeMat, err := m.edges.Execute(ctx, resized)
	if err != nil {
		return models.MaskedFrame{}, fmt.Errorf("edge detection: %w", err)
	}
	edges, err := edgeMat.Bytes()
	edgeMat.Close()
	if err != nil {
		return models.MaskedFrame{}, err
	}

	w, h := resized.Cols(), resized.Rows()
	pix := FloodGround(edges, w, h)
	RestrictBelow(pix, w, int(float64(h)*horizonFraction))

	raw := &models.Mask{Pix: pix, Width: w, Height: h, Crop: image.Rect(0, 0, w, h)}
	if raw.Count() == 0 {
		return models.MaskedFrame{}, ErrEmptyRegion
	}

	rawMat, err := conversion.MaskToMat(raw)
	if err != nil {
		return models.MaskedFrame{}, err
	}
	defer rawMat.Close()

	closedMat, err := m.closing.Apply(ctx, rawMat)
	if err != nil {
		return models.MaskedFrame{}, fmt.Errorf("mask closing: %w", err)
	}
	defer closedMat.Close()

	mask, err := conversion.MatToMask(closedMat)
	if err != nil {
		return models.MaskedFrame{}, err
	}
	RestrictBelow(mask.Pix, w, int(float64(h)*horizonFraction))

	frame, err := conversion.MatToFrame(resized, f.Stamp, f.Seq)
	if err != nil {
		return models.MaskedFrame{}, err
	}
	return models.MaskedFrame{Frame: frame, Mask: mask}, nil
}

// CropRect keeps rows [int(0.3*h), h-1) of a w x h frame
func CropRect(w, h int) (image.Rectangle, error) {
	top := int(float64(h) * horizonFraction)
	bottom := h - 1
	if w <= 0 || bottom <= top {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d frame leaves no rows below the horizon", ErrEmptyRegion, w, h)
	}
	return image.Rect(0, top, w, bottom), nil
}
