package filters

import (
	"context"
	"fmt"

	"anti-instagram/internal/opencv/safe"
)

// Filter is one image operation; Apply never modifies input
type Filter interface {
	Name() string
	Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error)
}

// Blur kinds accepted by NewBlur
const (
	BlurMedian   = "median"
	BlurGaussian = "gaussian"
	BlurNone     = "none"
)

// NewBlur returns the smoothing filter used ahead of clustering and segmentation
func NewBlur(kind string, kernel int) (Filter, error) {
	if kind != BlurNone {
		if err := safe.ValidateKernel(kernel, kind+" blur"); err != nil {
			return nil, err
		}
	}

	switch kind {
	case BlurMedian:
		return &MedianFilter{Kernel: kernel}, nil
	case BlurGaussian:
		return &GaussianFilter{Kernel: kernel}, nil
	case BlurNone:
		return IdentityFilter{}, nil
	default:
		return nil, fmt.Errorf("unknown blur %q", kind)
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
