package filters

import (
	"context"
	"fmt"
	"image"

	"anti-instagram/internal/opencv/safe"

	"gocv.io/x/gocv"
)

type MedianFilter struct {
	Kernel int
}

func (m *MedianFilter) Name() string {
	return "median_blur"
}

func (m *MedianFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatForOperation(input, m.Name()); err != nil {
		return nil, err
	}

	result, err := safe.NewMat(input.Rows(), input.Cols(), input.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create result Mat: %w", err)
	}

	srcMat := input.GetMat()
	resultMat := result.GetMat()
	gocv.MedianBlur(srcMat, &resultMat, m.Kernel)

	return result, nil
}

type GaussianFilter struct {
	Kernel int
}

func (g *GaussianFilter) Name() string {
	return "gaussian_blur"
}

func (g *GaussianFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatForOperation(input, g.Name()); err != nil {
		return nil, err
	}

	dst, err := safe.NewMat(input.Rows(), input.Cols(), input.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	srcMat := input.GetMat()
	dstMat := dst.GetMat()

	// sigma 0 lets OpenCV derive it from the kernel size
	gocv.GaussianBlur(srcMat, &dstMat, image.Point{X: g.Kernel, Y: g.Kernel}, 0, 0, gocv.BorderDefault)

	return dst, nil
}

// IdentityFilter copies its input
type IdentityFilter struct{}

func (IdentityFilter) Name() string {
	return "no_blur"
}

func (IdentityFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return input.Clone()
}
