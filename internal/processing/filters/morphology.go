package filters

import (
	"context"
	"fmt"
	"image"

	"anti-instagram/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MorphologyFilter applies one morphological operation with an elliptic kernel
type MorphologyFilter struct {
	Op     gocv.MorphType
	Kernel int
	name   string
}

// NewDilateFilter thickens edges so that thin gaps do not leak a flood fill
func NewDilateFilter(kernel int) *MorphologyFilter {
	return &MorphologyFilter{Op: gocv.MorphDilate, Kernel: kernel, name: "dilate"}
}

// NewCloseFilter fills small holes in a binary mask
func NewCloseFilter(kernel int) *MorphologyFilter {
	return &MorphologyFilter{Op: gocv.MorphClose, Kernel: kernel, name: "close"}
}

func (m *MorphologyFilter) Name() string {
	return m.name
}

func (m *MorphologyFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatForOperation(input, m.Name()); err != nil {
		return nil, err
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: m.Kernel, Y: m.Kernel})
	defer kernel.Close()

	result, err := safe.NewMat(input.Rows(), input.Cols(), input.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create result Mat: %w", err)
	}

	srcMat := input.GetMat()
	resultMat := result.GetMat()
	gocv.MorphologyEx(srcMat, &resultMat, m.Op, kernel)

	return result, nil
}
