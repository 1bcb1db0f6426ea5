package filters

import (
	"context"
	"fmt"

	"anti-instagram/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// CannyFilter turns a BGR or gray image into a 0/255 edge map
type CannyFilter struct {
	Low  float32
	High float32
}

func NewCannyFilter() *CannyFilter {
	return &CannyFilter{Low: 50, High: 150}
}

func (c *CannyFilter) Name() string {
	return "canny_edges"
}

func (c *CannyFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatForOperation(input, c.Name()); err != nil {
		return nil, err
	}

	gray := input.GetMat()
	if input.Channels() == 3 {
		converted := gocv.NewMat()
		defer converted.Close()
		gocv.CvtColor(gray, &converted, gocv.ColorBGRToGray)
		gray = converted
	}

	edges, err := safe.NewMat(input.Rows(), input.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, fmt.Errorf("failed to create edge Mat: %w", err)
	}

	edgesMat := edges.GetMat()
	gocv.Canny(gray, &edgesMat, c.Low, c.High)

	return edges, nil
}
