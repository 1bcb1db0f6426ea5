package conversion

import (
	"fmt"
	"image"
	"math"

	"anti-instagram/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ResizeMat resizes Mat to new dimensions using specified interpolation
func ResizeMat(src *safe.Mat, newWidth, newHeight int, interpolation gocv.InterpolationFlags) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "Mat resizing"); err != nil {
		return nil, err
	}

	if err := safe.ValidateDimensions(newWidth, newHeight, "Mat resizing"); err != nil {
		return nil, err
	}

	dst, err := safe.NewMat(newHeight, newWidth, src.Type())
	if err != nil {
		return nil, err
	}

	srcMat := src.GetMat()
	dstMat := dst.GetMat()

	gocv.Resize(srcMat, &dstMat, image.Point{X: newWidth, Y: newHeight}, 0, 0, interpolation)

	return dst, nil
}

// ScaledSize applies a uniform resize factor, never going below one pixel
func ScaledSize(width, height int, factor float64) (int, int) {
	w := int(math.Round(float64(width) * factor))
	h := int(math.Round(float64(height) * factor))
	return max(w, 1), max(h, 1)
}

// CropMat copies the rectangle r out of src
func CropMat(src *safe.Mat, r image.Rectangle) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "Mat cropping"); err != nil {
		return nil, err
	}

	if r.Empty() || r.Min.X < 0 || r.Min.Y < 0 {
		return nil, fmt.Errorf("invalid crop rectangle %v", r)
	}

	if r.Max.X > src.Cols() || r.Max.Y > src.Rows() {
		return nil, fmt.Errorf("crop region exceeds Mat bounds: Mat=%dx%d, crop=%v",
			src.Cols(), src.Rows(), r)
	}

	region := src.GetMat().Region(r)
	defer region.Close()

	return safe.NewMatFromMat(region)
}
