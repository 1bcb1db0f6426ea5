package cluster

import (
	"context"
	"fmt"

	"anti-instagram/internal/models"
	"anti-instagram/internal/opencv/conversion"
	"anti-instagram/internal/processing/filters"
	"anti-instagram/internal/processing/linear"

	"gocv.io/x/gocv"
)

// KMeans clusters the included pixels of a masked frame with OpenCV k-means
type KMeans struct {
	blur     filters.Filter
	attempts int
	criteria gocv.TermCriteria
}

func NewKMeans(blur filters.Filter, attempts int) (*KMeans, error) {
	if blur == nil {
		return nil, fmt.Errorf("blur filter is required")
	}
	if attempts < 1 {
		return nil, fmt.Errorf("attempts must be at least 1, got %d", attempts)
	}
	return &KMeans{
		blur:     blur,
		attempts: attempts,
		criteria: gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, 100, 0.2),
	}, nil
}

func (km *KMeans) Cluster(mf models.MaskedFrame, k int) ([]linear.Cluster, error) {
	if err := mf.Validate(); err != nil {
		return nil, err
	}
	n := mf.Len()
	if k < 1 || n < k {
		return nil, fmt.Errorf("cannot form %d clusters from %d pixels", k, n)
	}

	blurred, err := km.smooth(mf.Frame)
	if err != nil {
		return nil, err
	}

	samples := gocv.NewMatWithSize(n, models.NumChannels, gocv.MatTypeCV32F)
	defer samples.Close()

	row := 0
	mf.WithFrame(blurred).Each(func(bgr [models.NumChannels]uint8) {
		for c := 0; c < models.NumChannels; c++ {
			samples.SetFloatAt(row, c, float32(bgr[c]))
		}
		row++
	})

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	gocv.KMeans(samples, k, &labels, km.criteria, km.attempts, gocv.KMeansPPCenters, &centers)
	if centers.Rows() != k || labels.Rows() != n {
		return nil, fmt.Errorf("k-means returned %d centers and %d labels, want %d and %d",
			centers.Rows(), labels.Rows(), k, n)
	}

	out := make([]linear.Cluster, k)
	for i := 0; i < k; i++ {
		for c := 0; c < models.NumChannels; c++ {
			out[i].Center[c] = float64(centers.GetFloatAt(i, c))
		}
	}
	for i := 0; i < n; i++ {
		label := int(labels.GetIntAt(i, 0))
		if label >= 0 && label < k {
			out[label].Size++
		}
	}
	return out, nil
}

func (km *KMeans) smooth(f *models.Frame) (*models.Frame, error) {
	src, err := conversion.FrameToMat(f)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := km.blur.Apply(context.Background(), src)
	if err != nil {
		return nil, fmt.Errorf("blur before clustering: %w", err)
	}
	defer dst.Close()

	return conversion.MatToFrame(dst, f.Stamp, f.Seq)
}
