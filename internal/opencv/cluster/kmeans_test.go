package cluster

import (
	"sort"
	"testing"
	"time"

	"anti-instagram/internal/models"
	"anti-instagram/internal/processing/filters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoToneFrame() *models.Frame {
	f := models.NewFrame(4, 4, time.Unix(0, 0))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if y < 2 {
				f.Set(x, y, [models.NumChannels]uint8{20, 30, 40})
			} else {
				f.Set(x, y, [models.NumChannels]uint8{200, 210, 220})
			}
		}
	}
	return f
}

func newKMeans(t *testing.T) *KMeans {
	t.Helper()
	blur, err := filters.NewBlur(filters.BlurNone, 0)
	require.NoError(t, err)
	km, err := NewKMeans(blur, 3)
	require.NoError(t, err)
	return km
}

func TestKMeansFindsBothTones(t *testing.T) {
	km := newKMeans(t)

	clusters, err := km.Cluster(models.MaskedFrame{Frame: twoToneFrame()}, 2)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Center[0] < clusters[j].Center[0] })
	assert.InDelta(t, 20, clusters[0].Center[0], 1e-3)
	assert.InDelta(t, 220, clusters[1].Center[2], 1e-3)
	assert.Equal(t, 8, clusters[0].Size)
	assert.Equal(t, 8, clusters[1].Size)
}

func TestKMeansSkipsMaskedPixels(t *testing.T) {
	km := newKMeans(t)

	pix := make([]uint8, 16)
	for i := 8; i < 16; i++ {
		pix[i] = 1
	}
	mf := models.MaskedFrame{Frame: twoToneFrame(), Mask: &models.Mask{Pix: pix, Width: 4, Height: 4}}

	clusters, err := km.Cluster(mf, 1)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.InDelta(t, 200, clusters[0].Center[0], 1e-3)
	assert.Equal(t, 8, clusters[0].Size)
}

func TestKMeansRejectsTooFewPixels(t *testing.T) {
	km := newKMeans(t)
	f := models.NewFrame(1, 2, time.Unix(0, 0))

	_, err := km.Cluster(models.MaskedFrame{Frame: f}, 3)
	assert.Error(t, err)
}

func TestNewKMeansValidates(t *testing.T) {
	_, err := NewKMeans(nil, 3)
	assert.Error(t, err)

	blur, err := filters.NewBlur(filters.BlurNone, 0)
	require.NoError(t, err)
	_, err = NewKMeans(blur, 0)
	assert.Error(t, err)
}
