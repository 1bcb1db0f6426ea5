package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlur(t *testing.T) {
	f, err := NewBlur(BlurMedian, 5)
	require.NoError(t, err)
	assert.Equal(t, "median_blur", f.Name())

	f, err = NewBlur(BlurGaussian, 3)
	require.NoError(t, err)
	assert.Equal(t, "gaussian_blur", f.Name())

	f, err = NewBlur(BlurNone, 0)
	require.NoError(t, err)
	assert.Equal(t, "no_blur", f.Name())

	_, err = NewBlur(BlurMedian, 4)
	assert.Error(t, err, "even kernel")

	_, err = NewBlur("box", 3)
	assert.Error(t, err)
}
