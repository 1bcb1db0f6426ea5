package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDimensions(t *testing.T) {
	assert.NoError(t, ValidateDimensions(640, 480, "resize"))
	assert.Error(t, ValidateDimensions(0, 480, "resize"))
	assert.Error(t, ValidateDimensions(640, -1, "resize"))
	assert.Error(t, ValidateDimensions(maxDimension+1, 10, "resize"))
}

func TestValidateKernel(t *testing.T) {
	assert.NoError(t, ValidateKernel(1, "blur"))
	assert.NoError(t, ValidateKernel(5, "blur"))
	assert.Error(t, ValidateKernel(4, "blur"))
	assert.Error(t, ValidateKernel(0, "blur"))
}

func TestValidateNilMat(t *testing.T) {
	err := ValidateMatForOperation(nil, "kmeans")
	assert.EqualError(t, err, "Mat is nil for operation: kmeans")
}
