package safe

import (
	"fmt"
)

const maxDimension = 32768

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat is invalid for operation: %s", operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	return ValidateDimensions(mat.Cols(), mat.Rows(), operation)
}

// ValidateChannels checks that mat has the channel count an operation needs
func ValidateChannels(mat *Mat, channels int, operation string) error {
	if err := ValidateMatForOperation(mat, operation); err != nil {
		return err
	}
	if got := mat.Channels(); got != channels {
		return fmt.Errorf("%s requires %d channels, got %d", operation, channels, got)
	}
	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

// ValidateKernel checks for a positive odd aperture
func ValidateKernel(size int, operation string) error {
	if size < 1 || size%2 == 0 {
		return fmt.Errorf("kernel size must be a positive odd number, got %d for operation: %s", size, operation)
	}
	return nil
}
