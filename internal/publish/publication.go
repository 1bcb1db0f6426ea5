package publish

import (
	"fmt"
	"image"
	"time"

	"anti-instagram/internal/models"
)

// Kind identifies what a publication carries
type Kind int

const (
	KindThresholds Kind = iota
	KindTransform
	KindMaskedFrame
	KindDiagnosticMask
)

// AllKinds lists every kind in publication order
var AllKinds = []Kind{KindThresholds, KindTransform, KindMaskedFrame, KindDiagnosticMask}

func (k Kind) String() string {
	switch k {
	case KindThresholds:
		return "color_balance_thresholds"
	case KindTransform:
		return "linear_transform"
	case KindMaskedFrame:
		return "masked_frame"
	case KindDiagnosticMask:
		return "diagnostic_mask"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Publication is one payload handed to sinks. Exactly one payload field is
// set, matching Kind.
type Publication struct {
	Kind    Kind
	Session string
	Seq     uint64
	Stamp   time.Time

	Thresholds *models.Thresholds
	Transform  *models.LinearTransform
	Frame      *models.Frame
	Mask       *image.Gray
}

// ThresholdsPublication wraps held thresholds for the frame they came from
func ThresholdsPublication(f *models.Frame, th models.Thresholds) Publication {
	return Publication{Kind: KindThresholds, Seq: f.Seq, Stamp: f.Stamp, Thresholds: &th}
}

// TransformPublication wraps an accepted linear transform
func TransformPublication(f *models.Frame, t models.LinearTransform) Publication {
	return Publication{Kind: KindTransform, Seq: f.Seq, Stamp: f.Stamp, Transform: &t}
}

// FramePublication wraps the processed (masked) frame
func FramePublication(f *models.Frame) Publication {
	return Publication{Kind: KindMaskedFrame, Seq: f.Seq, Stamp: f.Stamp, Frame: f}
}

// MaskPublication wraps the 0/255 diagnostic mask
func MaskPublication(f *models.Frame, mask *image.Gray) Publication {
	return Publication{Kind: KindDiagnosticMask, Seq: f.Seq, Stamp: f.Stamp, Mask: mask}
}
