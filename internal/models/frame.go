package models

import (
	"fmt"
	"image"
	"time"
)

// Frame is an immutable BGR image with its capture stamp.
//
// Pix is interleaved B,G,R and must not be modified once the frame has been
// handed to a FrameBuffer; every processing step produces a new Frame.
type Frame struct {
	Pix    []uint8
	Width  int
	Height int

	// Stamp is the capture time reported by the source, not the processing time
	Stamp time.Time

	// Seq is assigned by the FrameBuffer on deposit, starting at 1
	Seq uint64
}

// NewFrame allocates a zeroed frame
func NewFrame(width, height int, stamp time.Time) *Frame {
	return &Frame{
		Pix:    make([]uint8, width*height*NumChannels),
		Width:  width,
		Height: height,
		Stamp:  stamp,
	}
}

// Validate reports malformed frames
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("frame is nil")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height * NumChannels; len(f.Pix) != want {
		return fmt.Errorf("frame buffer has %d bytes, want %d for %dx%d", len(f.Pix), want, f.Width, f.Height)
	}
	return nil
}

// Offset returns the index of the blue byte of pixel (x, y)
func (f *Frame) Offset(x, y int) int {
	return (y*f.Width + x) * NumChannels
}

// At returns the BGR triple of pixel (x, y)
func (f *Frame) At(x, y int) [NumChannels]uint8 {
	i := f.Offset(x, y)
	return [NumChannels]uint8{f.Pix[i], f.Pix[i+1], f.Pix[i+2]}
}

// Set writes the BGR triple of pixel (x, y)
func (f *Frame) Set(x, y int, bgr [NumChannels]uint8) {
	i := f.Offset(x, y)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = bgr[0], bgr[1], bgr[2]
}

// Clone returns a deep copy carrying the same stamp and sequence number
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Pix:    make([]uint8, len(f.Pix)),
		Width:  f.Width,
		Height: f.Height,
		Stamp:  f.Stamp,
		Seq:    f.Seq,
	}
	copy(out.Pix, f.Pix)
	return out
}

// Mask restricts a frame to a region of interest.
//
// A mask either carries a per-pixel inclusion map (Pix, values 0 or 1) or,
// when Pix is nil, describes a crop: every pixel of the cropped frame is
// included and Crop records the rectangle in resized-frame coordinates.
type Mask struct {
	Pix    []uint8
	Width  int
	Height int
	Crop   image.Rectangle
}

// Included reports whether pixel (x, y) belongs to the region
func (m *Mask) Included(x, y int) bool {
	if m == nil || m.Pix == nil {
		return true
	}
	return m.Pix[y*m.Width+x] != 0
}

// Count returns the number of included pixels
func (m *Mask) Count() int {
	if m.Pix == nil {
		return m.Width * m.Height
	}
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Visual returns the mask as a 0/255 single-channel image for diagnostics
func (m *Mask) Visual() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i := range img.Pix {
		if m.Pix == nil || m.Pix[i] != 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// MaskedFrame is a frame restricted to a region of interest. Mask is nil
// when the whole frame is the region.
type MaskedFrame struct {
	Frame *Frame
	Mask  *Mask
}

// Validate checks that the mask matches the frame and is non-empty
func (mf MaskedFrame) Validate() error {
	if err := mf.Frame.Validate(); err != nil {
		return err
	}
	if mf.Mask == nil {
		return nil
	}
	if mf.Mask.Width != mf.Frame.Width || mf.Mask.Height != mf.Frame.Height {
		return fmt.Errorf("mask %dx%d does not match frame %dx%d",
			mf.Mask.Width, mf.Mask.Height, mf.Frame.Width, mf.Frame.Height)
	}
	if mf.Mask.Pix != nil && len(mf.Mask.Pix) != mf.Mask.Width*mf.Mask.Height {
		return fmt.Errorf("mask buffer has %d bytes, want %d", len(mf.Mask.Pix), mf.Mask.Width*mf.Mask.Height)
	}
	return nil
}

// Each calls fn with the BGR triple of every included pixel
func (mf MaskedFrame) Each(fn func(bgr [NumChannels]uint8)) {
	f := mf.Frame
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if !mf.Mask.Included(x, y) {
				continue
			}
			fn(f.At(x, y))
		}
	}
}

// Len returns the number of included pixels
func (mf MaskedFrame) Len() int {
	if mf.Mask == nil {
		return mf.Frame.Width * mf.Frame.Height
	}
	return mf.Mask.Count()
}

// WithFrame returns a masked frame sharing this mask over another frame of the same size
func (mf MaskedFrame) WithFrame(f *Frame) MaskedFrame {
	return MaskedFrame{Frame: f, Mask: mf.Mask}
}

// Image converts the frame to an RGBA image for encoders and displays
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i < len(f.Pix); i, j = i+NumChannels, j+4 {
		img.Pix[j] = f.Pix[i+Red]
		img.Pix[j+1] = f.Pix[i+Green]
		img.Pix[j+2] = f.Pix[i+Blue]
		img.Pix[j+3] = 255
	}
	return img
}

// Product returns the frame with excluded pixels set to zero. Crops and
// unmasked frames are returned as is.
func (mf MaskedFrame) Product() *Frame {
	if mf.Mask == nil || mf.Mask.Pix == nil {
		return mf.Frame
	}
	out := mf.Frame.Clone()
	for i, v := range mf.Mask.Pix {
		if v == 0 {
			j := i * NumChannels
			out.Pix[j], out.Pix[j+1], out.Pix[j+2] = 0, 0, 0
		}
	}
	return out
}
