package rimage

import (
	"image"
)

// FrameBuffer is a render target sized to a stream's resolution. It only reallocates its pixels
// when asked for different dimensions, so frames of constant size reuse one allocation.
type FrameBuffer struct {
	pixels      *image.RGBA
	allocations int
}

// NewFrameBuffer returns a 1x1 placeholder buffer. The placeholder does not count as an
// allocation.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{pixels: image.NewRGBA(image.Rect(0, 0, 1, 1))}
}

// Width returns the current width of the buffer.
func (fb *FrameBuffer) Width() int {
	return fb.pixels.Rect.Dx()
}

// Height returns the current height of the buffer.
func (fb *FrameBuffer) Height() int {
	return fb.pixels.Rect.Dy()
}

// Resize reallocates the buffer if (width, height) differs from its current size, and reports
// whether it did.
func (fb *FrameBuffer) Resize(width, height int) bool {
	if fb.Width() == width && fb.Height() == height {
		return false
	}
	fb.pixels = image.NewRGBA(image.Rect(0, 0, width, height))
	fb.allocations++
	return true
}

// Pixels returns the backing image.
func (fb *FrameBuffer) Pixels() *image.RGBA {
	return fb.pixels
}

// Allocations returns how many times the buffer has been reallocated.
func (fb *FrameBuffer) Allocations() int {
	return fb.allocations
}
