// Package rimage holds the image types a capture session renders into: depth maps, frame
// buffers, and encoders for writing them out.
package rimage

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Depth is a single depth sample in device units (usually millimeters). Zero means no data.
type Depth uint16

// MaxDepth is the largest value a Depth can hold.
const MaxDepth = Depth(65535)

// DepthMap is a row-major grid of depth samples.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns an all-zero depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromSamples copies raw row-major samples into a new depth map.
func NewDepthMapFromSamples(width, height int, samples []uint16) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid depth map dimensions %dx%d", width, height)
	}
	if len(samples) < width*height {
		return nil, errors.Errorf("need %d samples for a %dx%d depth map but got %d",
			width*height, width, height, len(samples))
	}
	dm := NewEmptyDepthMap(width, height)
	for i := range dm.data {
		dm.data[i] = Depth(samples[i])
	}
	return dm, nil
}

// Width returns the width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle dimensions of the depth map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// Get returns the depth at a given image.Point.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.GetDepth(p.X, p.Y)
}

// GetDepth returns the depth at a given (x, y) coordinate.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[y*dm.width+x]
}

// Set sets the depth at a given (x, y) coordinate.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[y*dm.width+x] = val
}

// MinMax returns the smallest and largest non-zero depth. Both are zero for an empty map.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	min := MaxDepth
	max := Depth(0)
	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	if max == 0 {
		return 0, 0
	}
	return min, max
}

// ToPrettyPicture colorizes the depth map along a hue ramp, clamped to [hardMin, hardMax].
// Pixels without depth data are black.
func (dm *DepthMap) ToPrettyPicture(hardMin, hardMax Depth) *image.RGBA {
	min, max := dm.MinMax()
	if min < hardMin {
		min = hardMin
	}
	if max > hardMax {
		max = hardMax
	}

	img := image.NewRGBA(dm.Bounds())
	span := float64(max) - float64(min)

	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			z := dm.GetDepth(x, y)
			if z == 0 {
				img.SetRGBA(x, y, color.RGBA{A: 255})
				continue
			}
			if z < min {
				z = min
			}
			if z > max {
				z = max
			}

			ratio := 0.0
			if span > 0 {
				ratio = (float64(z) - float64(min)) / span
			}
			hue := 30 + (200.0 * ratio)
			r, g, b := colorful.Hsv(hue, 1.0, 1.0).RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return img
}

// NewImageFromRGB wraps packed 8-bit RGB pixels as an RGBA image.
func NewImageFromRGB(width, height int, rgb []byte) (*image.RGBA, error) {
	if len(rgb) < width*height*3 {
		return nil, errors.Errorf("need %d bytes for a %dx%d rgb image but got %d",
			width*height*3, width, height, len(rgb))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < width*height; i, j = i+1, j+3 {
		img.Pix[i*4] = rgb[j]
		img.Pix[i*4+1] = rgb[j+1]
		img.Pix[i*4+2] = rgb[j+2]
		img.Pix[i*4+3] = 255
	}
	return img, nil
}
