package render

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/depthcapture/rimage"
)

// ErrNoFrame is returned when asking for a snapshot before any frame was shown.
var ErrNoFrame = errors.New("no frame has been rendered yet")

// SnapshotRenderer is a ColorRenderer that copies the most recent depth and color frames so they
// can be colorized and written out later from any goroutine.
type SnapshotRenderer struct {
	mu sync.Mutex

	depth    *rimage.DepthMap
	maxDepth int
	color    *image.RGBA

	depthFrames    int
	colorFrames    int
	renderRequests int
}

// NewSnapshotRenderer returns an empty SnapshotRenderer.
func NewSnapshotRenderer() *SnapshotRenderer {
	return &SnapshotRenderer{}
}

// ShowDepthFromDevice copies the depth samples.
func (r *SnapshotRenderer) ShowDepthFromDevice(samples []uint16, maxDepth, width, height int) {
	dm, err := rimage.NewDepthMapFromSamples(width, height, samples)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depth = dm
	r.maxDepth = maxDepth
	r.depthFrames++
}

// ShowColorFromDevice copies the color pixels.
func (r *SnapshotRenderer) ShowColorFromDevice(rgb []byte, width, height int) {
	img, err := rimage.NewImageFromRGB(width, height, rgb)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.color = img
	r.colorFrames++
}

// RequestRender counts render requests.
func (r *SnapshotRenderer) RequestRender() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderRequests++
}

// Counts returns how many depth frames, color frames and render requests were received.
func (r *SnapshotRenderer) Counts() (depthFrames, colorFrames, renderRequests int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depthFrames, r.colorFrames, r.renderRequests
}

// DepthSnapshot colorizes the latest depth frame across the device's full depth range.
func (r *SnapshotRenderer) DepthSnapshot() (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.depth == nil {
		return nil, ErrNoFrame
	}
	hardMax := rimage.MaxDepth
	if r.maxDepth > 0 && r.maxDepth < int(rimage.MaxDepth) {
		hardMax = rimage.Depth(r.maxDepth)
	}
	return r.depth.ToPrettyPicture(0, hardMax), nil
}

// ColorSnapshot returns the latest color frame.
func (r *SnapshotRenderer) ColorSnapshot() (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.color == nil {
		return nil, ErrNoFrame
	}
	return r.color, nil
}

// WriteSnapshot writes the colorized latest depth frame to path, encoded by its extension.
func (r *SnapshotRenderer) WriteSnapshot(ctx context.Context, path string) error {
	img, err := r.DepthSnapshot()
	if err != nil {
		return err
	}
	return rimage.WriteImageToFile(ctx, path, img)
}
