package render

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestSnapshotRenderer(t *testing.T) {
	r := NewSnapshotRenderer()
	var _ ColorRenderer = r

	_, err := r.DepthSnapshot()
	test.That(t, err, test.ShouldBeError, ErrNoFrame)
	_, err = r.ColorSnapshot()
	test.That(t, err, test.ShouldBeError, ErrNoFrame)
	test.That(t, r.WriteSnapshot(context.Background(), filepath.Join(t.TempDir(), "x.png")), test.ShouldBeError, ErrNoFrame)

	samples := []uint16{0, 100, 200, 300}
	r.ShowDepthFromDevice(samples, 1000, 2, 2)
	r.RequestRender()
	// the renderer must not alias the stream's buffer
	samples[1] = 999

	r.ShowColorFromDevice([]byte{1, 2, 3, 4, 5, 6}, 2, 1)
	r.RequestRender()

	// malformed frames are dropped
	r.ShowDepthFromDevice([]uint16{1}, 1000, 2, 2)
	r.ShowColorFromDevice([]byte{1}, 2, 2)

	depthFrames, colorFrames, requests := r.Counts()
	test.That(t, depthFrames, test.ShouldEqual, 1)
	test.That(t, colorFrames, test.ShouldEqual, 1)
	test.That(t, requests, test.ShouldEqual, 2)

	img, err := r.DepthSnapshot()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 2)
	test.That(t, img.RGBAAt(0, 0).R, test.ShouldEqual, 0)
	test.That(t, img.RGBAAt(0, 0).A, test.ShouldEqual, 255)
	test.That(t, img.RGBAAt(1, 0), test.ShouldNotResemble, img.RGBAAt(1, 1))

	colorImg, err := r.ColorSnapshot()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, colorImg.RGBAAt(1, 0).B, test.ShouldEqual, 6)

	path := filepath.Join(t.TempDir(), "depth.png")
	test.That(t, r.WriteSnapshot(context.Background(), path), test.ShouldBeNil)
	//nolint:gosec
	f, err := os.Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	decoded, err := png.Decode(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Bounds(), test.ShouldResemble, img.Bounds())
}
