package rimage

import (
	"testing"

	"go.viam.com/test"
)

func TestFrameBufferResize(t *testing.T) {
	fb := NewFrameBuffer()
	test.That(t, fb.Width(), test.ShouldEqual, 1)
	test.That(t, fb.Height(), test.ShouldEqual, 1)
	test.That(t, fb.Allocations(), test.ShouldEqual, 0)

	test.That(t, fb.Resize(640, 480), test.ShouldBeTrue)
	for i := 0; i < 10; i++ {
		test.That(t, fb.Resize(640, 480), test.ShouldBeFalse)
	}
	test.That(t, fb.Allocations(), test.ShouldEqual, 1)
	test.That(t, fb.Pixels().Bounds().Dx(), test.ShouldEqual, 640)

	test.That(t, fb.Resize(320, 240), test.ShouldBeTrue)
	test.That(t, fb.Resize(640, 480), test.ShouldBeTrue)
	test.That(t, fb.Allocations(), test.ShouldEqual, 3)
	test.That(t, fb.Height(), test.ShouldEqual, 480)
}
