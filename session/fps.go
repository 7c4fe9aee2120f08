package session

import (
	"time"

	"github.com/benbjohnson/clock"
)

// fpsWindow accumulates frames and yields one frame rate sample each time at least window has
// elapsed since the window started.
type fpsWindow struct {
	clock  clock.Clock
	window time.Duration

	frames int
	start  time.Time
}

func newFpsWindow(clk clock.Clock, window time.Duration) *fpsWindow {
	return &fpsWindow{clock: clk, window: window}
}

// reset starts a new, empty window now.
func (f *fpsWindow) reset() {
	f.frames = 0
	f.start = f.clock.Now()
}

// frame counts one frame. When the window is full it returns frames / elapsed seconds and starts
// a new window.
func (f *fpsWindow) frame() (float64, bool) {
	f.frames++
	now := f.clock.Now()
	elapsed := now.Sub(f.start)
	if elapsed < f.window {
		return 0, false
	}
	sample := float64(f.frames) / elapsed.Seconds()
	f.frames = 0
	f.start = now
	return sample, true
}
