package session

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultFpsWindow is the minimum time frames are accumulated over before an fps sample is
// reported.
const DefaultFpsWindow = 500 * time.Millisecond

// options configures a Session.
type options struct {
	replayPath string
	clock      clock.Clock
	fpsWindow  time.Duration
	uiExecutor func(func())
}

// Option configures how a session captures.
type Option interface {
	apply(*options)
}

// funcOption wraps a function that modifies options into an implementation of the Option
// interface.
type funcOption struct {
	f func(*options)
}

func (fdo *funcOption) apply(do *options) {
	fdo.f(do)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithRecording returns an Option which makes the session replay the recording at path instead
// of opening a live device.
func WithRecording(path string) Option {
	return newFuncOption(func(o *options) {
		o.replayPath = path
	})
}

// WithClock returns an Option which sets the clock fps windows are measured with.
func WithClock(clk clock.Clock) Option {
	return newFuncOption(func(o *options) {
		o.clock = clk
	})
}

// WithFpsWindow returns an Option which sets the fps accumulation window. Non-positive values
// are ignored.
func WithFpsWindow(window time.Duration) Option {
	return newFuncOption(func(o *options) {
		if window > 0 {
			o.fpsWindow = window
		}
	})
}

// WithUIExecutor returns an Option which delivers Feedback notifications through exec, e.g. by
// posting them onto the caller's own UI loop. exec must run the functions it is given in order,
// and must not block on the session.
func WithUIExecutor(exec func(func())) Option {
	return newFuncOption(func(o *options) {
		o.uiExecutor = exec
	})
}
