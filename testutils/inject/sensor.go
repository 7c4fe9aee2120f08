package inject

import (
	"context"

	"go.viam.com/depthcapture/sensor"
	"go.viam.com/depthcapture/utils"
)

// Driver is an injected sensor driver.
type Driver struct {
	sensor.Driver
	OpenContextFunc   func(ctx context.Context) (sensor.Context, error)
	OpenRecordingFunc func(ctx context.Context, path string) (sensor.Context, sensor.Playback, error)
}

// OpenContext calls the injected OpenContext or the real version.
func (d *Driver) OpenContext(ctx context.Context) (sensor.Context, error) {
	if d.OpenContextFunc == nil {
		return d.Driver.OpenContext(ctx)
	}
	return d.OpenContextFunc(ctx)
}

// OpenRecording calls the injected OpenRecording or the real version.
func (d *Driver) OpenRecording(ctx context.Context, path string) (sensor.Context, sensor.Playback, error) {
	if d.OpenRecordingFunc == nil {
		return d.Driver.OpenRecording(ctx, path)
	}
	return d.OpenRecordingFunc(ctx, path)
}

// Context is an injected capture context.
type Context struct {
	sensor.Context
	OpenColorStreamFunc     func(ctx context.Context) (sensor.Stream, error)
	OpenDepthStreamFunc     func(ctx context.Context) (sensor.Stream, error)
	StartAllFunc            func(ctx context.Context) error
	StopAllFunc             func(ctx context.Context) error
	WaitForNextFrameSetFunc func(ctx context.Context) error
	CreateRecorderFunc      func(ctx context.Context, destinationPath string) (sensor.Recorder, error)
	CloseFunc               func(ctx context.Context) error
}

// OpenColorStream calls the injected OpenColorStream or the real version.
func (c *Context) OpenColorStream(ctx context.Context) (sensor.Stream, error) {
	if c.OpenColorStreamFunc == nil {
		return c.Context.OpenColorStream(ctx)
	}
	return c.OpenColorStreamFunc(ctx)
}

// OpenDepthStream calls the injected OpenDepthStream or the real version.
func (c *Context) OpenDepthStream(ctx context.Context) (sensor.Stream, error) {
	if c.OpenDepthStreamFunc == nil {
		return c.Context.OpenDepthStream(ctx)
	}
	return c.OpenDepthStreamFunc(ctx)
}

// StartAll calls the injected StartAll or the real version.
func (c *Context) StartAll(ctx context.Context) error {
	if c.StartAllFunc == nil {
		return c.Context.StartAll(ctx)
	}
	return c.StartAllFunc(ctx)
}

// StopAll calls the injected StopAll or the real version.
func (c *Context) StopAll(ctx context.Context) error {
	if c.StopAllFunc == nil {
		return c.Context.StopAll(ctx)
	}
	return c.StopAllFunc(ctx)
}

// WaitForNextFrameSet calls the injected WaitForNextFrameSet or the real version.
func (c *Context) WaitForNextFrameSet(ctx context.Context) error {
	if c.WaitForNextFrameSetFunc == nil {
		return c.Context.WaitForNextFrameSet(ctx)
	}
	return c.WaitForNextFrameSetFunc(ctx)
}

// CreateRecorder calls the injected CreateRecorder or the real version.
func (c *Context) CreateRecorder(ctx context.Context, destinationPath string) (sensor.Recorder, error) {
	if c.CreateRecorderFunc == nil {
		return c.Context.CreateRecorder(ctx, destinationPath)
	}
	return c.CreateRecorderFunc(ctx, destinationPath)
}

// Close calls the injected Close or the real version.
func (c *Context) Close(ctx context.Context) error {
	if c.CloseFunc == nil {
		return utils.TryClose(ctx, c.Context)
	}
	return c.CloseFunc(ctx)
}

// Stream is an injected sensor stream.
type Stream struct {
	sensor.Stream
	KindFunc  func() sensor.StreamKind
	FrameFunc func() sensor.Frame
	CloseFunc func(ctx context.Context) error
}

// Kind calls the injected Kind or the real version.
func (s *Stream) Kind() sensor.StreamKind {
	if s.KindFunc == nil {
		return s.Stream.Kind()
	}
	return s.KindFunc()
}

// Frame calls the injected Frame or the real version.
func (s *Stream) Frame() sensor.Frame {
	if s.FrameFunc == nil {
		return s.Stream.Frame()
	}
	return s.FrameFunc()
}

// Close calls the injected Close or the real version.
func (s *Stream) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		return utils.TryClose(ctx, s.Stream)
	}
	return s.CloseFunc(ctx)
}

// Recorder is an injected recorder.
type Recorder struct {
	sensor.Recorder
	AttachFunc func(ctx context.Context, stream sensor.Stream) error
	CloseFunc  func(ctx context.Context) error
}

// Attach calls the injected Attach or the real version.
func (r *Recorder) Attach(ctx context.Context, stream sensor.Stream) error {
	if r.AttachFunc == nil {
		return r.Recorder.Attach(ctx, stream)
	}
	return r.AttachFunc(ctx, stream)
}

// Close calls the injected Close or the real version.
func (r *Recorder) Close(ctx context.Context) error {
	if r.CloseFunc == nil {
		return utils.TryClose(ctx, r.Recorder)
	}
	return r.CloseFunc(ctx)
}

// Playback is an injected playback source.
type Playback struct {
	sensor.Playback
	CloseFunc func(ctx context.Context) error
}

// Close calls the injected Close or the real version.
func (p *Playback) Close(ctx context.Context) error {
	if p.CloseFunc == nil {
		return utils.TryClose(ctx, p.Playback)
	}
	return p.CloseFunc(ctx)
}
