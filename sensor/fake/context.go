package fake

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcapture/data"
	"go.viam.com/depthcapture/sensor"
)

var errContextClosed = errors.New("capture context closed")

type captureContext struct {
	driver   *Driver
	source   frameSource
	interval time.Duration

	mu        sync.Mutex
	streams   map[sensor.StreamKind]*stream
	recorders map[*recorder]struct{}
	started   bool
	closed    bool
	done      chan struct{}
	frameSets int
	lastFrame time.Time
}

func newCaptureContext(driver *Driver, source frameSource, interval time.Duration) *captureContext {
	return &captureContext{
		driver:    driver,
		source:    source,
		interval:  interval,
		streams:   map[sensor.StreamKind]*stream{},
		recorders: map[*recorder]struct{}{},
		done:      make(chan struct{}),
	}
}

func (c *captureContext) openStream(kind sensor.StreamKind) (sensor.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errContextClosed
	}
	if !c.source.hasStream(kind) {
		return nil, errors.Wrapf(sensor.ErrStreamUnavailable, "no %s stream", kind)
	}
	if _, ok := c.streams[kind]; ok {
		return nil, errors.Errorf("%s stream already open", kind)
	}
	s := &stream{kind: kind, owner: c}
	c.streams[kind] = s
	return s, nil
}

func (c *captureContext) OpenColorStream(ctx context.Context) (sensor.Stream, error) {
	return c.openStream(sensor.ColorStream)
}

func (c *captureContext) OpenDepthStream(ctx context.Context) (sensor.Stream, error) {
	if c.driver.conf.FailDepth {
		return nil, errors.New("depth sensor failed to open")
	}
	return c.openStream(sensor.DepthStream)
}

func (c *captureContext) StartAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errContextClosed
	}
	if len(c.streams) == 0 {
		return errors.New("no streams to start")
	}
	c.started = true
	c.lastFrame = c.driver.clock.Now()
	return nil
}

func (c *captureContext) StopAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errContextClosed
	}
	c.started = false
	return nil
}

func (c *captureContext) WaitForNextFrameSet(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errContextClosed
	}
	if !c.started {
		c.mu.Unlock()
		return errors.New("streams are not started")
	}
	if fail := c.driver.conf.FailAfterFrames; fail > 0 && c.frameSets >= fail {
		c.mu.Unlock()
		return errors.Errorf("device stopped responding after %d frame sets", fail)
	}
	wait := c.lastFrame.Add(c.interval).Sub(c.driver.clock.Now())
	c.mu.Unlock()

	if wait > 0 {
		timer := c.driver.clock.Timer(wait)
		select {
		case <-timer.C:
		case <-c.done:
			timer.Stop()
			return errContextClosed
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errContextClosed
	}
	if !c.started {
		return errors.New("streams were stopped while waiting for frames")
	}
	frames := c.source.next(c.frameSets)
	c.frameSets++
	c.lastFrame = c.driver.clock.Now()

	requested := c.lastFrame
	for kind, s := range c.streams {
		s.frame = frames[kind]
	}

	var errs error
	for r := range c.recorders {
		errs = multierr.Combine(errs, r.write(c.streams, requested, c.driver.clock.Now()))
	}
	return errs
}

func (c *captureContext) CreateRecorder(ctx context.Context, destinationPath string) (sensor.Recorder, error) {
	if destinationPath == "" {
		return nil, errors.New("recording destination cannot be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errContextClosed
	}

	w, err := data.CreateCaptureFile(destinationPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot record to %q", destinationPath)
	}
	r := &recorder{
		owner:    c,
		writer:   w,
		name:     recordingName(destinationPath),
		attached: map[sensor.StreamKind]bool{},
	}
	c.recorders[r] = struct{}{}
	c.driver.logger.CDebugw(ctx, "recorder created", "path", w.GetPath())
	return r, nil
}

func recordingName(destinationPath string) string {
	base := filepath.Base(destinationPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Close stops generation and releases any goroutine blocked waiting for frames.
func (c *captureContext) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.started = false
	close(c.done)
	return nil
}

// FrameSets returns how many frame sets were released.
func (c *captureContext) FrameSets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameSets
}

type stream struct {
	kind  sensor.StreamKind
	owner *captureContext
	frame sensor.Frame
}

func (s *stream) Kind() sensor.StreamKind {
	return s.kind
}

func (s *stream) Frame() sensor.Frame {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.frame
}

func (s *stream) Close(ctx context.Context) error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.owner.streams[s.kind] == s {
		delete(s.owner.streams, s.kind)
	}
	return nil
}

// recorder writes the capture file header lazily, so that it lists exactly the streams attached
// before the first frame set was recorded.
type recorder struct {
	owner    *captureContext
	writer   *data.CaptureFileWriter
	name     string
	attached map[sensor.StreamKind]bool
	closed   bool
}

func (r *recorder) Attach(ctx context.Context, s sensor.Stream) error {
	fs, ok := s.(*stream)
	if !ok || fs.owner != r.owner {
		return errors.New("can only attach streams opened on the recorder's context")
	}
	r.owner.mu.Lock()
	defer r.owner.mu.Unlock()
	if r.owner.streams[fs.kind] != fs {
		return errors.Errorf("%s stream is closed", fs.kind)
	}
	if r.writer.HasMetadata() {
		return errors.Errorf("cannot attach %s stream after recording has started", fs.kind)
	}
	r.attached[fs.kind] = true
	return nil
}

// writeMetadata must be called with owner.mu held.
func (r *recorder) writeMetadata() error {
	if r.writer.HasMetadata() {
		return nil
	}
	var streams []sensor.StreamKind
	for _, kind := range []sensor.StreamKind{sensor.DepthStream, sensor.ColorStream} {
		if r.attached[kind] {
			streams = append(streams, kind)
		}
	}
	md, err := data.BuildCaptureMetadata(r.name, streams, map[string]string{
		"driver": DriverName,
	})
	if err != nil {
		return err
	}
	return r.writer.WriteMetadata(md)
}

// write must be called with owner.mu held.
func (r *recorder) write(streams map[sensor.StreamKind]*stream, requested, received time.Time) error {
	if err := r.writeMetadata(); err != nil {
		return errors.Wrap(err, "cannot write recording metadata")
	}
	for _, kind := range []sensor.StreamKind{sensor.DepthStream, sensor.ColorStream} {
		s, ok := streams[kind]
		if !ok || !r.attached[kind] {
			continue
		}
		reading, err := data.FrameReading(kind, s.frame, requested, received)
		if err != nil {
			return err
		}
		if err := r.writer.WriteNext(reading); err != nil {
			return errors.Wrap(err, "cannot write frame to recording")
		}
	}
	return nil
}

func (r *recorder) Close(ctx context.Context) error {
	r.owner.mu.Lock()
	if r.closed {
		r.owner.mu.Unlock()
		return nil
	}
	r.closed = true
	delete(r.owner.recorders, r)
	mdErr := r.writeMetadata()
	r.owner.mu.Unlock()

	if err := multierr.Combine(mdErr, r.writer.Close()); err != nil {
		return err
	}
	r.owner.driver.logger.CDebugw(ctx, "recording finalized",
		"path", r.writer.GetPath(), "size", data.FormatBytesI64(r.writer.Size()))
	return nil
}
