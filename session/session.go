// Package session runs a depth camera capture session.
//
// A Session owns every SDK handle of one device (or replayed recording) and confines all use of
// them to a single worker goroutine running a FIFO task queue. The frame pump is a task that
// re-enqueues itself after each frame set, so recording and stop requests made through the
// public API run strictly between frame iterations. Feedback flows back to the caller through a
// separate one-way dispatcher.
package session

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/render"
	"go.viam.com/depthcapture/sensor"
	"go.viam.com/depthcapture/utils"
)

// Stats is a snapshot of a session's counters. Counters are updated by the worker and read
// without synchronizing with it, so a snapshot may lag the latest frame.
type Stats struct {
	FramesPumped      uint64
	LastFps           float64
	DepthAllocations  int64
	ColorAllocations  int64
	Recording         bool
	ColorAvailability sensor.ColorAvailability
}

type sessionStats struct {
	frames           atomic.Uint64
	lastFps          atomic.Float64
	depthAllocations atomic.Int64
	colorAllocations atomic.Int64
	recording        atomic.Bool
	colorState       atomic.Int32
}

// A Session captures from one device or recording until stopped.
type Session struct {
	id       uuid.UUID
	logger   logging.Logger
	driver   sensor.Driver
	renderer render.Renderer
	feedback Feedback
	opts     options

	worker   *worker
	dispatch *dispatcher

	// Only touched on the worker goroutine.
	res  resources
	pump *framePump

	state    atomicState
	hasError atomic.Bool
	stopping atomic.Bool
	stopOnce sync.Once
	stats    sessionStats
}

// New starts a capture session and returns without waiting for the device to open. Whether
// startup succeeded is reported through feedback. logger gets a sublogger per session.
func New(
	ctx context.Context,
	driver sensor.Driver,
	renderer render.Renderer,
	feedback Feedback,
	logger logging.Logger,
	opts ...Option,
) (*Session, error) {
	if driver == nil {
		return nil, errors.New("a sensor driver is required")
	}
	if renderer == nil {
		return nil, errors.New("a renderer is required")
	}
	if feedback == nil {
		return nil, errors.New("feedback is required")
	}

	o := options{clock: clock.New(), fpsWindow: DefaultFpsWindow}
	for _, opt := range opts {
		opt.apply(&o)
	}

	id := uuid.New()
	s := &Session{
		id:       id,
		logger:   logger.Sublogger(id.String()),
		driver:   driver,
		renderer: renderer,
		feedback: feedback,
		opts:     o,
		dispatch: newDispatcher(o.uiExecutor),
	}
	s.res.logger = s.logger.Sublogger("resources")
	s.stats.colorState.Store(int32(sensor.ColorUnknownFailure))
	s.pump = newFramePump(s)
	s.worker = newWorker(s.logger.Sublogger("worker"), func(ctx context.Context, err error) {
		s.pump.armed = false
		s.state.advance(Erroring)
		s.reportError(ctx, FailedDuringCapture, err)
	})

	// The session outlives the call that created it, but keeps its values (e.g. debug mode).
	s.worker.start(context.WithoutCancel(ctx))
	if err := s.worker.enqueue(s.initialize); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the id of this session.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state.Load()
}

// HasError reports whether any error was reported. It may be called from any goroutine and never
// blocks on the worker; a just-reported error may not be visible yet.
func (s *Session) HasError() bool {
	return s.hasError.Load()
}

// Stats returns the session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		FramesPumped:      s.stats.frames.Load(),
		LastFps:           s.stats.lastFps.Load(),
		DepthAllocations:  s.stats.depthAllocations.Load(),
		ColorAllocations:  s.stats.colorAllocations.Load(),
		Recording:         s.stats.recording.Load(),
		ColorAvailability: sensor.ColorAvailability(s.stats.colorState.Load()),
	}
}

// StartRecording asks the worker to record the open streams to destinationPath. Failure is
// reported as FailedToStartRecording and capture continues. Recording is possible whenever the
// streams are generating, including after a capture failure left the session Erroring; it is
// refused if startup never got that far.
func (s *Session) StartRecording(destinationPath string) error {
	return s.enqueue("start recording", func(ctx context.Context) {
		s.startRecording(ctx, destinationPath)
	})
}

// StopRecording asks the worker to stop the active recording. ReportRecordingFinished follows
// only if a recording was active.
func (s *Session) StopRecording() error {
	return s.enqueue("stop recording", s.stopRecording)
}

// Stop tears the session down and waits for its worker to exit. A frame set being waited on is
// finished first. Calling Stop again returns once the first call's teardown is done. Stop must
// not be called from a Renderer method.
func (s *Session) Stop() {
	//nolint:errcheck
	s.StopContext(context.Background())
}

// StopContext is like Stop but gives up waiting when ctx is done, returning ctx.Err(). Teardown
// still completes in the background.
func (s *Session) StopContext(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.logger.CDebug(ctx, "stopping")
		s.stopping.Store(true)
		s.worker.terminate(s.teardown)
	})
	return s.worker.wait(ctx)
}

func (s *Session) enqueue(what string, t task) error {
	if err := s.worker.enqueue(t); err != nil {
		s.logger.Debugw("dropping request", "request", what, "error", err)
		return err
	}
	return nil
}

// reportError is the only way failures reach the caller.
func (s *Session) reportError(ctx context.Context, kind ErrorKind, err error) {
	s.hasError.Store(true)
	s.logger.CErrorw(ctx, "capture error", "kind", kind, "error", err)
	message := err.Error()
	s.dispatch.post(func() {
		s.feedback.ReportError(kind, message)
	})
}

func (s *Session) initialize(ctx context.Context) {
	s.state.advance(Starting)
	err := s.res.acquire(ctx, s.driver, s.opts.replayPath)
	s.stats.colorState.Store(int32(s.res.colorState))
	if err != nil {
		s.state.advance(Erroring)
		s.reportError(ctx, FailedToStartCapture, err)
		return
	}
	s.logger.CInfow(ctx, "capture started",
		"color", s.res.colorState, "replay", s.opts.replayPath != "")
	s.state.advance(Running)
	s.pump.arm()
}

func (s *Session) startRecording(ctx context.Context, destinationPath string) {
	if !s.res.generating {
		s.reportError(ctx, FailedToStartRecording, errors.New("capture is not running"))
		return
	}
	if s.res.recorder != nil {
		s.reportError(ctx, FailedToStartRecording, errors.New("already recording"))
		return
	}

	recorder, err := s.res.context.CreateRecorder(ctx, destinationPath)
	if err != nil {
		s.reportError(ctx, FailedToStartRecording, errors.Wrapf(err, "cannot create recorder for %q", destinationPath))
		return
	}
	guard := utils.NewGuard(func() {
		if err := recorder.Close(ctx); err != nil {
			s.logger.CErrorw(ctx, "failed to close partially created recorder", "error", err)
		}
	})
	defer guard.OnFail()

	for _, stream := range s.res.streams() {
		if err := recorder.Attach(ctx, stream); err != nil {
			s.reportError(ctx, FailedToStartRecording, errors.Wrapf(err, "cannot attach %s stream", stream.Kind()))
			return
		}
	}
	guard.Success()

	s.res.recorder = recorder
	s.stats.recording.Store(true)
	s.logger.CInfow(ctx, "recording started", "path", destinationPath)
}

func (s *Session) stopRecording(ctx context.Context) {
	wasRecording, err := s.res.closeRecorder(ctx)
	if !wasRecording {
		return
	}
	s.stats.recording.Store(false)
	if err != nil {
		s.logger.CErrorw(ctx, "failed to close recorder", "error", err)
	}
	s.logger.CInfo(ctx, "recording finished")
	s.dispatch.post(s.feedback.ReportRecordingFinished)
}

func (s *Session) teardown(ctx context.Context) {
	s.state.advance(Stopping)
	s.pump.armed = false
	//nolint:errcheck
	s.res.release(ctx)
	s.stats.recording.Store(false)
	s.dispatch.close()
	s.state.advance(Terminated)
	s.logger.CDebug(ctx, "stopped")
}
