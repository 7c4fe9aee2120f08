// Package sensor defines the capability set a depth camera SDK must provide to back a capture
// session: a capture context, color and depth streams, recorders and playback sources.
//
// Every handle returned by a driver is exclusively owned by whoever opened it and must be
// released with Close. None of the interfaces here are safe for concurrent use; a capture session
// confines all calls to a single worker goroutine.
package sensor

import (
	"context"

	"github.com/pkg/errors"
)

// ErrStreamUnavailable is returned (possibly wrapped) by drivers when the device or recording
// confirms it has no stream of the requested kind.
var ErrStreamUnavailable = errors.New("stream not available")

// StreamKind identifies the data a stream yields.
type StreamKind int

const (
	// DepthStream yields 16-bit depth samples.
	DepthStream StreamKind = iota
	// ColorStream yields packed 8-bit RGB pixels.
	ColorStream
)

func (k StreamKind) String() string {
	switch k {
	case DepthStream:
		return "depth"
	case ColorStream:
		return "color"
	default:
		return "unknown"
	}
}

// A Driver opens capture contexts, either against a live device or against a prior recording.
// The two modes are mutually exclusive for a single context.
type Driver interface {
	// OpenContext opens a capture context for a live device.
	OpenContext(ctx context.Context) (Context, error)

	// OpenRecording opens a capture context replaying the recording at path. The returned
	// Playback is owned by the caller and must be closed after the context's streams.
	OpenRecording(ctx context.Context, path string) (Context, Playback, error)
}

// A Context is the SDK's coordinating object for one device or recorded session.
type Context interface {
	// OpenColorStream opens the color stream. Drivers return ErrStreamUnavailable when they know
	// there is no color sensor; any other error may or may not mean the same thing.
	OpenColorStream(ctx context.Context) (Stream, error)

	// OpenDepthStream opens the depth stream.
	OpenDepthStream(ctx context.Context) (Stream, error)

	// StartAll starts generation on every opened stream.
	StartAll(ctx context.Context) error

	// StopAll stops generation on every opened stream.
	StopAll(ctx context.Context) error

	// WaitForNextFrameSet blocks until a new synchronized frame set is available on all started
	// streams. It fails if generation stops or the context is closed underneath it.
	WaitForNextFrameSet(ctx context.Context) error

	// CreateRecorder creates a recorder that will persist attached streams to destinationPath.
	CreateRecorder(ctx context.Context, destinationPath string) (Recorder, error)

	Close(ctx context.Context) error
}

// A Stream is a single sensor data source.
type Stream interface {
	Kind() StreamKind

	// Frame returns the stream's frame from the most recent frame set. The returned buffers
	// are owned by the stream and only valid until the next WaitForNextFrameSet.
	Frame() Frame

	Close(ctx context.Context) error
}

// Frame describes one frame of a stream.
type Frame struct {
	Width  int
	Height int
	// MaxDepth is the largest depth value the device can report, i.e. its Z resolution minus one.
	// Zero for color frames.
	MaxDepth int

	// Depth holds Width*Height row-major samples for depth frames.
	Depth []uint16
	// Color holds Width*Height*3 row-major RGB bytes for color frames.
	Color []byte
}

// A Recorder persists the frames of its attached streams while generation is active.
type Recorder interface {
	// Attach adds a stream to the recording. Only streams opened on the recorder's context may be
	// attached.
	Attach(ctx context.Context, stream Stream) error

	Close(ctx context.Context) error
}

// A Playback replays a recording as if it were a live device.
type Playback interface {
	Close(ctx context.Context) error
}
