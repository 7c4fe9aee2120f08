package session

import "github.com/pkg/errors"

// ErrStopped is returned when asking a stopped session to do more work.
var ErrStopped = errors.New("capture session stopped")

// ErrorKind classifies the failures a session reports to its Feedback.
type ErrorKind int

const (
	// FailedToStartCapture means acquiring the capture context or streams, or starting
	// generation, failed. Frames are never pumped.
	FailedToStartCapture ErrorKind = iota
	// FailedDuringCapture means waiting for a frame set failed. Frames stop being pumped for the
	// rest of the session.
	FailedDuringCapture
	// FailedToStartRecording means the recorder could not be created or attached. Capture goes on
	// without recording.
	FailedToStartRecording
)

func (k ErrorKind) String() string {
	switch k {
	case FailedToStartCapture:
		return "FailedToStartCapture"
	case FailedDuringCapture:
		return "FailedDuringCapture"
	case FailedToStartRecording:
		return "FailedToStartRecording"
	default:
		return "Unknown"
	}
}
