package session

// Feedback receives notifications from a session. Its methods are only ever called from the
// session's UI executor, one at a time, never from the worker goroutine.
type Feedback interface {
	// SetFps reports the frame rate measured over the last fps window.
	SetFps(sample float64)

	// ReportError reports a failure. Each occurrence is reported exactly once.
	ReportError(kind ErrorKind, message string)

	// ReportRecordingFinished reports that an active recording was stopped by StopRecording.
	ReportRecordingFinished()
}
