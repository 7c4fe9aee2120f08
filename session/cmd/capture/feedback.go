package main

import (
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/session"
)

// logFeedback logs session notifications. The first error that ends capture is handed to
// failed.
type logFeedback struct {
	logger logging.Logger
	failed chan error
}

func newLogFeedback(logger logging.Logger) *logFeedback {
	return &logFeedback{logger: logger, failed: make(chan error, 1)}
}

func (f *logFeedback) SetFps(sample float64) {
	f.logger.Debugw("fps", "fps", sample)
}

func (f *logFeedback) ReportError(kind session.ErrorKind, message string) {
	f.logger.Errorw("session error", "kind", kind, "message", message)
	if kind == session.FailedToStartRecording {
		return
	}
	select {
	case f.failed <- errors.Errorf("%s: %s", kind, message):
	default:
	}
}

func (f *logFeedback) ReportRecordingFinished() {
	f.logger.Info("recording finished")
}
