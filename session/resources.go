package session

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/sensor"
	"go.viam.com/depthcapture/utils"
)

// resources holds every SDK handle a session owns. It is confined to the worker goroutine.
type resources struct {
	logger logging.Logger

	context    sensor.Context
	color      sensor.Stream
	colorState sensor.ColorAvailability
	depth      sensor.Stream
	recorder   sensor.Recorder
	playback   sensor.Playback
	generating bool
}

// acquire opens the capture context (live, or replaying replayPath), the optional color stream
// and the depth stream, then starts generation. Whatever was acquired before a failure stays
// held until release.
func (r *resources) acquire(ctx context.Context, driver sensor.Driver, replayPath string) error {
	if replayPath != "" {
		sensorCtx, playback, err := driver.OpenRecording(ctx, replayPath)
		if err != nil {
			return errors.Wrapf(err, "cannot open recording %q", replayPath)
		}
		r.context = sensorCtx
		r.playback = playback
	} else {
		sensorCtx, err := driver.OpenContext(ctx)
		if err != nil {
			return errors.Wrap(err, "cannot open capture context")
		}
		r.context = sensorCtx
	}

	color, err := r.context.OpenColorStream(ctx)
	r.colorState = sensor.ClassifyColorOpen(color, err)
	switch r.colorState {
	case sensor.ColorPresent:
		r.color = color
	case sensor.ColorConfirmedAbsent:
		r.logger.CDebug(ctx, "no color stream available")
	case sensor.ColorUnknownFailure:
		// Indistinguishable from a device without color, so capture goes on without it.
		r.logger.CInfow(ctx, "color stream could not be opened, capturing depth only", "error", err)
		if color != nil {
			r.logger.CDebugw(ctx, "closing color stream returned alongside an error")
			if closeErr := color.Close(ctx); closeErr != nil {
				r.logger.CWarnw(ctx, "failed to close color stream", "error", closeErr)
			}
		}
	}

	depth, err := r.context.OpenDepthStream(ctx)
	if err != nil {
		return errors.Wrap(err, "cannot open depth stream")
	}
	r.depth = depth

	if err := r.context.StartAll(ctx); err != nil {
		return errors.Wrap(err, "cannot start streams")
	}
	r.generating = true
	return nil
}

// streams returns the open streams in the order they are attached to recorders.
func (r *resources) streams() []sensor.Stream {
	var out []sensor.Stream
	if r.color != nil {
		out = append(out, r.color)
	}
	if r.depth != nil {
		out = append(out, r.depth)
	}
	return out
}

// closeRecorder closes and forgets the active recorder, if any. It reports whether there was one.
func (r *resources) closeRecorder(ctx context.Context) (bool, error) {
	if r.recorder == nil {
		return false, nil
	}
	err := r.recorder.Close(ctx)
	r.recorder = nil
	return true, err
}

// release stops generation and closes the recorder, depth stream, color stream, playback and
// context, in that order, skipping whatever is absent. Every failure is logged and releasing
// continues; the combined error is returned for inspection only. Calling release again is a
// no-op.
func (r *resources) release(ctx context.Context) error {
	var errs error
	record := func(what string, err error) {
		if err == nil {
			return
		}
		r.logger.CErrorw(ctx, "failed to release capture resource", "resource", what, "error", err)
		errs = multierr.Combine(errs, errors.Wrapf(err, "failed to release %s", what))
	}

	if r.generating && r.context != nil {
		record("stream generation", r.context.StopAll(ctx))
	}
	r.generating = false

	_, err := r.closeRecorder(ctx)
	record("recorder", err)

	record("depth stream", utils.TryClose(ctx, r.depth))
	r.depth = nil
	record("color stream", utils.TryClose(ctx, r.color))
	r.color = nil
	record("playback", utils.TryClose(ctx, r.playback))
	r.playback = nil
	record("capture context", utils.TryClose(ctx, r.context))
	r.context = nil

	return errs
}
