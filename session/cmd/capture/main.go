// Package main runs a depth capture session described by a config file.
package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/depthcapture/config"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/render"
	"go.viam.com/depthcapture/sensor"
	// registers the fake driver.
	_ "go.viam.com/depthcapture/sensor/fake"
	"go.viam.com/depthcapture/session"
	"go.viam.com/depthcapture/utils"
)

var logger = logging.NewLogger("capture")

// statsInterval is how often session counters are logged.
var statsInterval = 5 * time.Second

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile  string `flag:"0,required,usage=capture config file"`
	Record      string `flag:"record,usage=record the session to this path"`
	RecordAfter string `flag:"record-after,usage=wait this long before recording (e.g. 2s)"`
	Duration    string `flag:"duration,usage=stop after this long instead of waiting for an interrupt"`
	Snapshot    string `flag:"snapshot,usage=write the last depth frame to this image file on exit"`
	Debug       bool   `flag:"debug"`
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid --%s", name)
	}
	if d < 0 {
		return 0, errors.Errorf("--%s cannot be negative", name)
	}
	return d, nil
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	recordAfter, err := parseDuration("record-after", argsParsed.RecordAfter)
	if err != nil {
		return err
	}
	duration, err := parseDuration("duration", argsParsed.Duration)
	if err != nil {
		return err
	}
	if argsParsed.Debug {
		logger.SetLevel(logging.DEBUG)
	}

	cfg, err := config.Read(ctx, argsParsed.ConfigFile, logger)
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" && !argsParsed.Debug {
		level, err := logging.LevelFromString(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}

	if err := sensor.Initialize(ctx, logger); err != nil {
		return err
	}
	driver, err := sensor.NewDriver(cfg.Driver, cfg.Attributes, logger)
	if err != nil {
		return err
	}

	snapshotPath := argsParsed.Snapshot
	if snapshotPath == "" && cfg.Snapshot != nil {
		snapshotPath = cfg.Snapshot.Path
	}
	if snapshotPath != "" && utils.MimeTypeFromPath(snapshotPath) == "" {
		return errors.Errorf("cannot encode snapshots to %q", snapshotPath)
	}

	return runSession(ctx, cfg, driver, argsParsed.Record, recordAfter, duration, snapshotPath, logger)
}

func runSession(
	ctx context.Context,
	cfg *config.Config,
	driver sensor.Driver,
	recordPath string,
	recordAfter, duration time.Duration,
	snapshotPath string,
	logger logging.Logger,
) (err error) {
	opts := []session.Option{session.WithFpsWindow(cfg.FpsWindow())}
	if cfg.ReplayPath != "" {
		opts = append(opts, session.WithRecording(cfg.ReplayPath))
	}

	renderer := render.NewSnapshotRenderer()
	feedback := newLogFeedback(logger)
	s, err := session.New(ctx, driver, renderer, feedback, logger, opts...)
	if err != nil {
		return err
	}
	if recordPath == "" && cfg.RecordingDir != "" {
		recordPath = filepath.Join(cfg.RecordingDir, s.ID().String())
	}

	workers := utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		logStats(ctx, s, logger)
	})
	if recordPath != "" {
		workers.AddWorkers(func(ctx context.Context) {
			if !goutils.SelectContextOrWait(ctx, recordAfter) {
				return
			}
			//nolint:errcheck
			s.StartRecording(recordPath)
		})
	}
	defer func() {
		workers.Stop()
		if s.Stats().Recording {
			//nolint:errcheck
			s.StopRecording()
		}
		s.Stop()
		logger.Infow("session stopped", "frames", s.Stats().FramesPumped)

		if snapshotPath != "" {
			if snapErr := renderer.WriteSnapshot(context.WithoutCancel(ctx), snapshotPath); snapErr != nil {
				logger.Warnw("failed to write snapshot", "path", snapshotPath, "error", snapErr)
			} else {
				logger.Infow("wrote snapshot", "path", snapshotPath)
			}
		}
	}()

	goutils.ContextMainReadyFunc(ctx)()

	var stopAfter <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		stopAfter = timer.C
	}
	select {
	case <-ctx.Done():
		return nil
	case <-stopAfter:
		return nil
	case err := <-feedback.failed:
		return err
	}
}

func logStats(ctx context.Context, s *session.Session, logger logging.Logger) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		if !goutils.SelectContextOrWaitChan(ctx, ticker.C) {
			return
		}
		stats := s.Stats()
		logger.Infow("capture stats",
			"state", s.State(),
			"frames", stats.FramesPumped,
			"fps", stats.LastFps,
			"recording", stats.Recording,
			"color", stats.ColorAvailability)
	}
}
