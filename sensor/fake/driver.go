// Package fake implements a sensor driver backed by a synthetic depth camera, which can also
// replay capture files written by its own recorders.
package fake

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcapture/config"
	"go.viam.com/depthcapture/data"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/sensor"
)

// DriverName is the name the fake driver registers under.
const DriverName = "fake"

const (
	defaultWidth    = 640
	defaultHeight   = 480
	defaultFPS      = 30
	defaultMaxDepth = 10000
)

func init() {
	sensor.RegisterDriver(DriverName, sensor.Registration{
		Init: func(ctx context.Context, logger logging.Logger) error {
			logger.CDebugw(ctx, "fake sensor driver ready", "default_width", defaultWidth, "default_height", defaultHeight)
			return nil
		},
		Constructor: func(attrs config.AttributeMap, logger logging.Logger) (sensor.Driver, error) {
			conf, err := config.DecodeAttributes[Config](attrs)
			if err != nil {
				return nil, err
			}
			return NewDriver(*conf, clock.New(), logger)
		},
	})
}

// Config are the attributes of the fake driver.
type Config struct {
	Width    int  `json:"width,omitempty"`
	Height   int  `json:"height,omitempty"`
	FPS      int  `json:"fps,omitempty"`
	MaxDepth int  `json:"max_depth,omitempty"`
	Color    bool `json:"color,omitempty"`

	// FailDepth makes opening the depth stream fail.
	FailDepth bool `json:"fail_depth,omitempty"`
	// FailAfterFrames makes waiting for frame set number FailAfterFrames+1 fail. Zero never fails.
	FailAfterFrames int `json:"fail_after_frames,omitempty"`
}

// Validate checks the attributes and fills in defaults.
func (conf *Config) Validate(path string) error {
	if conf.Width < 0 || conf.Height < 0 {
		return errors.Errorf("%s: resolution cannot be negative, got %dx%d", path, conf.Width, conf.Height)
	}
	if conf.FPS < 0 {
		return errors.Errorf("%s: fps cannot be negative, got %d", path, conf.FPS)
	}
	if conf.MaxDepth < 0 || conf.MaxDepth > 65535 {
		return errors.Errorf("%s: max_depth must be within [0, 65535], got %d", path, conf.MaxDepth)
	}
	if conf.FailAfterFrames < 0 {
		return errors.Errorf("%s: fail_after_frames cannot be negative, got %d", path, conf.FailAfterFrames)
	}
	if conf.Width == 0 {
		conf.Width = defaultWidth
	}
	if conf.Height == 0 {
		conf.Height = defaultHeight
	}
	if conf.FPS == 0 {
		conf.FPS = defaultFPS
	}
	if conf.MaxDepth == 0 {
		conf.MaxDepth = defaultMaxDepth
	}
	return nil
}

// Driver is the fake sensor driver.
type Driver struct {
	conf   Config
	clock  clock.Clock
	logger logging.Logger
}

// NewDriver returns a fake driver whose frame pacing follows clk.
func NewDriver(conf Config, clk clock.Clock, logger logging.Logger) (*Driver, error) {
	if err := conf.Validate("fake"); err != nil {
		return nil, err
	}
	return &Driver{conf: conf, clock: clk, logger: logger}, nil
}

// Config returns the validated config the driver runs with.
func (d *Driver) Config() Config {
	return d.conf
}

// OpenContext opens a synthetic device.
func (d *Driver) OpenContext(ctx context.Context) (sensor.Context, error) {
	d.logger.CDebugw(ctx, "opening synthetic device", "width", d.conf.Width, "height", d.conf.Height, "color", d.conf.Color)
	return newCaptureContext(d, &syntheticSource{conf: d.conf}, d.frameInterval()), nil
}

// OpenRecording opens a capture file for replay. Replay keeps the recording's own stream set and
// loops at the end of the file.
func (d *Driver) OpenRecording(ctx context.Context, path string) (sensor.Context, sensor.Playback, error) {
	file, err := data.OpenCaptureFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot open recording %q", path)
	}
	source, err := newReplaySource(file)
	if err != nil {
		return nil, nil, multierr.Combine(err, file.Close())
	}
	d.logger.CDebugw(ctx, "opened recording", "path", path, "frame_sets", len(source.frameSets), "streams", source.streamNames())
	return newCaptureContext(d, source, d.frameInterval()), &playback{file: file}, nil
}

func (d *Driver) frameInterval() time.Duration {
	return time.Second / time.Duration(d.conf.FPS)
}

type playback struct {
	file *data.CaptureFile
}

func (p *playback) Close(ctx context.Context) error {
	return p.file.Close()
}
