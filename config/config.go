// Package config defines the structures to configure a capture session and the ability to
// read them from JSON files.
package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/utils"
)

const (
	// DefaultDriver is used when a config names no driver.
	DefaultDriver = "fake"

	// DefaultFpsWindow is the accumulation window of frame-rate samples.
	DefaultFpsWindow = 500 * time.Millisecond
)

// A Config describes one capture session.
type Config struct {
	// Driver names the registered sensor driver to use.
	Driver string `json:"driver"`

	// ReplayPath, if set, replays the capture file at this path instead of opening a live device.
	ReplayPath string `json:"replay_path,omitempty"`

	// RecordingDir is where recordings started without an explicit path are written.
	RecordingDir string `json:"recording_dir,omitempty"`

	FpsWindowMs int    `json:"fps_window_ms,omitempty"`
	LogLevel    string `json:"log_level,omitempty"`

	Snapshot *SnapshotConfig `json:"snapshot,omitempty"`

	// Attributes are passed to the driver's constructor.
	Attributes AttributeMap `json:"attributes,omitempty"`

	ConfigFilePath string `json:"-"`
}

// SnapshotConfig asks for the last rendered depth frame to be written out when a session stops.
type SnapshotConfig struct {
	Path string `json:"path"`
}

// Validate ensures all parts of the config are valid and fills in defaults.
func (conf *Config) Validate(path string) error {
	if conf.Driver == "" {
		conf.Driver = DefaultDriver
	}
	if conf.FpsWindowMs < 0 {
		return goutils.NewConfigValidationError(path, errors.New("fps_window_ms cannot be negative"))
	}
	if conf.FpsWindowMs == 0 {
		conf.FpsWindowMs = int(DefaultFpsWindow / time.Millisecond)
	}
	if conf.LogLevel != "" {
		if _, err := logging.LevelFromString(conf.LogLevel); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	if conf.Snapshot != nil {
		if err := conf.Snapshot.Validate(joinPath(path, "snapshot")); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return fmt.Sprintf("%s.%s", path, field)
}

// FpsWindow returns the configured fps accumulation window.
func (conf *Config) FpsWindow() time.Duration {
	if conf.FpsWindowMs <= 0 {
		return DefaultFpsWindow
	}
	return time.Duration(conf.FpsWindowMs) * time.Millisecond
}

// Validate ensures the snapshot path names an image format we can encode.
func (conf *SnapshotConfig) Validate(path string) error {
	if conf.Path == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "path")
	}
	if utils.MimeTypeFromPath(conf.Path) == "" {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("cannot encode snapshots to %q; use .png, .jpg, .ppm or .qoi", conf.Path))
	}
	return nil
}
