package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/logging"
)

// Read reads a config from the given file. Environment variables referenced as ${VAR} are
// substituted before parsing.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	conf := &Config{ConfigFilePath: originalPath}
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(conf); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal config")
	}

	if err := conf.Validate(""); err != nil {
		return nil, err
	}

	// Replay, recording and snapshot paths are relative to the config file, not the working
	// directory.
	if originalPath != "" {
		baseDir := filepath.Dir(originalPath)
		if conf.ReplayPath != "" && !filepath.IsAbs(conf.ReplayPath) {
			conf.ReplayPath = filepath.Join(baseDir, conf.ReplayPath)
		}
		if conf.RecordingDir != "" && !filepath.IsAbs(conf.RecordingDir) {
			conf.RecordingDir = filepath.Join(baseDir, conf.RecordingDir)
		}
		if conf.Snapshot != nil && !filepath.IsAbs(conf.Snapshot.Path) {
			conf.Snapshot.Path = filepath.Join(baseDir, conf.Snapshot.Path)
		}
	}

	logger.CDebugw(ctx, "read capture config", "path", originalPath, "driver", conf.Driver,
		"replay", conf.ReplayPath != "")
	return conf, nil
}
