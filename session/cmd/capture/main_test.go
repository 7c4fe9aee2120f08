package main

import (
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/depthcapture/data"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/testutils"
)

func TestMain(m *testing.M) {
	testutils.VerifyTestMain(m)
}

func writeConfig(t *testing.T, dir string, conf map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(conf)
	test.That(t, err, test.ShouldBeNil)
	path := filepath.Join(dir, "capture.json")
	test.That(t, os.WriteFile(path, raw, 0o600), test.ShouldBeNil)
	return path
}

func TestMainWithArgs(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("record and snapshot", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, map[string]interface{}{
			"driver": "fake",
			"attributes": map[string]interface{}{
				"width": 8, "height": 6, "fps": 100, "color": true,
			},
		})
		recording := filepath.Join(dir, "out")
		snapshot := filepath.Join(dir, "last.png")

		err := mainWithArgs(context.Background(), []string{
			"capture", "--record", recording, "--duration", "300ms", "--snapshot", snapshot, cfgPath,
		}, logger)
		test.That(t, err, test.ShouldBeNil)

		f, err := data.OpenCaptureFile(recording + data.CompletedCaptureFileExt)
		test.That(t, err, test.ShouldBeNil)
		readings, err := data.SensorDataFromCaptureFile(f)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, f.Close(), test.ShouldBeNil)
		test.That(t, readings, test.ShouldNotBeEmpty)

		out, err := os.Open(snapshot)
		test.That(t, err, test.ShouldBeNil)
		defer out.Close()
		img, err := png.Decode(out)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img.Bounds().Dx(), test.ShouldEqual, 8)
	})

	t.Run("replay from config", func(t *testing.T) {
		dir := t.TempDir()
		recordCfg := writeConfig(t, dir, map[string]interface{}{
			"attributes":    map[string]interface{}{"width": 4, "height": 4, "fps": 100},
			"recording_dir": "recordings",
		})
		err := mainWithArgs(context.Background(), []string{"capture", "--duration", "200ms", recordCfg}, logger)
		test.That(t, err, test.ShouldBeNil)

		recordings, err := filepath.Glob(filepath.Join(dir, "recordings", "*"+data.CompletedCaptureFileExt))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, recordings, test.ShouldHaveLength, 1)

		replayCfg := writeConfig(t, dir, map[string]interface{}{
			"attributes":  map[string]interface{}{"fps": 100},
			"replay_path": recordings[0],
			"snapshot":    map[string]interface{}{"path": "replayed.png"},
		})
		err = mainWithArgs(context.Background(), []string{"capture", "--duration", "200ms", replayCfg}, logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = os.Stat(filepath.Join(dir, "replayed.png"))
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("capture failure ends the run", func(t *testing.T) {
		cfgPath := writeConfig(t, t.TempDir(), map[string]interface{}{
			"attributes": map[string]interface{}{"width": 4, "height": 4, "fps": 200, "fail_after_frames": 2},
		})
		err := mainWithArgs(context.Background(), []string{"capture", cfgPath}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "FailedDuringCapture")
	})

	t.Run("interrupted", func(t *testing.T) {
		cfgPath := writeConfig(t, t.TempDir(), map[string]interface{}{
			"attributes": map[string]interface{}{"width": 4, "height": 4},
		})
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		test.That(t, mainWithArgs(ctx, []string{"capture", cfgPath}, logger), test.ShouldBeNil)
	})

	t.Run("bad arguments", func(t *testing.T) {
		cfgPath := writeConfig(t, t.TempDir(), map[string]interface{}{})

		err := mainWithArgs(context.Background(), []string{"capture", "--duration", "soon", cfgPath}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid --duration")

		err = mainWithArgs(context.Background(), []string{"capture", "--snapshot", "out.gif", cfgPath}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot encode")

		err = mainWithArgs(context.Background(), []string{"capture", filepath.Join(t.TempDir(), "missing.json")}, logger)
		test.That(t, err, test.ShouldNotBeNil)

		unknown := writeConfig(t, t.TempDir(), map[string]interface{}{"driver": "realsense"})
		err = mainWithArgs(context.Background(), []string{"capture", unknown}, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
