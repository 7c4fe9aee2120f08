package session

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/depthcapture/data"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/render"
	"go.viam.com/depthcapture/sensor"
	"go.viam.com/depthcapture/sensor/fake"
)

func TestSessionRecordAndReplayFakeDevice(t *testing.T) {
	logger := logging.NewTestLogger(t)
	driver, err := fake.NewDriver(fake.Config{Width: 8, Height: 6, FPS: 200, Color: true}, clock.New(), logger)
	test.That(t, err, test.ShouldBeNil)
	dir := t.TempDir()

	// record a few frame sets from the synthetic device
	renderer := render.NewSnapshotRenderer()
	feedback := &testFeedback{}
	s, err := New(context.Background(), driver, renderer, feedback, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.StartRecording(filepath.Join(dir, "walkthrough")), test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, s.Stats().Recording, test.ShouldBeTrue)
	})
	recordedFrom := s.Stats().FramesPumped
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, s.Stats().FramesPumped, test.ShouldBeGreaterThanOrEqualTo, recordedFrom+5)
	})
	test.That(t, s.StopRecording(), test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, feedback.Finished(), test.ShouldEqual, 1)
	})
	s.Stop()
	test.That(t, s.HasError(), test.ShouldBeFalse)
	test.That(t, feedback.Errors(), test.ShouldBeEmpty)
	test.That(t, s.Stats().ColorAvailability, test.ShouldEqual, sensor.ColorPresent)
	test.That(t, s.Stats().DepthAllocations, test.ShouldEqual, 1)

	depthFrames, colorFrames, _ := renderer.Counts()
	test.That(t, depthFrames, test.ShouldBeGreaterThanOrEqualTo, 5)
	test.That(t, colorFrames, test.ShouldEqual, depthFrames)

	recording := filepath.Join(dir, "walkthrough"+data.CompletedCaptureFileExt)
	f, err := data.OpenCaptureFile(recording)
	test.That(t, err, test.ShouldBeNil)
	md := f.ReadMetadata()
	test.That(t, md.GetComponentName(), test.ShouldEqual, "walkthrough")
	test.That(t, data.StreamsFromMetadata(md), test.ShouldResemble, []sensor.StreamKind{sensor.DepthStream, sensor.ColorStream})
	readings, err := data.SensorDataFromCaptureFile(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)
	test.That(t, len(readings), test.ShouldBeGreaterThanOrEqualTo, 10)

	// replay it
	replayRenderer := render.NewSnapshotRenderer()
	replayFeedback := &testFeedback{}
	replay, err := New(context.Background(), driver, replayRenderer, replayFeedback, logger, WithRecording(recording))
	test.That(t, err, test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		depthFrames, colorFrames, _ := replayRenderer.Counts()
		test.That(tb, depthFrames, test.ShouldBeGreaterThanOrEqualTo, 3)
		test.That(tb, colorFrames, test.ShouldBeGreaterThanOrEqualTo, 3)
	})
	replay.Stop()
	test.That(t, replay.HasError(), test.ShouldBeFalse)
	test.That(t, replayFeedback.Errors(), test.ShouldBeEmpty)

	snapshot := filepath.Join(dir, "depth.png")
	test.That(t, replayRenderer.WriteSnapshot(context.Background(), snapshot), test.ShouldBeNil)
	out, err := os.Open(snapshot)
	test.That(t, err, test.ShouldBeNil)
	defer out.Close()
	img, err := png.Decode(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 8)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 6)
}

func TestSessionFakeDeviceFailures(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("depth", func(t *testing.T) {
		driver, err := fake.NewDriver(fake.Config{Width: 4, Height: 4, FailDepth: true}, clock.New(), logger)
		test.That(t, err, test.ShouldBeNil)
		feedback := &testFeedback{}
		s, err := New(context.Background(), driver, render.NewSnapshotRenderer(), feedback, logger)
		test.That(t, err, test.ShouldBeNil)
		defer s.Stop()

		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			test.That(tb, feedback.Errors(), test.ShouldHaveLength, 1)
		})
		test.That(t, feedback.Errors()[0].kind, test.ShouldEqual, FailedToStartCapture)
		test.That(t, s.Stats().ColorAvailability, test.ShouldEqual, sensor.ColorConfirmedAbsent)
	})

	t.Run("during capture", func(t *testing.T) {
		driver, err := fake.NewDriver(fake.Config{Width: 4, Height: 4, FPS: 500, FailAfterFrames: 3}, clock.New(), logger)
		test.That(t, err, test.ShouldBeNil)
		renderer := render.NewSnapshotRenderer()
		feedback := &testFeedback{}
		s, err := New(context.Background(), driver, renderer, feedback, logger)
		test.That(t, err, test.ShouldBeNil)
		defer s.Stop()

		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			test.That(tb, feedback.Errors(), test.ShouldHaveLength, 1)
		})
		test.That(t, feedback.Errors()[0].kind, test.ShouldEqual, FailedDuringCapture)
		test.That(t, feedback.Errors()[0].message, test.ShouldContainSubstring, "stopped responding")
		depthFrames, _, _ := renderer.Counts()
		test.That(t, depthFrames, test.ShouldEqual, 3)
	})

	t.Run("missing recording", func(t *testing.T) {
		driver, err := fake.NewDriver(fake.Config{}, clock.New(), logger)
		test.That(t, err, test.ShouldBeNil)
		feedback := &testFeedback{}
		s, err := New(context.Background(), driver, render.NewSnapshotRenderer(), feedback, logger,
			WithRecording(filepath.Join(t.TempDir(), "nope.capture")))
		test.That(t, err, test.ShouldBeNil)
		defer s.Stop()

		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			test.That(tb, feedback.Errors(), test.ShouldHaveLength, 1)
		})
		test.That(t, feedback.Errors()[0].kind, test.ShouldEqual, FailedToStartCapture)
		test.That(t, s.HasError(), test.ShouldBeTrue)
	})
}
