package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"
)

type resolution struct {
	Width  int
	Height int
	format string
}

type streamInfo struct {
	kind string
	Res  resolution
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	// `Helper` will result in test failures being associated with the callers line number. It's
	// more useful to report which `assertLogMatches` call failed rather than which assertion
	// inside this function. Maybe.
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	// The time must parse with the appender's layout in any zone, e.g. "-0400" or "Z".
	_, err = time.Parse(DefaultTimeFormatStr, actualParts[0])
	test.That(t, err, test.ShouldBeNil)
	_, err = time.Parse(DefaultTimeFormatStr, expectedParts[0])
	test.That(t, err, test.ShouldBeNil)
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	// Verify the filename matches exactly.
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	// Verify the line number is in fact a number, but no more.
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])

	// Structured logging with the "w" API. E.g: `Debugw` has an extra tab delimited output.
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 4 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	err = json.Unmarshal([]byte(expectedParts[4]), &expectedMap)
	test.That(t, err, test.ShouldBeNil)

	actualMap := make(map[string]any)
	err = json.Unmarshal([]byte(actualParts[4]), &actualMap)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

// The console appender output is tab delimited in the same order as zap's console encoder:
//
//	2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:87	capture started
func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	impl := &impl{"", NewAtomicLevelAt(DEBUG), false, []Appender{NewWriterAppender(notStdout)}}

	impl.Info("capture started")
	// The `assertLogMatches` helper deals with the changes to the time/line number.
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:67	capture started`)

	impl.Infof("recording to %s", "/tmp/run1")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:45:20.764-0400	INFO	logging/impl_test.go:131	recording to /tmp/run1`)

	impl.Infow("fps", "fps", 30)
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	logging/impl_test.go:132	fps	{"fps":30}`)

	// only exported fields are encoded
	impl.Infow("depth resolution changed", "stream", streamInfo{"depth", resolution{640, 480, "z16"}}, "frame", 12)
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:123	depth resolution changed	{"stream":{"Res":{"Width":640,"Height":480}},"frame":12}`)

	impl.Warnw("unpaired", "path")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	WARN	logging/impl_test.go:121	unpaired	{"path":"unpaired log key"}`)
}

func TestConsoleOutputInUTC(t *testing.T) {
	notStdout := &bytes.Buffer{}
	impl := &impl{"", NewAtomicLevelAt(INFO), true, []Appender{NewWriterAppender(notStdout)}}

	impl.Info("capture started")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:12:09.459Z	INFO	logging/impl_test.go:67	capture started`)
}

func TestNamedConsoleOutput(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := (&impl{"capture", NewAtomicLevelAt(INFO), true, []Appender{NewWriterAppender(notStdout)}}).Sublogger("worker")

	logger.Errorw("capture task panicked", "error", "boom")
	line := notStdout.String()
	test.That(t, line, test.ShouldContainSubstring, "\tERROR\tcapture.worker\tlogging/impl_test.go:")
	test.That(t, line, test.ShouldContainSubstring, "capture task panicked\t{\"error\":\"boom\"}")
	test.That(t, line, test.ShouldContainSubstring, "Z\t")
}

func TestLevelFiltering(t *testing.T) {
	notStdout := &bytes.Buffer{}
	impl := &impl{"", NewAtomicLevelAt(WARN), false, []Appender{NewWriterAppender(notStdout)}}

	impl.Debug("dropped")
	impl.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	impl.Warn("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	WARN	logging/impl_test.go:67	kept`)

	impl.SetLevel(DEBUG)
	test.That(t, impl.GetLevel(), test.ShouldEqual, DEBUG)
	impl.Debugf("now %s", "kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	logging/impl_test.go:67	now kept`)

	impl.SetLevel(ERROR)
	impl.CDebug(EnableDebugMode(context.Background(), ""), "debug mode ctx")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	logging/impl_test.go:67	debug mode ctx`)
}

func TestSubloggerAndObserver(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("capture").Sublogger("pump")

	sub.Errorw("failed to acquire a frame", "error", "timeout")
	test.That(t, logs.FilterMessage("failed to acquire a frame").Len(), test.ShouldEqual, 1)
	entry := logs.All()[0]
	test.That(t, entry.LoggerName, test.ShouldEqual, "capture.pump")
	test.That(t, entry.ContextMap()["error"], test.ShouldEqual, "timeout")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"Error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.out)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}
