package data

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	v1 "go.viam.com/api/app/datasync/v1"
	"go.viam.com/test"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.viam.com/depthcapture/sensor"
)

func depthFrame(width, height int, base uint16) sensor.Frame {
	samples := make([]uint16, width*height)
	for i := range samples {
		samples[i] = base + uint16(i)
	}
	return sensor.Frame{Width: width, Height: height, MaxDepth: 10000, Depth: samples}
}

func colorFrame(width, height int) sensor.Frame {
	rgb := make([]byte, width*height*3)
	for i := range rgb {
		rgb[i] = byte(i)
	}
	return sensor.Frame{Width: width, Height: height, Color: rgb}
}

func TestCaptureFilePaths(t *testing.T) {
	prog, final := CaptureFilePaths("/tmp/rec/session")
	test.That(t, prog, test.ShouldEqual, "/tmp/rec/session.prog")
	test.That(t, final, test.ShouldEqual, "/tmp/rec/session.capture")

	prog, final = CaptureFilePaths("/tmp/rec/session.capture")
	test.That(t, prog, test.ShouldEqual, "/tmp/rec/session.prog")
	test.That(t, final, test.ShouldEqual, "/tmp/rec/session.capture")
}

func TestBuildCaptureMetadata(t *testing.T) {
	md, err := BuildCaptureMetadata("abc", []sensor.StreamKind{sensor.ColorStream, sensor.DepthStream},
		map[string]string{"driver": "fake"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, md.GetComponentType(), test.ShouldEqual, ComponentTypeCamera)
	test.That(t, md.GetComponentName(), test.ShouldEqual, "abc")
	test.That(t, md.GetMethodName(), test.ShouldEqual, MethodFrameSet)
	test.That(t, md.GetType(), test.ShouldEqual, v1.DataType_DATA_TYPE_BINARY_SENSOR)
	test.That(t, md.GetTags(), test.ShouldResemble, []string{"color", "depth"})

	driver := &wrapperspb.StringValue{}
	test.That(t, md.GetMethodParameters()["driver"].UnmarshalTo(driver), test.ShouldBeNil)
	test.That(t, driver.GetValue(), test.ShouldEqual, "fake")

	test.That(t, StreamsFromMetadata(md), test.ShouldResemble, []sensor.StreamKind{sensor.ColorStream, sensor.DepthStream})
	test.That(t, StreamsFromMetadata(&v1.DataCaptureMetadata{Tags: []string{"depth", "other"}}),
		test.ShouldResemble, []sensor.StreamKind{sensor.DepthStream})
}

func TestEncodeDecodeFrame(t *testing.T) {
	t.Run("depth", func(t *testing.T) {
		in := depthFrame(4, 3, 1000)
		encoded, err := EncodeFrame(sensor.DepthStream, in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(encoded), test.ShouldEqual, frameHeaderSize+4*3*2)

		kind, out, err := DecodeFrame(encoded)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, kind, test.ShouldEqual, sensor.DepthStream)
		test.That(t, out, test.ShouldResemble, in)
	})

	t.Run("color", func(t *testing.T) {
		in := colorFrame(2, 2)
		encoded, err := EncodeFrame(sensor.ColorStream, in)
		test.That(t, err, test.ShouldBeNil)

		kind, out, err := DecodeFrame(encoded)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, kind, test.ShouldEqual, sensor.ColorStream)
		test.That(t, out, test.ShouldResemble, in)
	})

	t.Run("short buffers", func(t *testing.T) {
		_, err := EncodeFrame(sensor.DepthStream, sensor.Frame{Width: 2, Height: 2, Depth: []uint16{1}})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected 4")

		_, err = EncodeFrame(sensor.ColorStream, sensor.Frame{Width: 2, Height: 2, Color: []byte{1}})
		test.That(t, err, test.ShouldNotBeNil)

		_, _, err = DecodeFrame([]byte{0, 1})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "too short")

		encoded, err := EncodeFrame(sensor.DepthStream, depthFrame(2, 2, 0))
		test.That(t, err, test.ShouldBeNil)
		_, _, err = DecodeFrame(encoded[:len(encoded)-1])
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := EncodeFrame(sensor.StreamKind(7), depthFrame(1, 1, 0))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestCaptureFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	destination := filepath.Join(dir, "nested", "rec")

	md, err := BuildCaptureMetadata("session", []sensor.StreamKind{sensor.DepthStream, sensor.ColorStream}, nil)
	test.That(t, err, test.ShouldBeNil)

	w, err := NewCaptureFileWriter(destination, md)
	test.That(t, err, test.ShouldBeNil)

	progPath, finalPath := CaptureFilePaths(destination)
	test.That(t, w.GetPath(), test.ShouldEqual, finalPath)
	_, err = os.Stat(progPath)
	test.That(t, err, test.ShouldBeNil)

	now := time.Now()
	frames := []struct {
		kind  sensor.StreamKind
		frame sensor.Frame
	}{
		{sensor.DepthStream, depthFrame(3, 2, 10)},
		{sensor.ColorStream, colorFrame(3, 2)},
		{sensor.DepthStream, depthFrame(3, 2, 20)},
	}
	for _, f := range frames {
		reading, err := FrameReading(f.kind, f.frame, now, now.Add(time.Millisecond))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, w.WriteNext(reading), test.ShouldBeNil)
	}
	test.That(t, w.Size(), test.ShouldBeGreaterThan, 0)

	// not finalized yet
	_, err = OpenCaptureFile(progPath)
	test.That(t, err, test.ShouldBeError)
	test.That(t, err, test.ShouldWrap, ErrNotCaptureFile)

	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, w.WriteNext(&v1.SensorData{}), test.ShouldNotBeNil)

	_, err = os.Stat(progPath)
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)

	cf, err := OpenCaptureFile(finalPath)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, cf.Close(), test.ShouldBeNil)
	}()
	test.That(t, cf.GetPath(), test.ShouldEqual, finalPath)
	test.That(t, cf.Size(), test.ShouldEqual, w.Size())
	test.That(t, cf.ReadMetadata().GetComponentName(), test.ShouldEqual, "session")

	for _, f := range frames {
		reading, err := cf.ReadNext()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, reading.GetMetadata().GetTimeRequested().AsTime().Equal(now), test.ShouldBeTrue)
		kind, frame, err := FrameFromReading(reading)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, kind, test.ShouldEqual, f.kind)
		test.That(t, frame, test.ShouldResemble, f.frame)
	}
	_, err = cf.ReadNext()
	test.That(t, err, test.ShouldBeError, io.EOF)

	cf.Reset()
	all, err := SensorDataFromCaptureFile(cf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(all), test.ShouldEqual, len(frames))
}

func TestOpenCaptureFileInvalidMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.capture")
	test.That(t, os.WriteFile(path, nil, 0o600), test.ShouldBeNil)

	_, err := OpenCaptureFile(path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to read DataCaptureMetadata")
}

func TestFrameFromReadingRequiresBinary(t *testing.T) {
	_, _, err := FrameFromReading(&v1.SensorData{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFormatBytes(t *testing.T) {
	test.That(t, FormatBytesI64(512), test.ShouldEqual, "512 Bytes")
	test.That(t, FormatBytesI64(2048), test.ShouldEqual, "2.00 KB")
	test.That(t, FormatBytesI64(3*1024*1024+1), test.ShouldEqual, "3.00 MB")
}

func TestCaptureFileMetadataFirst(t *testing.T) {
	destination := filepath.Join(t.TempDir(), "late")
	w, err := CreateCaptureFile(destination)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.HasMetadata(), test.ShouldBeFalse)

	reading, err := FrameReading(sensor.DepthStream, depthFrame(2, 2, 1), time.Now(), time.Now())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.WriteNext(reading), test.ShouldBeError, errors.New("capture file metadata must be written first"))

	md, err := BuildCaptureMetadata("late", []sensor.StreamKind{sensor.DepthStream}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.WriteMetadata(md), test.ShouldBeNil)
	test.That(t, w.WriteMetadata(md), test.ShouldNotBeNil)
	test.That(t, w.WriteNext(reading), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, w.WriteMetadata(md), test.ShouldNotBeNil)

	cf, err := OpenCaptureFile(w.GetPath())
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, cf.Close(), test.ShouldBeNil)
	}()
	test.That(t, StreamsFromMetadata(cf.ReadMetadata()), test.ShouldResemble, []sensor.StreamKind{sensor.DepthStream})
	readings, err := SensorDataFromCaptureFile(cf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings, test.ShouldHaveLength, 1)
}
