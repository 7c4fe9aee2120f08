package data

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	v1 "go.viam.com/api/app/datasync/v1"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.viam.com/depthcapture/sensor"
)

const (
	// ComponentTypeCamera is the component type recorded in every capture file's metadata.
	ComponentTypeCamera = "camera"
	// MethodFrameSet is the method name recorded in every capture file's metadata.
	MethodFrameSet = "FrameSet"

	frameFileExt = ".frames"

	// kind, width, height, max depth.
	frameHeaderSize = 1 + 4 + 4 + 4
)

// BuildCaptureMetadata builds the metadata for a recording of the given streams. Each stream is
// listed as a tag so playback knows which streams to expose.
func BuildCaptureMetadata(name string, streams []sensor.StreamKind, params map[string]string) (*v1.DataCaptureMetadata, error) {
	methodParams := make(map[string]*anypb.Any, len(params))
	for key, value := range params {
		anyValue, err := anypb.New(wrapperspb.String(value))
		if err != nil {
			return nil, errors.Wrapf(err, "cannot convert method parameter %q", key)
		}
		methodParams[key] = anyValue
	}

	tags := make([]string, 0, len(streams))
	for _, s := range streams {
		tags = append(tags, s.String())
	}

	return &v1.DataCaptureMetadata{
		ComponentType:    ComponentTypeCamera,
		ComponentName:    name,
		MethodName:       MethodFrameSet,
		Type:             v1.DataType_DATA_TYPE_BINARY_SENSOR,
		MethodParameters: methodParams,
		FileExtension:    frameFileExt,
		Tags:             tags,
	}, nil
}

// StreamsFromMetadata returns the streams a capture file's metadata says were recorded.
func StreamsFromMetadata(md *v1.DataCaptureMetadata) []sensor.StreamKind {
	var streams []sensor.StreamKind
	for _, tag := range md.GetTags() {
		switch tag {
		case sensor.DepthStream.String():
			streams = append(streams, sensor.DepthStream)
		case sensor.ColorStream.String():
			streams = append(streams, sensor.ColorStream)
		}
	}
	return streams
}

// EncodeFrame serializes a frame of the given kind. Depth samples are stored little endian.
func EncodeFrame(kind sensor.StreamKind, frame sensor.Frame) ([]byte, error) {
	var body int
	switch kind {
	case sensor.DepthStream:
		if len(frame.Depth) < frame.Width*frame.Height {
			return nil, errors.Errorf("depth frame has %d samples, expected %d", len(frame.Depth), frame.Width*frame.Height)
		}
		body = frame.Width * frame.Height * 2
	case sensor.ColorStream:
		if len(frame.Color) < frame.Width*frame.Height*3 {
			return nil, errors.Errorf("color frame has %d bytes, expected %d", len(frame.Color), frame.Width*frame.Height*3)
		}
		body = frame.Width * frame.Height * 3
	default:
		return nil, errors.Errorf("cannot encode frame of kind %v", kind)
	}

	out := make([]byte, frameHeaderSize+body)
	out[0] = byte(kind)
	binary.LittleEndian.PutUint32(out[1:], uint32(frame.Width))
	binary.LittleEndian.PutUint32(out[5:], uint32(frame.Height))
	binary.LittleEndian.PutUint32(out[9:], uint32(frame.MaxDepth))

	payload := out[frameHeaderSize:]
	if kind == sensor.DepthStream {
		for i := 0; i < frame.Width*frame.Height; i++ {
			binary.LittleEndian.PutUint16(payload[i*2:], frame.Depth[i])
		}
	} else {
		copy(payload, frame.Color[:body])
	}
	return out, nil
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(encoded []byte) (sensor.StreamKind, sensor.Frame, error) {
	if len(encoded) < frameHeaderSize {
		return 0, sensor.Frame{}, errors.Errorf("frame too short: %d bytes", len(encoded))
	}
	kind := sensor.StreamKind(encoded[0])
	frame := sensor.Frame{
		Width:    int(binary.LittleEndian.Uint32(encoded[1:])),
		Height:   int(binary.LittleEndian.Uint32(encoded[5:])),
		MaxDepth: int(binary.LittleEndian.Uint32(encoded[9:])),
	}
	payload := encoded[frameHeaderSize:]
	pixels := frame.Width * frame.Height

	switch kind {
	case sensor.DepthStream:
		if len(payload) != pixels*2 {
			return 0, sensor.Frame{}, errors.Errorf("depth payload is %d bytes, expected %d", len(payload), pixels*2)
		}
		frame.Depth = make([]uint16, pixels)
		for i := range frame.Depth {
			frame.Depth[i] = binary.LittleEndian.Uint16(payload[i*2:])
		}
	case sensor.ColorStream:
		if len(payload) != pixels*3 {
			return 0, sensor.Frame{}, errors.Errorf("color payload is %d bytes, expected %d", len(payload), pixels*3)
		}
		frame.Color = append([]byte(nil), payload...)
	default:
		return 0, sensor.Frame{}, errors.Errorf("unknown frame kind %d", encoded[0])
	}
	return kind, frame, nil
}

// FrameReading wraps an encoded frame in a SensorData reading.
func FrameReading(kind sensor.StreamKind, frame sensor.Frame, timeRequested, timeReceived time.Time) (*v1.SensorData, error) {
	encoded, err := EncodeFrame(kind, frame)
	if err != nil {
		return nil, err
	}
	return &v1.SensorData{
		Metadata: &v1.SensorMetadata{
			TimeRequested: timestamppb.New(timeRequested.UTC()),
			TimeReceived:  timestamppb.New(timeReceived.UTC()),
		},
		Data: &v1.SensorData_Binary{Binary: encoded},
	}, nil
}

// FrameFromReading decodes the frame held by a SensorData reading.
func FrameFromReading(reading *v1.SensorData) (sensor.StreamKind, sensor.Frame, error) {
	binaryData := reading.GetBinary()
	if binaryData == nil {
		return 0, sensor.Frame{}, errors.New("reading does not hold binary frame data")
	}
	return DecodeFrame(binaryData)
}
