package fake

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/depthcapture/data"
	"go.viam.com/depthcapture/sensor"
)

// A frameSource produces the frame sets a capture context releases.
type frameSource interface {
	hasStream(kind sensor.StreamKind) bool
	// next returns frame set number index.
	next(index int) map[sensor.StreamKind]sensor.Frame
}

// syntheticSource renders a depth ramp that scrolls one column per frame, and a matching color
// gradient.
type syntheticSource struct {
	conf Config
}

func (s *syntheticSource) hasStream(kind sensor.StreamKind) bool {
	return kind == sensor.DepthStream || (kind == sensor.ColorStream && s.conf.Color)
}

func (s *syntheticSource) next(index int) map[sensor.StreamKind]sensor.Frame {
	width, height := s.conf.Width, s.conf.Height
	depth := make([]uint16, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			col := (x + index) % width
			depth[y*width+x] = uint16(1 + (col*(s.conf.MaxDepth-1))/width)
		}
	}
	frames := map[sensor.StreamKind]sensor.Frame{
		sensor.DepthStream: {Width: width, Height: height, MaxDepth: s.conf.MaxDepth, Depth: depth},
	}

	if s.conf.Color {
		rgb := make([]byte, width*height*3)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 3
				rgb[i] = byte(((x + index) % width) * 255 / width)
				rgb[i+1] = byte(y * 255 / height)
				rgb[i+2] = byte(index)
			}
		}
		frames[sensor.ColorStream] = sensor.Frame{Width: width, Height: height, Color: rgb}
	}
	return frames
}

// replaySource holds every frame set of a capture file in memory.
type replaySource struct {
	streams   map[sensor.StreamKind]bool
	frameSets []map[sensor.StreamKind]sensor.Frame
}

// newReplaySource reads all of file. Consecutive readings belong to the same frame set until a
// stream repeats.
func newReplaySource(file *data.CaptureFile) (*replaySource, error) {
	src := &replaySource{streams: map[sensor.StreamKind]bool{}}
	file.Reset()

	current := map[sensor.StreamKind]sensor.Frame{}
	for {
		reading, err := file.ReadNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "cannot read frame from %q", file.GetPath())
		}
		kind, frame, err := data.FrameFromReading(reading)
		if err != nil {
			return nil, err
		}
		if _, dup := current[kind]; dup {
			src.frameSets = append(src.frameSets, current)
			current = map[sensor.StreamKind]sensor.Frame{}
		}
		current[kind] = frame
		src.streams[kind] = true
	}
	if len(current) > 0 {
		src.frameSets = append(src.frameSets, current)
	}
	if len(src.frameSets) == 0 {
		return nil, errors.Errorf("recording %q holds no frames", file.GetPath())
	}
	return src, nil
}

func (s *replaySource) hasStream(kind sensor.StreamKind) bool {
	return s.streams[kind]
}

func (s *replaySource) next(index int) map[sensor.StreamKind]sensor.Frame {
	return s.frameSets[index%len(s.frameSets)]
}

func (s *replaySource) streamNames() string {
	var names []string
	for _, kind := range []sensor.StreamKind{sensor.DepthStream, sensor.ColorStream} {
		if s.streams[kind] {
			names = append(names, kind.String())
		}
	}
	return strings.Join(names, ",")
}
