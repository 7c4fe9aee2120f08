// Package render defines where a capture session hands off frames for display, and provides a
// renderer that keeps the latest frame around for snapshots.
package render

// A Renderer consumes raw depth frames. It is only ever called from a capture session's worker
// goroutine, and must not retain samples past the call: the buffer belongs to the sensor stream.
type Renderer interface {
	// ShowDepthFromDevice hands off one depth frame. maxDepth is the largest value a sample can
	// take on this device.
	ShowDepthFromDevice(samples []uint16, maxDepth, width, height int)

	// RequestRender hints that new frame data is ready to be drawn.
	RequestRender()
}

// A ColorRenderer is a Renderer that can also display color frames. Sessions forward color
// frames only to renderers implementing it.
type ColorRenderer interface {
	Renderer

	// ShowColorFromDevice hands off one packed 8-bit RGB frame.
	ShowColorFromDevice(rgb []byte, width, height int)
}
