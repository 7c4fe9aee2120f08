package inject

import (
	"go.viam.com/depthcapture/render"
)

// Renderer is an injected renderer.
type Renderer struct {
	render.Renderer
	ShowDepthFromDeviceFunc func(samples []uint16, maxDepth, width, height int)
	RequestRenderFunc       func()
}

// ShowDepthFromDevice calls the injected ShowDepthFromDevice or the real version.
func (r *Renderer) ShowDepthFromDevice(samples []uint16, maxDepth, width, height int) {
	if r.ShowDepthFromDeviceFunc == nil {
		r.Renderer.ShowDepthFromDevice(samples, maxDepth, width, height)
		return
	}
	r.ShowDepthFromDeviceFunc(samples, maxDepth, width, height)
}

// RequestRender calls the injected RequestRender or the real version.
func (r *Renderer) RequestRender() {
	if r.RequestRenderFunc == nil {
		r.Renderer.RequestRender()
		return
	}
	r.RequestRenderFunc()
}

// ColorRenderer is an injected renderer that also accepts color frames.
type ColorRenderer struct {
	Renderer
	ShowColorFromDeviceFunc func(rgb []byte, width, height int)
}

// ShowColorFromDevice calls the injected ShowColorFromDevice.
func (r *ColorRenderer) ShowColorFromDevice(rgb []byte, width, height int) {
	if r.ShowColorFromDeviceFunc == nil {
		return
	}
	r.ShowColorFromDeviceFunc(rgb, width, height)
}
