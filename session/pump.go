package session

import (
	"context"

	"go.viam.com/depthcapture/render"
	"go.viam.com/depthcapture/rimage"
)

// framePump is the self-resubmitting frame loop. Each iteration waits for one frame set, hands it
// to the renderer, then enqueues the next iteration behind whatever else was queued meanwhile.
// It is confined to the worker goroutine.
type framePump struct {
	s *Session

	// armed is cleared by a capture failure, after which the pump never resubmits itself.
	armed bool

	depthBuffer *rimage.FrameBuffer
	colorBuffer *rimage.FrameBuffer
	fps         *fpsWindow
}

func newFramePump(s *Session) *framePump {
	return &framePump{
		s:           s,
		depthBuffer: rimage.NewFrameBuffer(),
		colorBuffer: rimage.NewFrameBuffer(),
		fps:         newFpsWindow(s.opts.clock, s.opts.fpsWindow),
	}
}

// arm schedules the first iteration and starts the first fps window.
func (p *framePump) arm() {
	p.armed = true
	p.fps.reset()
	p.resubmit()
}

func (p *framePump) resubmit() {
	if err := p.s.worker.enqueue(p.iterate); err != nil {
		p.s.logger.Debugw("frame pump not resubmitted", "error", err)
	}
}

func (p *framePump) iterate(ctx context.Context) {
	s := p.s
	if !p.armed || s.stopping.Load() {
		return
	}
	res := &s.res

	if err := res.context.WaitForNextFrameSet(ctx); err != nil {
		if s.stopping.Load() {
			s.logger.CDebugw(ctx, "frame wait ended during stop", "error", err)
			return
		}
		p.armed = false
		s.state.advance(Erroring)
		s.reportError(ctx, FailedDuringCapture, err)
		return
	}
	if s.stopping.Load() {
		return
	}

	if res.color != nil {
		frame := res.color.Frame()
		if p.colorBuffer.Resize(frame.Width, frame.Height) {
			s.logger.CDebugw(ctx, "color resolution changed", "width", frame.Width, "height", frame.Height)
			s.stats.colorAllocations.Inc()
		}
		if colorRenderer, ok := s.renderer.(render.ColorRenderer); ok {
			colorRenderer.ShowColorFromDevice(frame.Color, frame.Width, frame.Height)
		}
	}

	frame := res.depth.Frame()
	if p.depthBuffer.Resize(frame.Width, frame.Height) {
		s.logger.CDebugw(ctx, "depth resolution changed", "width", frame.Width, "height", frame.Height)
		s.stats.depthAllocations.Inc()
	}
	s.renderer.ShowDepthFromDevice(frame.Depth, frame.MaxDepth, frame.Width, frame.Height)
	s.renderer.RequestRender()
	s.stats.frames.Inc()

	if sample, ok := p.fps.frame(); ok {
		s.stats.lastFps.Store(sample)
		s.dispatch.post(func() {
			s.feedback.SetFps(sample)
		})
	}

	if p.armed {
		p.resubmit()
	}
}
