/*
DESCRIPTION
  source.go provides the capture routine of the pipeline; it pulls
  frames from the camera's blocking acquire call into pool slots and
  hands them to the write routine via the frame queue.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package capture

import (
	"errors"
	"fmt"

	"github.com/ausocean/cam/device"
)

// capture is run as a routine to pull frames from the camera into pool slots
// and push them onto the frame queue. The first frame seeds the sequence
// tracker and is otherwise discarded; its slot is reused for the first
// streamed frame. The routine exits once the pipeline status leaves
// StatusRunning, pushing no further work.
func (p *Pipeline) capture() {
	defer p.wg.Done()

	// Grab a single frame, just so that we can seed the expected sequence
	// number. Failure this early means the camera is not delivering at all,
	// which is fatal.
	slot := p.pool.next()
	desc, err := p.cam.AcquireFrame(slot.Image)
	if err != nil {
		p.terminate(StatusError)
		p.err <- fmt.Errorf("could not get initial frame: %w", err)
		return
	}
	p.track.Observe(desc.Number)
	p.pool.retreat()
	p.cfg.Logger.Info("got initial frame", "number", desc.Number, "size", desc.Size)

	for p.state.get() == StatusRunning {
		// See if we are getting close to full. If so, stop with an overrun;
		// dropping frames silently would corrupt the sequence accounting.
		if p.q.len() >= p.pool.size()-int(p.cfg.OverrunMargin) {
			p.cfg.Logger.Error("the sink cannot keep up with the source, try slowing down the camera", "queued", p.q.len())
			p.terminate(StatusSinkOverrun)
			break
		}

		slot = p.pool.next()
		desc, err = p.cam.AcquireFrame(slot.Image) // Blocking call.
		if err != nil {
			// Reuse the slot next iteration.
			p.pool.retreat()
			if errors.Is(err, device.ErrNotStreaming) && p.state.get() != StatusRunning {
				// The stream was stopped under us during shutdown.
				break
			}
			p.cfg.Logger.Warning("could not get a frame", "error", err.Error())
			continue
		}
		slot.Desc = desc

		// Got a frame, see if we missed any.
		gap := p.track.Observe(desc.Number)
		switch {
		case gap > 0:
			p.cfg.Logger.Warning("frames presumed lost", "expected", desc.Number-uint32(gap), "got", desc.Number, "lost", gap)
		case gap < 0:
			p.cfg.Logger.Info("presumed lost frame arrived late", "number", desc.Number)
		}

		err = p.q.push(slot)
		if err != nil {
			// The overrun margin should make this unreachable; treat it the
			// same as tripping the margin.
			p.cfg.Logger.Error("frame queue full", "queued", p.q.len())
			p.terminate(StatusSinkOverrun)
			break
		}
	}

	p.cfg.Logger.Info("capture routine finished", "received", p.track.Received(), "lost", p.track.Lost())
}
