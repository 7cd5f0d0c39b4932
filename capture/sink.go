/*
DESCRIPTION
  sink.go provides the write routine of the pipeline; it drains the
  frame queue and persists frame payloads to a bounded ring file.

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
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/ioext"
)

// persist is run as a routine to drain the frame queue and write frame
// payloads to the output file. To bound storage growth the file's write
// position is rewound to the start after MaxFileFrames frames and frames are
// overwritten from the beginning, so the file never grows beyond
// MaxFileFrames frames worth of data.
//
// On a terminal status the routine writes out whatever is already queued and
// then closes the file, leaving only complete frame records on disk. Frames
// never queued are dropped.
func (p *Pipeline) persist() {
	defer p.wg.Done()

	f, err := os.Create(p.cfg.OutputPath)
	if err != nil {
		p.terminate(StatusError)
		p.err <- fmt.Errorf("could not create output file %s: %w", p.cfg.OutputPath, err)
		return
	}
	p.cfg.Logger.Info("output file open", "path", p.cfg.OutputPath)

	// Frames are probed, if a probe is set, on their way to the file.
	var w io.Writer = f
	if p.probe != nil {
		w = ioext.MultiWriteCloser(f, p.probe)
	}

	var framesInFile uint
	for {
		slot, ok := p.q.pop()
		if !ok {
			break
		}

		payload := slot.Image[:slot.Desc.Size]
		n, err := w.Write(payload)
		if err == nil && n != len(payload) {
			err = io.ErrShortWrite
		}
		if err != nil {
			p.terminate(StatusError)
			p.err <- fmt.Errorf("could not write frame %d to output file: %w", slot.Desc.Number, err)
			break
		}
		p.bitrate.Report(n)

		// Don't let the data file become too large. If we have hit our
		// limit, start over.
		framesInFile++
		if framesInFile >= p.cfg.MaxFileFrames {
			_, err = f.Seek(0, io.SeekStart)
			if err != nil {
				p.terminate(StatusError)
				p.err <- fmt.Errorf("could not rewind output file: %w", err)
				break
			}
			framesInFile = 0
		}
	}

	err = f.Close()
	if err != nil {
		p.cfg.Logger.Error("could not close output file", "error", err.Error())
	} else {
		p.cfg.Logger.Info("output file closed")
	}
}
