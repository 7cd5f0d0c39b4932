/*
DESCRIPTION
  file.go provides an implementation of the Camera interface for raw
  frame data stored in a file. Frames are replayed at the configured
  frame rate with synthesized ascending sequence numbers, which is
  useful for exercising the capture pipeline without camera hardware.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of the Camera interface for files
// of raw frame data.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ausocean/cam/capture/config"
	"github.com/ausocean/cam/device"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "file: "

// Configuration field errors.
var (
	errBadInputPath = errors.New("input path bad or unset")
	errBadWidth     = errors.New("width bad or unset")
	errBadHeight    = errors.New("height bad or unset")
)

// Frames is an implementation of the Camera interface for a file containing
// raw frame data. The file is treated as a sequence of fixed size frames of
// Width*Height bytes (one byte per pixel); reads are paced by the configured
// frame rate.
type Frames struct {
	f         *os.File
	path      string
	width     int
	height    int
	interval  time.Duration
	loop      bool
	next      uint32
	streaming bool
	stopped   chan struct{}
	log       logging.Logger
	set       bool
	mu        sync.Mutex
}

// New returns a new Frames device.
func New(l logging.Logger) *Frames { return &Frames{log: l} }

// Name returns the name of the device.
func (d *Frames) Name() string { return "File" }

// Set validates and assigns the InputPath, Width, Height, FrameRate and Loop
// fields of the passed config. InputPath, Width and Height are required.
func (d *Frames) Set(c config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs device.MultiError
	if c.InputPath == "" {
		errs = append(errs, errBadInputPath)
	}
	if c.Width == 0 {
		errs = append(errs, errBadWidth)
	}
	if c.Height == 0 {
		errs = append(errs, errBadHeight)
	}
	d.path = c.InputPath
	d.width = int(c.Width)
	d.height = int(c.Height)
	d.loop = c.Loop
	if c.FrameRate != 0 {
		d.interval = time.Second / time.Duration(c.FrameRate)
	}
	d.set = true
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// StartStream opens the file at the location of the InputPath config field.
// Starting an already streaming device is a no-op.
func (d *Frames) StartStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streaming {
		return nil
	}
	if !d.set {
		return errors.New("Frames has not been set with config")
	}
	if d.width == 0 || d.height == 0 {
		return errors.New("frame dimensions not set")
	}
	var err error
	d.f, err = os.Open(d.path)
	if err != nil {
		return fmt.Errorf("could not open frame file: %w", err)
	}
	d.next = 1
	d.stopped = make(chan struct{})
	d.streaming = true
	d.log.Debug(pkg+"stream started", "path", d.path)
	return nil
}

// StopStream closes the file such that any further or pending acquires fail.
// Stopping an already stopped device is a no-op.
func (d *Frames) StopStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.streaming {
		return nil
	}
	d.streaming = false
	close(d.stopped)
	err := d.f.Close()
	if err != nil {
		return fmt.Errorf("could not close frame file: %w", err)
	}
	d.log.Debug(pkg + "stream stopped")
	return nil
}

// IsStreaming is used to determine if the device is streaming.
func (d *Frames) IsStreaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streaming
}

// AcquireFrame reads the next frame from the file into buf. On reaching the
// end of the file, replay restarts from the beginning if looping is
// configured; otherwise the call blocks until the stream is stopped, like a
// camera that has stopped delivering.
func (d *Frames) AcquireFrame(buf []byte) (device.FrameDesc, error) {
	d.mu.Lock()
	if !d.streaming {
		d.mu.Unlock()
		return device.FrameDesc{}, device.ErrNotStreaming
	}
	stopped := d.stopped
	interval := d.interval
	size := d.width * d.height
	d.mu.Unlock()

	if len(buf) < size {
		return device.FrameDesc{}, device.ErrBufferTooSmall
	}

	if interval != 0 {
		select {
		case <-time.After(interval):
		case <-stopped:
			return device.FrameDesc{}, device.ErrNotStreaming
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.streaming {
		return device.FrameDesc{}, device.ErrNotStreaming
	}

	_, err := io.ReadFull(d.f, buf[:size])
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		if !d.loop {
			// Out of frames; block until the stream is stopped.
			d.mu.Unlock()
			<-stopped
			d.mu.Lock()
			return device.FrameDesc{}, device.ErrNotStreaming
		}
		d.log.Info(pkg + "looping input file")
		_, err = d.f.Seek(0, io.SeekStart)
		if err != nil {
			return device.FrameDesc{}, fmt.Errorf("could not seek to start of file for input loop: %w", err)
		}
		_, err = io.ReadFull(d.f, buf[:size])
		if err != nil {
			return device.FrameDesc{}, fmt.Errorf("could not read after start seek: %w", err)
		}
	default:
		return device.FrameDesc{}, fmt.Errorf("could not read frame file: %w", err)
	}

	desc := device.FrameDesc{
		Number: d.next,
		Size:   size,
		Width:  d.width,
		Height: d.height,
	}
	d.next++
	return desc, nil
}
