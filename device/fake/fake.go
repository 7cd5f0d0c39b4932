/*
DESCRIPTION
  fake.go provides an implementation of the Camera interface for a
  synthetic camera that generates frames deterministically. It is used
  for demonstration without hardware and to reproduce frame loss,
  reordering, acquire failure and overrun scenarios in tests.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fake provides an implementation of the Camera interface for a
// synthetic camera generating deterministic frames.
package fake

import (
	"errors"
	"sync"
	"time"

	"github.com/ausocean/cam/capture/config"
	"github.com/ausocean/cam/device"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "fake: "

// Configuration defaults.
const (
	defaultWidth  = 64
	defaultHeight = 48
)

// Configuration field errors.
var (
	errBadWidth  = errors.New("width bad or unset, defaulting")
	errBadHeight = errors.New("height bad or unset, defaulting")
)

// step is one programmed acquire outcome; either a frame with a particular
// sequence number, or a failure.
type step struct {
	number uint32
	fail   bool
}

// Camera is an implementation of the Camera interface for a synthetic
// camera. Frames are generated on demand; each payload byte is the low byte
// of the frame's sequence number, so output data can be checked for order.
//
// A sequence of acquire outcomes may be programmed before streaming. Once
// the program is exhausted the camera either continues with consecutive
// sequence numbers (the default) or blocks until the stream is stopped.
type Camera struct {
	mu        sync.Mutex
	log       logging.Logger
	width     int
	height    int
	interval  time.Duration
	steps     []step
	idx       int
	acquires  int
	nextNum   uint32
	continues bool
	streaming bool
	stopped   chan struct{}
}

// New returns a new fake Camera which, unprogrammed, delivers frames
// numbered from 1 as fast as they are asked for.
func New(l logging.Logger) *Camera {
	return &Camera{log: l, nextNum: 1, continues: true}
}

// Name returns the name of the device.
func (c *Camera) Name() string { return "Fake" }

// Set will validate the relevant fields of the given Config struct and
// assign them to the Camera. If fields are not valid, an error is added to
// the MultiError and a default value is used. The FrameRate field, if set,
// paces frame delivery.
func (c *Camera) Set(cfg config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs device.MultiError
	if cfg.Width == 0 {
		errs = append(errs, errBadWidth)
		cfg.Width = defaultWidth
	}
	if cfg.Height == 0 {
		errs = append(errs, errBadHeight)
		cfg.Height = defaultHeight
	}
	c.width = int(cfg.Width)
	c.height = int(cfg.Height)
	if cfg.FrameRate != 0 {
		c.interval = time.Second / time.Duration(cfg.FrameRate)
	}
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// Program appends frames with the given sequence numbers to the camera's
// programmed outcomes. Gaps and out of order numbers are delivered verbatim.
func (c *Camera) Program(numbers ...uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range numbers {
		c.steps = append(c.steps, step{number: n})
	}
}

// ProgramFailure appends a failing acquire to the camera's programmed
// outcomes.
func (c *Camera) ProgramFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step{fail: true})
}

// Continuous controls behavior once the programmed outcomes are exhausted;
// if on, delivery continues with consecutive sequence numbers, otherwise
// acquires block until the stream is stopped.
func (c *Camera) Continuous(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.continues = on
}

// StartStream starts the camera streaming. Starting an already streaming
// camera is a no-op.
func (c *Camera) StartStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streaming {
		return nil
	}
	if c.width == 0 {
		c.width = defaultWidth
	}
	if c.height == 0 {
		c.height = defaultHeight
	}
	c.stopped = make(chan struct{})
	c.streaming = true
	c.log.Debug(pkg+"stream started", "width", c.width, "height", c.height)
	return nil
}

// StopStream stops the camera streaming and unblocks any pending
// AcquireFrame. Stopping an already stopped camera is a no-op.
func (c *Camera) StopStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.streaming {
		return nil
	}
	c.streaming = false
	close(c.stopped)
	c.log.Debug(pkg + "stream stopped")
	return nil
}

// IsStreaming is used to determine if the camera is streaming.
func (c *Camera) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// Acquires returns the number of times AcquireFrame has been called since
// construction, including calls that returned an error.
func (c *Camera) Acquires() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquires
}

// AcquireFrame blocks until the next programmed outcome is due, fills buf
// with the frame payload and returns its descriptor.
func (c *Camera) AcquireFrame(buf []byte) (device.FrameDesc, error) {
	c.mu.Lock()
	c.acquires++
	if !c.streaming {
		c.mu.Unlock()
		return device.FrameDesc{}, device.ErrNotStreaming
	}
	stopped := c.stopped
	interval := c.interval
	c.mu.Unlock()

	if interval != 0 {
		select {
		case <-time.After(interval):
		case <-stopped:
			return device.FrameDesc{}, device.ErrNotStreaming
		}
	}

	c.mu.Lock()
	if !c.streaming {
		c.mu.Unlock()
		return device.FrameDesc{}, device.ErrNotStreaming
	}

	var s step
	switch {
	case c.idx < len(c.steps):
		s = c.steps[c.idx]
		c.idx++
		if !s.fail {
			c.nextNum = s.number + 1
		}
	case c.continues:
		s = step{number: c.nextNum}
		c.nextNum++
	default:
		// Program exhausted; behave like a camera that has simply stopped
		// delivering, blocking until the stream is stopped.
		c.mu.Unlock()
		<-stopped
		return device.FrameDesc{}, device.ErrNotStreaming
	}

	size := c.width * c.height
	c.mu.Unlock()

	if s.fail {
		return device.FrameDesc{}, errors.New("programmed acquire failure")
	}
	if len(buf) < size {
		return device.FrameDesc{}, device.ErrBufferTooSmall
	}

	payload := buf[:size]
	for i := range payload {
		payload[i] = byte(s.number)
	}

	return device.FrameDesc{
		Number: s.number,
		Size:   size,
		Width:  c.width,
		Height: c.height,
	}, nil
}
