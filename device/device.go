/*
DESCRIPTION
  device.go provides Camera, an interface that describes a configurable
  frame camera whose stream can be started and stopped, and from which
  frames may be acquired one at a time into caller supplied buffers.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for frame camera
// devices whose streams can be started and stopped, and from which image
// frames can be acquired.
package device

import (
	"errors"
	"fmt"

	"github.com/ausocean/cam/capture/config"
)

// Errors returned from AcquireFrame implementations.
var (
	// ErrNotStreaming is returned by a pending or new AcquireFrame call when
	// the device stream is stopped. A blocked AcquireFrame must unblock and
	// return this once StopStream is called.
	ErrNotStreaming = errors.New("device is not streaming")

	// ErrBufferTooSmall is returned when the provided buffer cannot hold the
	// next frame's payload.
	ErrBufferTooSmall = errors.New("buffer too small for frame")
)

// FrameDesc describes a frame obtained through Camera.AcquireFrame. The
// sequence number is assigned by the device and increases monotonically with
// each captured frame; a gap in the numbers seen by a caller indicates frames
// were dropped before delivery.
type FrameDesc struct {
	Number uint32 // Device assigned frame sequence number.
	Size   int    // Length of the payload written to the buffer.
	Width  int    // Frame width in pixels.
	Height int    // Frame height in pixels.
}

// Camera describes a configurable frame camera from which image data can be
// obtained. Unlike a byte stream source, frames are pulled one at a time by
// blocking calls to AcquireFrame.
type Camera interface {
	// Name returns the name of the Camera.
	Name() string

	// Set allows for configuration of the Camera using a Config struct. All,
	// some or none of the fields of the Config struct may be used for
	// configuration by an implementation. An implementation should specify
	// what fields are considered.
	Set(c config.Config) error

	// StartStream starts the camera streaming; after which AcquireFrame may
	// be called to obtain frames. Starting an already started stream is a
	// no-op.
	StartStream() error

	// StopStream stops the camera streaming. Any AcquireFrame call blocked
	// waiting on a frame will unblock and return ErrNotStreaming. Stopping an
	// already stopped stream is a no-op.
	StopStream() error

	// AcquireFrame blocks until the next frame is available, writes its
	// payload into buf and returns the frame's descriptor. If buf cannot hold
	// the payload, ErrBufferTooSmall is returned and the frame is lost.
	AcquireFrame(buf []byte) (FrameDesc, error)

	// IsStreaming is used to determine if the camera stream is running.
	IsStreaming() bool
}

// MultiError implements the built in error interface. MultiError is used here
// to collect multi errors during validation of configuration parameters for
// Cameras.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}
