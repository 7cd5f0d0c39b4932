/*
DESCRIPTION
  status.go provides the Status type describing the runtime state of a
  capture pipeline, and an atomic holder used to share it between the
  capture and write routines.

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

import "sync/atomic"

// Status describes the runtime status of a capture pipeline. A pipeline is
// created StatusRunning and transitions exactly once to one of the terminal
// statuses; it never returns to StatusRunning.
type Status int32

const (
	// StatusRunning indicates the capture and write routines are both running
	// and all is good.
	StatusRunning Status = iota

	// StatusUserStopped indicates the user has requested the pipeline stop.
	StatusUserStopped

	// StatusSinkOverrun indicates the camera is producing frames faster than
	// they can be written out. Either slow down the camera, or speed up the
	// sink.
	StatusSinkOverrun

	// StatusError indicates some sort of error was detected, requiring a
	// shutdown.
	StatusError
)

// String returns a human readable representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusUserStopped:
		return "user stopped"
	case StatusSinkOverrun:
		return "sink overrun"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// state holds a Status shared between routines. Both loops read it every
// iteration and either loop (or the controller) may perform the single
// terminal transition, so access is atomic.
type state struct {
	v int32
}

// get returns the current status.
func (s *state) get() Status {
	return Status(atomic.LoadInt32(&s.v))
}

// reset returns the status to StatusRunning for a new session. Atomic so a
// concurrent observer reads either the old terminal status or StatusRunning.
func (s *state) reset() {
	atomic.StoreInt32(&s.v, int32(StatusRunning))
}

// terminate attempts the transition from StatusRunning to the given terminal
// status, reporting whether this call performed it. Only the first terminal
// transition wins; later calls leave the status unchanged.
func (s *state) terminate(to Status) bool {
	return atomic.CompareAndSwapInt32(&s.v, int32(StatusRunning), int32(to))
}
