/*
DESCRIPTION
  tracker.go provides Tracker, an expected frame sequence number tracker
  used to account for frames presumed lost between the camera and the
  capture routine.

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

import "sync"

// Tracker accounts for lost frames using the device assigned frame sequence
// numbers. It is seeded by the first observed frame, after which any jump
// past the expected number is counted as that many lost frames. A frame
// arriving with a number lower than expected is one previously presumed lost
// being delivered late, so the lost count is corrected back down. A negative
// lost count indicates a frame was duplicated, something that should not
// happen.
//
// Tracking never corrects frame order; it is accounting only.
type Tracker struct {
	mu       sync.Mutex
	seeded   bool
	expected uint32
	received uint64
	lost     int64
}

// Observe records the sequence number of a received frame and returns the
// change made to the lost frame count: positive for a detected gap, negative
// for a late arrival, zero for the frame that was expected.
func (t *Tracker) Observe(n uint32) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.seeded {
		t.seeded = true
		t.expected = n
	}
	t.received++

	if n < t.expected {
		// This frame is older than expected; it was previously counted as
		// lost, so correct the count.
		t.lost--
		return -1
	}

	delta := int64(n - t.expected)
	t.lost += delta
	t.expected = n + 1
	return delta
}

// reset returns the tracker to its unseeded state for a new session.
func (t *Tracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seeded = false
	t.expected = 0
	t.received = 0
	t.lost = 0
}

// Expected returns the sequence number the next observed frame is expected
// to carry. It is only meaningful once a frame has been observed.
func (t *Tracker) Expected() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expected
}

// Received returns the total number of frames observed.
func (t *Tracker) Received() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.received
}

// Lost returns the number of frames currently presumed lost.
func (t *Tracker) Lost() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lost
}
