/*
DESCRIPTION
  queue.go provides the frame handoff queue used to pass filled slots
  from the capture routine to the write routine.

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

import "errors"

var errQueueFull = errors.New("frame queue is full")

// queue is a bounded FIFO of slot references. Entries leave in the order
// they arrive, preserving the camera's frame order end to end. The write
// routine blocks on an empty queue until the capture routine pushes a slot
// or the pipeline reaches a terminal status, at which point pop drains
// whatever is already queued and then reports done.
type queue struct {
	ch   chan *Slot
	done chan struct{}
}

// newQueue returns a queue of capacity n. done is closed by the pipeline on
// its terminal status transition and wakes any blocked pop.
func newQueue(n uint, done chan struct{}) *queue {
	return &queue{
		ch:   make(chan *Slot, n),
		done: done,
	}
}

// push appends s to the queue without blocking. The pipeline's overrun check
// stops capture before the queue can fill, so errQueueFull is not expected
// during normal operation.
func (q *queue) push(s *Slot) error {
	select {
	case q.ch <- s:
		return nil
	default:
		return errQueueFull
	}
}

// pop removes and returns the oldest queued slot, blocking while the queue
// is empty and the pipeline is still running. Once the pipeline is
// terminating, remaining entries are returned without blocking and ok is
// false when the queue is exhausted.
func (q *queue) pop() (s *Slot, ok bool) {
	select {
	case s = <-q.ch:
		return s, true
	case <-q.done:
		select {
		case s = <-q.ch:
			return s, true
		default:
			return nil, false
		}
	}
}

// len returns the number of slots currently queued.
func (q *queue) len() int {
	return len(q.ch)
}
