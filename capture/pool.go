/*
DESCRIPTION
  pool.go provides the frame slot pool; a fixed set of pre-allocated
  image buffers handed to the capture routine round-robin.

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

import "github.com/ausocean/cam/device"

// Slot is one pre-allocated frame buffer along with the descriptor of the
// frame it currently holds. A slot is filled by the capture routine and then
// read by the write routine; it must not be refilled until the write routine
// is done with it. The pool itself does not enforce this; the pipeline's
// overrun margin keeps the write cursor from lapping a slot still queued.
type Slot struct {
	Image []byte
	Desc  device.FrameDesc
}

// pool is a fixed number of slots indexed by a monotonically advancing
// cursor masked to the pool size, which must be a power of two. All slots
// are allocated at construction and never reallocated for the life of the
// pool. The pool performs no locking; only the capture routine touches the
// cursor.
type pool struct {
	slots []*Slot
	tail  uint32
	mask  uint32
}

// newPool returns a pool of n slots each with an image buffer of size bytes.
// n must be a power of two.
func newPool(n, size uint) *pool {
	p := &pool{
		slots: make([]*Slot, n),
		mask:  uint32(n - 1),
	}
	for i := range p.slots {
		p.slots[i] = &Slot{Image: make([]byte, size)}
	}
	return p
}

// next advances the cursor and returns the slot at the prior position.
func (p *pool) next() *Slot {
	s := p.slots[p.tail&p.mask]
	p.tail++
	return s
}

// retreat steps the cursor back one position so the last slot returned by
// next is handed out again. Used when a capture into the slot failed.
func (p *pool) retreat() {
	p.tail--
}

// size returns the number of slots in the pool.
func (p *pool) size() int {
	return len(p.slots)
}
