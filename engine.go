// engine.go: lock-free enqueue/dequeue engine
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package shmq

import "sync/atomic"

// tryPut is the non-blocking producer side of the ring. It is lock-free: a
// CAS loop retries only while a concurrent producer is racing for the same
// cursor value, and terminates immediately with ErrFull when the queue has
// no free slot. Grounded on the Disruptor claim-strategy CAS loop (pack:
// rishavpaul-system-design/.../disruptor, five-vee-go-disruptor) and on the
// teacher's own MPSC ring in buffer.go ("reserve the slot first with CAS").
func (s *segment) tryPut(payload []byte) error {
	if uint32(len(payload)) != s.elementSize {
		return invalidArgf("payload length %d does not match element size %d", len(payload), s.elementSize)
	}

	h := s.h
	producerPtr := h.producerCursorPtr()

	for {
		p := atomic.LoadUint64(producerPtr)
		i := uint32(p) & s.mask
		seqPtr := h.slotSequencePtr(i, s.stride)
		seq := atomic.LoadUint64(seqPtr)

		diff := int64(seq) - int64(p)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(producerPtr, p, p+1) {
				copy(h.slotData(i, s.stride, s.elementSize), payload)
				atomic.StoreUint64(seqPtr, p+1)
				s.signalNotEmpty()
				return nil
			}
			// CAS lost the race; reload and retry.
		case diff < 0:
			return ErrFull
		default:
			// Another producer has already advanced past p; retry.
		}
	}
}

// tryGet is the non-blocking consumer side of the ring, the mirror image of
// tryPut.
func (s *segment) tryGet(out []byte) error {
	if uint32(len(out)) != s.elementSize {
		return invalidArgf("output buffer length %d does not match element size %d", len(out), s.elementSize)
	}

	h := s.h
	consumerPtr := h.consumerCursorPtr()

	for {
		c := atomic.LoadUint64(consumerPtr)
		i := uint32(c) & s.mask
		seqPtr := h.slotSequencePtr(i, s.stride)
		seq := atomic.LoadUint64(seqPtr)

		diff := int64(seq) - int64(c+1)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(consumerPtr, c, c+1) {
				copy(out, h.slotData(i, s.stride, s.elementSize))
				atomic.StoreUint64(seqPtr, c+uint64(s.capacity))
				s.signalNotFull()
				return nil
			}
			// CAS lost the race; reload and retry.
		case diff < 0:
			return ErrEmpty
		default:
			// Another consumer has already advanced past c; retry.
		}
	}
}

// len returns a best-effort snapshot: spec.md §4.3 accepts that the two
// loads are not atomic as a pair.
func (s *segment) len() uint32 {
	h := s.h
	p := atomic.LoadUint64(h.producerCursorPtr())
	c := atomic.LoadUint64(h.consumerCursorPtr())
	d := p - c
	if d > uint64(s.capacity) {
		// Benign race between the two loads; clamp to a valid snapshot
		// rather than surface an impossible negative-as-unsigned value.
		return s.capacity
	}
	return uint32(d)
}

func (s *segment) empty() bool { return s.len() == 0 }
func (s *segment) full() bool  { return s.len() == s.capacity }
