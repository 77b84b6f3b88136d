// waiting.go: blocking put/get layered on the lock-free engine
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package shmq

import (
	"sync/atomic"
	"time"
)

// put implements spec.md §4.4's blocking put. timeout == nil waits
// indefinitely; *timeout == 0 is the non-blocking variant; *timeout < 0 is
// a configuration error. The fast path is a single tryPut — the slow path
// only engages once the queue is observed full.
//
// Cancellation is cooperative (spec.md §4.4/§5): a waiter only notices a
// timeout at its next wake, never mid-wait.
func (s *segment) put(payload []byte, timeout *time.Duration) error {
	if timeout != nil {
		if *timeout < 0 {
			return invalidArgf("timeout must not be negative")
		}
		if *timeout == 0 {
			return s.tryPut(payload)
		}
	}

	var deadline time.Time
	if timeout != nil {
		deadline = s.clock.CachedTime().Add(*timeout)
	}

	for {
		observed := atomic.LoadUint32(s.h.notFullSeqPtr())

		err := s.tryPut(payload)
		if err == nil {
			return nil
		}
		if err != ErrFull {
			return err
		}

		var wait time.Duration
		if timeout != nil {
			wait = deadline.Sub(s.clock.CachedTime())
			if wait <= 0 {
				return ErrFull
			}
		}
		s.waitNotFull(observed, wait)
	}
}

// get implements spec.md §4.4's blocking get, mirroring put.
func (s *segment) get(out []byte, timeout *time.Duration) error {
	if timeout != nil {
		if *timeout < 0 {
			return invalidArgf("timeout must not be negative")
		}
		if *timeout == 0 {
			return s.tryGet(out)
		}
	}

	var deadline time.Time
	if timeout != nil {
		deadline = s.clock.CachedTime().Add(*timeout)
	}

	for {
		observed := atomic.LoadUint32(s.h.notEmptySeqPtr())

		err := s.tryGet(out)
		if err == nil {
			return nil
		}
		if err != ErrEmpty {
			return err
		}

		var wait time.Duration
		if timeout != nil {
			wait = deadline.Sub(s.clock.CachedTime())
			if wait <= 0 {
				return ErrEmpty
			}
		}
		s.waitNotEmpty(observed, wait)
	}
}
