// queue.go: per-process handle API
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package shmq

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Queue is a per-process handle bound to one mapping of a named shared
// memory segment (spec.md §4.5). Multiple handles — in the same process or
// across processes — may be bound to the same segment; they coordinate
// purely through the shared header and slot array, never through Queue's
// own fields.
//
// A Queue is safe for concurrent use by multiple goroutines: the engine
// underneath is lock-free and the blocking layer only ever reads its own
// local snapshot before retrying.
type Queue struct {
	seg    *segment
	logger *slog.Logger

	closed atomic.Bool
}

// Create creates a brand-new named queue. elementSize is the fixed payload
// size in bytes; capacity is the slot count and must be a power of two, at
// least 2. Fails with ErrAlreadyExists if name is already taken.
func Create(name string, elementSize, capacity int, opts ...Option) (*Queue, error) {
	seg, err := createSegment(name, int64(elementSize), int64(capacity))
	if err != nil {
		return nil, err
	}
	return newQueue(seg, opts...), nil
}

// Open attaches to an existing named queue. elementSize and capacity are
// read from the segment's header. Fails with ErrNotFound if name does not
// exist.
func Open(name string, opts ...Option) (*Queue, error) {
	seg, err := openSegment(name)
	if err != nil {
		return nil, err
	}
	return newQueue(seg, opts...), nil
}

// Option configures a Queue at construction time.
type Option func(*Queue)

// WithLogger attaches a logger used to record a failed unmap/close on
// Close; Close also returns that error. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

func newQueue(seg *segment, opts ...Option) *Queue {
	q := &Queue{seg: seg, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) checkOpen() error {
	if q.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Put enqueues item, blocking indefinitely while the queue is full. Unlike
// PutTimeout, there is no sentinel duration involved: Put calls straight
// into the engine with a nil deadline (spec.md §4.4/§9's timeout=None), so
// it can never be confused with a caller-supplied negative timeout.
func (q *Queue) Put(item []byte) error {
	if err := q.checkOpen(); err != nil {
		return err
	}
	return q.seg.put(item, nil)
}

// PutTimeout enqueues item, blocking until space is available or timeout
// elapses. A zero timeout is exactly PutNowait; a negative timeout is
// ErrInvalidArgument (spec.md §4.4/§9) — use Put for indefinite blocking.
func (q *Queue) PutTimeout(item []byte, timeout time.Duration) error {
	if err := q.checkOpen(); err != nil {
		return err
	}
	return q.seg.put(item, &timeout)
}

// PutNowait enqueues item without blocking, returning ErrFull if the queue
// has no free slot.
func (q *Queue) PutNowait(item []byte) error {
	if err := q.checkOpen(); err != nil {
		return err
	}
	return q.seg.tryPut(item)
}

// Get dequeues the oldest element, blocking indefinitely while the queue is
// empty. As with Put, this calls straight into the engine with a nil
// deadline rather than laundering "indefinite" through a sentinel duration.
func (q *Queue) Get() ([]byte, error) {
	if err := q.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]byte, q.seg.elementSize)
	if err := q.seg.get(out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTimeout dequeues the oldest element, blocking until one is available
// or timeout elapses. A zero timeout is exactly GetNowait; a negative
// timeout is ErrInvalidArgument — use Get for indefinite blocking.
func (q *Queue) GetTimeout(timeout time.Duration) ([]byte, error) {
	if err := q.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]byte, q.seg.elementSize)
	if err := q.seg.get(out, &timeout); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNowait dequeues the oldest element without blocking, returning
// ErrEmpty if the queue has nothing ready.
func (q *Queue) GetNowait() ([]byte, error) {
	if err := q.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]byte, q.seg.elementSize)
	if err := q.seg.tryGet(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Len returns a best-effort snapshot of the current queue length.
func (q *Queue) Len() int { return int(q.seg.len()) }

// Empty reports whether the queue currently holds no elements. Per
// spec.md §4.5, a Queue's "truthiness" in the originating language maps to
// !Empty() in Go: there is no operator overload, so callers branch on this
// method directly.
func (q *Queue) Empty() bool { return q.seg.empty() }

// Full reports whether the queue is currently at capacity.
func (q *Queue) Full() bool { return q.seg.full() }

// Cap returns the queue's fixed capacity (spec.md's maxsize).
func (q *Queue) Cap() int { return int(q.seg.capacity) }

// ElementSize returns the configured fixed payload size in bytes.
func (q *Queue) ElementSize() int { return int(q.seg.elementSize) }

// Name returns the segment name this handle was created or opened with.
func (q *Queue) Name() string { return q.seg.name }

// Close unmaps this handle's local view. It never unlinks the segment
// (spec.md §9: "close never unlinks; unlink is explicit"). Subsequent
// operations on q fail with ErrClosed.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := q.seg.close()
	if err != nil {
		q.logger.Error("shmq: close failed", "name", q.seg.name, "error", err)
	}
	return err
}

// Unlink removes this queue's name from the host. Existing handles,
// including this one, remain valid until they Close.
func (q *Queue) Unlink() error {
	return unlinkSegment(q.seg.name)
}

// Unlink removes a named queue without requiring an open handle.
func Unlink(name string) error {
	return unlinkSegment(name)
}

func (q *Queue) String() string {
	return fmt.Sprintf("shmq.Queue{name:%q elementSize:%d cap:%d len:%d}",
		q.seg.name, q.seg.elementSize, q.seg.capacity, q.Len())
}
