// Package shmq is a shared-memory bounded FIFO queue for same-host
// inter-process communication of fixed-size binary payloads.
//
// Two or more processes open a queue by name. One creates it with Create,
// fixing the element size and capacity; every other process attaches with
// Open, reading the same two values back out of the segment's header. The
// queue is backed entirely by a POSIX shared memory segment under
// /dev/shm — no kernel message passing, no socket round-trips — so the
// hot path is a lock-free, atomic-sequenced memcpy.
//
// # Quick Start
//
// Producer process:
//
//	q, err := shmq.Create("orders", 64, 1024) // 64-byte elements, 1024 slots
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer q.Close()
//
//	if err := q.Put(payload); err != nil {
//		log.Fatal(err)
//	}
//
// Consumer process, started independently:
//
//	q, err := shmq.Open("orders")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer q.Close()
//
//	item, err := q.Get()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Blocking, Timeouts, and Non-Blocking Variants
//
//	q.Put(payload)                        // blocks indefinitely while full
//	q.PutTimeout(payload, 2*time.Second)   // blocks up to 2s, then ErrFull
//	q.PutNowait(payload)                   // never blocks, ErrFull if full
//
//	item, err := q.Get()                        // blocks indefinitely while empty
//	item, err := q.GetTimeout(2 * time.Second)  // blocks up to 2s, then ErrEmpty
//	item, err := q.GetNowait()                  // never blocks, ErrEmpty if empty
//
// # Lifecycle
//
// Close releases one handle's local mapping; it never removes the queue
// itself, so other handles stay valid. Unlink removes the queue's name from
// the host once every process is done with it:
//
//	q.Close()
//	shmq.Unlink("orders") // or q.Unlink() before Close
//
// # Named-Queue Registry
//
// When the creating and opening processes are deployed independently, a
// Directory lets them agree on element size and capacity through a shared
// JSON file instead of hardcoding the same two integers twice:
//
//	dir, err := shmq.OpenDirectory("/etc/myapp/queues.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dir.Close()
//
//	q, err := dir.Create("orders")
//
// # Error Handling
//
// Every failure mode is a wrapped sentinel, checkable with errors.Is:
//
//	err := q.PutNowait(payload)
//	if errors.Is(err, shmq.ErrFull) {
//		// back off and retry
//	}
//
// See ErrFull, ErrEmpty, ErrInvalidArgument, ErrNegativeSize,
// ErrAlreadyExists, ErrNotFound, ErrVersionMismatch, and ErrClosed.
//
// # Non-Goals
//
// No persistence across reboots, no network transport, no variable-length
// messages, no priority/ack/replay semantics, and no automatic resizing.
// Capacity and element size are fixed at creation.
package shmq
