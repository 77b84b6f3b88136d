// wait_linux.go: futex-backed wake/wait primitives
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package shmq

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// futexWait blocks while *addr == expected, for at most timeout (0 means
// wait indefinitely). It always returns when woken, when the comparison
// fails (the value already changed — the caller must re-check state), or
// when the timeout elapses; EINTR and spurious wakes are the caller's
// problem, exactly like a condition variable's spurious-wake contract in
// spec.md §4.4.
//
// Grounded on the pack's raw-syscall usage for kernel primitives with no
// higher-level wrapper (ehrlich-b-go-ublk/internal/queue/runner.go,
// DanielLaubacher-gogrep/internal/uring/uring.go): golang.org/x/sys/unix
// exposes SYS_FUTEX as a syscall number but not a typed helper, so callers
// go through unix.Syscall6 directly.
func futexWait(addr *uint32, expected uint32, timeout time.Duration) {
	var tsPtr unsafe.Pointer
	if timeout > 0 {
		ts := unix.NsecToTimespec(timeout.Nanoseconds())
		tsPtr = unsafe.Pointer(&ts)
	}
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(unix.FUTEX_WAIT),
		uintptr(expected),
		uintptr(tsPtr),
		0, 0,
	)
}

// futexWake wakes every waiter blocked on addr.
func futexWake(addr *uint32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(unix.FUTEX_WAKE),
		uintptr(1<<31-1),
		0, 0, 0,
	)
}

// signalNotEmpty bumps the not-empty generation word and wakes any blocked
// consumers. Called after a successful tryPut.
func (s *segment) signalNotEmpty() {
	atomic.AddUint32(s.h.notEmptySeqPtr(), 1)
	futexWake(s.h.notEmptySeqPtr())
}

// signalNotFull bumps the not-full generation word and wakes any blocked
// producers. Called after a successful tryGet.
func (s *segment) signalNotFull() {
	atomic.AddUint32(s.h.notFullSeqPtr(), 1)
	futexWake(s.h.notFullSeqPtr())
}

// waitNotEmpty blocks until the not-empty generation word changes from
// observed, or timeout elapses (0 = indefinite).
func (s *segment) waitNotEmpty(observed uint32, timeout time.Duration) {
	futexWait(s.h.notEmptySeqPtr(), observed, timeout)
}

// waitNotFull blocks until the not-full generation word changes from
// observed, or timeout elapses (0 = indefinite).
func (s *segment) waitNotFull(observed uint32, timeout time.Duration) {
	futexWait(s.h.notFullSeqPtr(), observed, timeout)
}
