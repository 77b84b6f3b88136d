// errors.go: error taxonomy for the shared-memory queue
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package shmq

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Sentinel errors distinguish capacity, validation, resource, and integrity
// failures so callers can branch on category with errors.Is rather than on
// message text. Messages still match the literal contracts callers may
// pattern-match against.
var (
	// ErrFull is returned by a non-blocking Put, or a blocking Put whose
	// timeout expired, when the queue has no free slot.
	ErrFull = goerrors.New("queue is full")

	// ErrEmpty is returned by a non-blocking Get, or a blocking Get whose
	// timeout expired, when the queue has no ready element.
	ErrEmpty = goerrors.New("queue is empty")

	// ErrInvalidArgument covers malformed constructor arguments and payload
	// length mismatches.
	ErrInvalidArgument = goerrors.New("invalid argument")

	// ErrNegativeSize is returned when ElementSize or Capacity is negative.
	ErrNegativeSize = goerrors.New("size must not be negative")

	// ErrAlreadyExists is returned by Create when a segment with the given
	// name already exists.
	ErrAlreadyExists = goerrors.New("specific ID already exists")

	// ErrNotFound is returned by Open when no segment with the given name
	// exists.
	ErrNotFound = goerrors.New("Failed to open shared memory")

	// ErrVersionMismatch is returned by Open when the segment's magic or
	// layout version does not match this build's expectations. It is
	// fatal in the sense that Open never returns a Queue in this case —
	// there is no handle to poison, because construction itself failed.
	ErrVersionMismatch = goerrors.New("checksum or version mismatch")

	// ErrClosed is returned by any operation on a Queue after Close.
	ErrClosed = goerrors.New("queue is closed")
)

// invalidArgf wraps ErrInvalidArgument with a formatted detail message,
// preserving errors.Is(err, ErrInvalidArgument).
func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

// notFoundf wraps ErrNotFound with a formatted detail message.
func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// alreadyExistsf wraps ErrAlreadyExists with a formatted detail message.
func alreadyExistsf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrAlreadyExists)
}

// versionMismatchf wraps ErrVersionMismatch with a formatted detail message.
func versionMismatchf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrVersionMismatch)
}
