// layout.go: shared memory header and slot layout
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package shmq

import (
	"encoding/binary"
	"unsafe"
)

// Byte layout of a segment:
//
//	offset  size  field
//	0       8     magic
//	8       4     version
//	12      4     elementSize
//	16      4     capacity
//	20      4     mask
//	24      4     notEmptySeq (futex word, see waiting.go)
//	28      4     notFullSeq  (futex word, see waiting.go)
//	32      32    reserved, pads control block to 64 bytes
//	64      8     producerCursor (own cache line)
//	72      56    pad
//	128     8     consumerCursor (own cache line)
//	136     56    pad
//	192     ...   slot[0..capacity-1], each slotStride bytes
//
// The layout is read/written exclusively through the accessors below, never
// through Go struct aliasing, so it is defined independent of Go's struct
// layout rules and safe to share across processes (and, in principle,
// across Go compiler versions).
const (
	offMagic          = 0
	offVersion        = 8
	offElementSize    = 12
	offCapacity       = 16
	offMask           = 20
	offNotEmptySeq    = 24
	offNotFullSeq     = 28
	offProducerCursor = 64
	offConsumerCursor = 128

	// HeaderBytes is the fixed size of the control block preceding the slot
	// array. Three cache lines: control fields, producer cursor, consumer
	// cursor.
	HeaderBytes = 192

	cacheLineBytes = 64

	// CurrentVersion is the on-disk/on-segment layout version this build
	// writes and expects to read.
	CurrentVersion uint32 = 1
)

// headerMagic identifies a shmq segment. Computed from an ASCII tag rather
// than a hand-picked hex literal so the byte order is unambiguous.
var headerMagic = binary.LittleEndian.Uint64([]byte("SHMQv1\x00\x00"))

// roundUp64 rounds n up to the next multiple of the cache line size.
func roundUp64(n uint32) uint32 {
	return (n + cacheLineBytes - 1) &^ (cacheLineBytes - 1)
}

// slotStride returns the per-slot byte stride for a given element size:
// an 8-byte sequence counter, the payload, padded up to a cache-line
// multiple so adjacent slots never share a cache line.
func slotStride(elementSize uint32) uint32 {
	return roundUp64(8 + elementSize)
}

// segmentSize returns the total byte size of a segment with the given
// element size and capacity.
func segmentSize(elementSize, capacity uint32) int64 {
	return int64(HeaderBytes) + int64(slotStride(elementSize))*int64(capacity)
}

// headerView is a thin, non-owning accessor over a mapped segment's bytes.
// It never allocates and never copies beyond what individual getters return.
type headerView struct {
	mem []byte
}

func (h headerView) magic() uint64      { return binary.LittleEndian.Uint64(h.mem[offMagic:]) }
func (h headerView) version() uint32    { return binary.LittleEndian.Uint32(h.mem[offVersion:]) }
func (h headerView) elementSize() uint32 {
	return binary.LittleEndian.Uint32(h.mem[offElementSize:])
}
func (h headerView) capacity() uint32 { return binary.LittleEndian.Uint32(h.mem[offCapacity:]) }
func (h headerView) mask() uint32     { return binary.LittleEndian.Uint32(h.mem[offMask:]) }

func (h headerView) setVersion(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offVersion:], v)
}
func (h headerView) setElementSize(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offElementSize:], v)
}
func (h headerView) setCapacity(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offCapacity:], v)
}
func (h headerView) setMask(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offMask:], v)
}

// slotOffset returns the byte offset of slot i's sequence counter.
func (h headerView) slotOffset(i uint32, stride uint32) int {
	return HeaderBytes + int(i)*int(stride)
}

// slotSequence loads the sequence counter for slot i.
func (h headerView) slotSequence(i, stride uint32) uint64 {
	off := h.slotOffset(i, stride)
	return binary.LittleEndian.Uint64(h.mem[off:])
}

// slotSequenceOffset returns the raw byte offset of slot i's sequence
// counter; slotSequencePtr turns it into a pointer for atomic access.
func (h headerView) slotSequenceOffset(i, stride uint32) int {
	return h.slotOffset(i, stride)
}

// slotData returns the payload region of slot i.
func (h headerView) slotData(i, stride, elementSize uint32) []byte {
	off := h.slotOffset(i, stride) + 8
	return h.mem[off : off+int(elementSize)]
}

// atomicPtr64 and atomicPtr32 alias a byte offset within a mapped segment as
// a pointer suitable for sync/atomic. This is the only place the module
// aliases segment bytes as typed pointers (wait_linux.go uses unsafe.Pointer
// only to hand these pointers and a timespec to the futex syscall):
// sync/atomic has no API for operating on a []byte directly, and
// every caller in this package only ever passes offsets that are multiples
// of 4 or 8 bytes by construction (slot stride and cache-line padding are
// rounded up to 64), so alignment is guaranteed.
func atomicPtr64(mem []byte, off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&mem[off]))
}

func atomicPtr32(mem []byte, off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&mem[off]))
}

func (h headerView) producerCursorPtr() *uint64 { return atomicPtr64(h.mem, offProducerCursor) }
func (h headerView) consumerCursorPtr() *uint64 { return atomicPtr64(h.mem, offConsumerCursor) }
func (h headerView) magicPtr() *uint64           { return atomicPtr64(h.mem, offMagic) }
func (h headerView) notEmptySeqPtr() *uint32     { return atomicPtr32(h.mem, offNotEmptySeq) }
func (h headerView) notFullSeqPtr() *uint32      { return atomicPtr32(h.mem, offNotFullSeq) }

func (h headerView) slotSequencePtr(i, stride uint32) *uint64 {
	return atomicPtr64(h.mem, h.slotSequenceOffset(i, stride))
}
