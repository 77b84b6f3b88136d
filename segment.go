// segment.go: named shared memory segment lifecycle
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package shmq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	goerrors "github.com/agilira/go-errors"
	timecache "github.com/agilira/go-timecache"
	"golang.org/x/sys/unix"
)

// clockResolution controls how often the cached clock used for blocking
// timeout arithmetic refreshes. The waiting layer's retry loop reads the
// clock far more often than it needs millisecond precision, so a cached
// clock (grounded on the teacher's own use of go-timecache for its hot
// write-path timestamps) avoids a real clock syscall on every retry.
const clockResolution = time.Millisecond

// segment owns one process's mapping of a named shared memory region. The
// mapping itself (mem) is local to this handle; the bytes it points at are
// shared with every other process that has the segment open.
type segment struct {
	name        string
	path        string
	file        *os.File
	mem         []byte
	h           headerView
	elementSize uint32
	capacity    uint32
	mask        uint32
	stride      uint32
	clock       *timecache.TimeCache
}

// shmDir returns the directory used to back named segments. /dev/shm is a
// Linux tmpfs convention (not a POSIX guarantee); on other platforms we fall
// back to the process's temp directory so the rest of the package still
// works, at the cost of segments that are not guaranteed to live in RAM.
func shmDir() string {
	if runtime.GOOS == "linux" {
		if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
			return "/dev/shm"
		}
	}
	return os.TempDir()
}

// sanitizeName rejects path separators and the empty string so a queue name
// can never escape shmDir() or collide with ".."-style traversal.
func sanitizeName(name string) (string, error) {
	if name == "" {
		return "", invalidArgf("name must not be empty")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return "", invalidArgf("name %q must not contain path separators", name)
	}
	return name, nil
}

func segmentPath(name string) (string, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(shmDir(), "shmq."+clean), nil
}

// validateCreateArgs implements the NegativeSize / InvalidArgument /
// power-of-two rules from spec.md §4.1 and §8. Arguments are taken as
// int64 specifically so a caller passing a negative literal is
// distinguishable from one passing zero ("omitted").
func validateCreateArgs(elementSize, capacity int64) error {
	if elementSize < 0 || capacity < 0 {
		return fmt.Errorf("elementSize=%d capacity=%d: %w", elementSize, capacity, ErrNegativeSize)
	}
	if elementSize == 0 || capacity == 0 {
		return invalidArgf("elementSize and capacity are required when create=true")
	}
	if elementSize > (1<<32)-1 || capacity > (1<<32)-1 {
		return invalidArgf("elementSize=%d capacity=%d exceed the maximum representable segment size", elementSize, capacity)
	}
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return invalidArgf("capacity %d must be a power of two (minimum 2)", capacity)
	}
	return nil
}

// createSegment creates and initializes a new named segment. Fails with
// ErrAlreadyExists if the name is taken; the OS's O_EXCL does the existence
// check atomically, so there is no separate check-then-create race.
func createSegment(name string, elementSize, capacity int64) (*segment, error) {
	if err := validateCreateArgs(elementSize, capacity); err != nil {
		return nil, err
	}

	path, err := segmentPath(name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, alreadyExistsf("segment %q", name)
		}
		return nil, goerrors.Wrap(err, "create shared memory segment")
	}

	es := uint32(elementSize)
	cap32 := uint32(capacity)
	size := segmentSize(es, cap32)

	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, goerrors.Wrap(err, "size shared memory segment")
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, goerrors.Wrap(err, "mmap shared memory segment")
	}

	seg := &segment{
		name:        name,
		path:        path,
		file:        f,
		mem:         mem,
		h:           headerView{mem: mem},
		elementSize: es,
		capacity:    cap32,
		mask:        cap32 - 1,
		stride:      slotStride(es),
		clock:       timecache.NewWithResolution(clockResolution),
	}

	seg.initHeader()
	return seg, nil
}

// initHeader writes every field except magic, then publishes magic last
// with a release-ordered atomic store (spec.md §4.1: "concurrent openers
// either see a fully initialized segment or a not-yet-initialized one").
func (s *segment) initHeader() {
	h := s.h
	h.setVersion(CurrentVersion)
	h.setElementSize(s.elementSize)
	h.setCapacity(s.capacity)
	h.setMask(s.mask)
	atomic.StoreUint64(h.producerCursorPtr(), 0)
	atomic.StoreUint64(h.consumerCursorPtr(), 0)
	atomic.StoreUint32(h.notEmptySeqPtr(), 0)
	atomic.StoreUint32(h.notFullSeqPtr(), 0)

	for i := uint32(0); i < s.capacity; i++ {
		atomic.StoreUint64(h.slotSequencePtr(i, s.stride), uint64(i))
	}

	atomic.StoreUint64(h.magicPtr(), headerMagic)
}

// openMagicPollInitial/openMagicPollMax/openMagicPollBudget bound how long Open waits for a
// creator to finish publishing its header, per spec.md §4.1 ("bounded spin
// + yield"). Backoff shape grounded on the pack's slotcache readBackoff.
const (
	openMagicPollInitial = 50 * time.Microsecond
	openMagicPollMax     = 2 * time.Millisecond
	openMagicPollBudget  = 200 * time.Millisecond
)

// openSegment attaches to an existing segment by name.
func openSegment(name string) (*segment, error) {
	path, err := segmentPath(name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFoundf("segment %q", name)
		}
		return nil, goerrors.Wrap(err, "open shared memory segment")
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, goerrors.Wrap(err, "stat shared memory segment")
	}
	if fi.Size() < HeaderBytes {
		f.Close()
		return nil, versionMismatchf("segment %q is smaller than a header", name)
	}

	headerMem, err := unix.Mmap(int(f.Fd()), 0, HeaderBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, goerrors.Wrap(err, "mmap shared memory segment header")
	}

	h := headerView{mem: headerMem}
	if err := waitForMagic(h, openMagicPollBudget); err != nil {
		unix.Munmap(headerMem)
		f.Close()
		return nil, err
	}

	es := h.elementSize()
	cap32 := h.capacity()
	unix.Munmap(headerMem)

	size := segmentSize(es, cap32)
	if fi.Size() != size {
		f.Close()
		return nil, versionMismatchf("segment %q has size %d, expected %d", name, fi.Size(), size)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, goerrors.Wrap(err, "mmap shared memory segment")
	}

	full := headerView{mem: mem}
	if full.version() != CurrentVersion {
		unix.Munmap(mem)
		f.Close()
		return nil, versionMismatchf("segment %q has version %d, expected %d", name, full.version(), CurrentVersion)
	}

	return &segment{
		name:        name,
		path:        path,
		file:        f,
		mem:         mem,
		h:           full,
		elementSize: es,
		capacity:    cap32,
		mask:        full.mask(),
		stride:      slotStride(es),
		clock:       timecache.NewWithResolution(clockResolution),
	}, nil
}

// waitForMagic polls for the creator to publish the header, per spec.md
// §4.1. budget bounds total wait time. A magic that is still exactly zero
// when the budget expires is genuinely ambiguous — a slow-to-initialize
// segment and one that will never be published look identical from here —
// and is surfaced as NotFound. A magic that is non-zero but does not equal
// headerMagic can never become headerMagic later (the creator only ever
// writes it once, as the last field in initHeader): that is not a pending
// initialization, it is a foreign or corrupted file occupying the name, so
// it is surfaced as ErrVersionMismatch instead of being conflated with
// NotFound.
func waitForMagic(h headerView, budget time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	backoff := openMagicPollInitial
	for {
		if atomic.LoadUint64(h.magicPtr()) == headerMagic {
			return nil
		}
		select {
		case <-ctx.Done():
			if final := atomic.LoadUint64(h.magicPtr()); final != 0 {
				return versionMismatchf("segment has unrecognized magic %#x", final)
			}
			return notFoundf("segment did not publish its header in time")
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > openMagicPollMax {
			backoff = openMagicPollMax
		}
	}
}

// close unmaps the local view. It never touches the segment's name.
func (s *segment) close() error {
	if s.mem == nil {
		return nil
	}
	if s.clock != nil {
		s.clock.Stop()
	}
	err := unix.Munmap(s.mem)
	s.mem = nil
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// unlinkSegment removes a segment's name. Existing mappings remain valid
// until every handle closes.
func unlinkSegment(name string) error {
	path, err := segmentPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return notFoundf("segment %q", name)
		}
		return goerrors.Wrap(err, "unlink shared memory segment")
	}
	return nil
}
