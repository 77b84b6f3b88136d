package shmq

import (
	"errors"
	"testing"
	"time"
)

func TestBlockingGetWaitsForPut(t *testing.T) {
	seg := newTestSegment(t, 4, 2)

	done := make(chan error, 1)
	go func() {
		out := make([]byte, 4)
		done <- seg.get(out, nil)
	}()

	time.Sleep(20 * time.Millisecond) // give the getter a chance to block
	if err := seg.tryPut([]byte("ping")); err != nil {
		t.Fatalf("tryPut: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("get: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocking get did not wake after put")
	}
}

func TestBlockingPutWaitsForGet(t *testing.T) {
	seg := newTestSegment(t, 4, 2)
	if err := seg.tryPut([]byte("full")); err != nil {
		t.Fatalf("tryPut: %v", err)
	}
	if err := seg.tryPut([]byte("more")); err != nil {
		t.Fatalf("tryPut: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- seg.put([]byte("next"), nil)
	}()

	time.Sleep(20 * time.Millisecond)
	out := make([]byte, 4)
	if err := seg.tryGet(out); err != nil {
		t.Fatalf("tryGet: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocking put did not wake after get")
	}
}

func TestGetTimeoutExpiresOnEmptyQueue(t *testing.T) {
	seg := newTestSegment(t, 4, 2)
	timeout := 30 * time.Millisecond

	start := time.Now()
	err := seg.get(make([]byte, 4), &timeout)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
	if elapsed < timeout {
		t.Fatalf("returned after %v, want at least %v", elapsed, timeout)
	}
}

func TestPutTimeoutExpiresOnFullQueue(t *testing.T) {
	seg := newTestSegment(t, 4, 2)
	if err := seg.tryPut([]byte("full")); err != nil {
		t.Fatalf("tryPut: %v", err)
	}
	if err := seg.tryPut([]byte("more")); err != nil {
		t.Fatalf("tryPut: %v", err)
	}

	timeout := 30 * time.Millisecond
	err := seg.put([]byte("next"), &timeout)
	if !errors.Is(err, ErrFull) {
		t.Fatalf("err = %v, want ErrFull", err)
	}
}

func TestZeroTimeoutIsNonBlocking(t *testing.T) {
	seg := newTestSegment(t, 4, 2)
	zero := time.Duration(0)

	if err := seg.get(make([]byte, 4), &zero); !errors.Is(err, ErrEmpty) {
		t.Fatalf("get with zero timeout on empty queue: err = %v, want ErrEmpty", err)
	}
	if err := seg.put([]byte("data"), &zero); err != nil {
		t.Fatalf("put with zero timeout on free slot: %v", err)
	}
	if err := seg.put([]byte("data"), &zero); err != nil {
		t.Fatalf("put with zero timeout on free slot: %v", err)
	}
	if err := seg.put([]byte("more"), &zero); !errors.Is(err, ErrFull) {
		t.Fatalf("put with zero timeout on full queue: err = %v, want ErrFull", err)
	}
}

func TestNegativeTimeoutIsInvalidArgument(t *testing.T) {
	seg := newTestSegment(t, 4, 2)
	neg := -time.Second

	if err := seg.put([]byte("data"), &neg); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("put err = %v, want ErrInvalidArgument", err)
	}
	if err := seg.get(make([]byte, 4), &neg); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("get err = %v, want ErrInvalidArgument", err)
	}
}

func TestNilTimeoutBlocksIndefinitelyUntilSignaled(t *testing.T) {
	seg := newTestSegment(t, 1, 2)

	done := make(chan error, 1)
	go func() { done <- seg.put([]byte("a"), nil) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("put on free slot should not block")
	}
	if err := seg.tryPut([]byte("c")); err != nil {
		t.Fatalf("tryPut: %v", err)
	}

	go func() { done <- seg.put([]byte("b"), nil) }()
	select {
	case <-done:
		t.Fatal("put on full queue returned without a matching get")
	case <-time.After(50 * time.Millisecond):
		// expected: still blocked
	}

	out := make([]byte, 1)
	if err := seg.tryGet(out); err != nil {
		t.Fatalf("tryGet: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked put did not wake after a slot freed")
	}
}
