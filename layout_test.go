package shmq

import "testing"

func TestSlotStrideRoundsUpToCacheLine(t *testing.T) {
	cases := []struct {
		elementSize uint32
		want        uint32
	}{
		{0, 64},
		{1, 64},
		{56, 64},
		{57, 128},
		{64, 128},
		{128, 192},
	}
	for _, c := range cases {
		if got := slotStride(c.elementSize); got != c.want {
			t.Errorf("slotStride(%d) = %d, want %d", c.elementSize, got, c.want)
		}
	}
}

func TestSegmentSizeIncludesHeaderAndSlots(t *testing.T) {
	const elementSize, capacity = 8, 4
	stride := slotStride(elementSize)
	want := int64(HeaderBytes) + int64(stride)*capacity
	if got := segmentSize(elementSize, capacity); got != want {
		t.Errorf("segmentSize = %d, want %d", got, want)
	}
}

func TestHeaderViewRoundTrip(t *testing.T) {
	mem := make([]byte, HeaderBytes+int(slotStride(8))*4)
	h := headerView{mem: mem}

	h.setVersion(CurrentVersion)
	h.setElementSize(8)
	h.setCapacity(4)
	h.setMask(3)

	if h.version() != CurrentVersion {
		t.Errorf("version = %d, want %d", h.version(), CurrentVersion)
	}
	if h.elementSize() != 8 {
		t.Errorf("elementSize = %d, want 8", h.elementSize())
	}
	if h.capacity() != 4 {
		t.Errorf("capacity = %d, want 4", h.capacity())
	}
	if h.mask() != 3 {
		t.Errorf("mask = %d, want 3", h.mask())
	}
}

func TestSlotSequenceAndDataAreDisjoint(t *testing.T) {
	const elementSize, capacity = 8, 4
	stride := slotStride(elementSize)
	mem := make([]byte, int(HeaderBytes)+int(stride)*capacity)
	h := headerView{mem: mem}

	for i := uint32(0); i < capacity; i++ {
		seqOff := h.slotSequenceOffset(i, stride)
		data := h.slotData(i, stride, elementSize)
		dataStart := seqOff + 8
		if &mem[dataStart] != &data[0] {
			t.Errorf("slot %d: data region does not start right after its sequence counter", i)
		}
	}
}
