package xhci

// ring_test.go exercises the command/event ring logic against a plain Go
// byte buffer standing in for DMA memory. The asm-backed mmio reads/writes
// inside commandRing/eventRing are ordinary load/store instructions against
// whatever address they're given; on this kernel's only build target
// (arm64) a heap buffer is just as valid a destination as an MMIO window,
// so this exercises the real ring bookkeeping without needing a board.

import (
	"testing"
	"unsafe"
)

func newTestBuffer(n int) uintptr {
	buf := make([]byte, n)
	return uintptr(unsafe.Pointer(&buf[0]))
}

func TestCommandRingInstallsLinkTRB(t *testing.T) {
	base := newTestBuffer(64 * trbSize)
	r := newCommandRing(base, 64*trbSize)

	linkAddr := r.slotAddr(63)
	control := *(*uint32)(unsafe.Pointer(linkAddr + trbOffControl))
	if trbControlType(control) != trbTypeLink {
		t.Fatalf("slot 63 control type = %d, want Link (%d)", trbControlType(control), trbTypeLink)
	}
	if control&trbTC == 0 {
		t.Error("Link TRB missing Toggle Cycle bit")
	}
	param := *(*uint64)(unsafe.Pointer(linkAddr + trbOffParameter))
	if param != uint64(base) {
		t.Errorf("Link TRB parameter = 0x%x, want ring base 0x%x", param, base)
	}
}

func TestCommandRingEnqueueAdvancesAndWraps(t *testing.T) {
	base := newTestBuffer(4 * trbSize) // tiny ring: 4 slots, slot 3 is Link
	r := newCommandRing(base, 4*trbSize)

	firstCycle := r.cycleBit
	addr0 := r.Enqueue(0x1111, 0, trbTypeField(trbTypeEnableSlot))
	if addr0 != r.slotAddr(0) {
		t.Fatalf("first Enqueue wrote slot at 0x%x, want slot 0 at 0x%x", addr0, r.slotAddr(0))
	}

	r.Enqueue(0x2222, 0, trbTypeField(trbTypeNoOp))

	// Third enqueue wraps past the Link TRB in slot 3 (slots-1) back to 0,
	// flipping the producer cycle bit.
	r.Enqueue(0x3333, 0, trbTypeField(trbTypeNoOp))
	if r.cycleBit == firstCycle {
		t.Error("cycle bit did not flip after wrapping through the Link TRB")
	}
	if r.enqueue != 0 {
		t.Errorf("enqueue index after wrap = %d, want 0", r.enqueue)
	}
}

func TestEventRingDequeueAdvancesAndWraps(t *testing.T) {
	base := newTestBuffer(2 * trbSize)
	r := newEventRing(base, 2*trbSize)

	firstCycle := r.cycleBit
	r.Dequeue()
	if r.dequeue != 1 {
		t.Fatalf("dequeue index = %d, want 1", r.dequeue)
	}
	r.Dequeue()
	if r.dequeue != 0 {
		t.Errorf("dequeue index after wrap = %d, want 0", r.dequeue)
	}
	if r.cycleBit == firstCycle {
		t.Error("consumer cycle bit did not flip on wraparound")
	}
}
