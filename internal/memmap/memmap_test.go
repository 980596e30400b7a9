package memmap

import "testing"

func TestPhysAddrForDMAIsIdentity(t *testing.T) {
	if got := PhysAddrForDMA(0x5F001000); got != 0x5F001000 {
		t.Errorf("PhysAddrForDMA() = 0x%x, want identity", got)
	}
}

func TestPhysAddrForMailboxMasksAndAliases(t *testing.T) {
	// Bit 30 and above must be stripped, then 0xC0000000 ORed in.
	got := PhysAddrForMailbox(0x5F001000)
	want := uintptr(0x1F001000 | 0xC0000000)
	if got != want {
		t.Errorf("PhysAddrForMailbox(0x5F001000) = 0x%x, want 0x%x", got, want)
	}
}

func TestPhysAddrForDMAAndMailboxAreDistinctFunctions(t *testing.T) {
	// spec.md §9 Open Question 1: these must never be the same overloaded
	// helper. A DMA-bound address must pass through untouched even though
	// the mailbox variant would alias it.
	addr := uintptr(0x7FFFFFFF)
	if PhysAddrForDMA(addr) == PhysAddrForMailbox(addr) {
		t.Fatal("PhysAddrForDMA and PhysAddrForMailbox produced the same result; they must diverge for a >=1GiB address")
	}
}

func TestRegionContainsAndSize(t *testing.T) {
	r := Region{Start: 0x1000, End: 0x2000, Device: true}
	if r.Size() != 0x1000 {
		t.Errorf("Size() = 0x%x, want 0x1000", r.Size())
	}
	if !r.Contains(0x1500) {
		t.Error("Contains(0x1500) = false, want true")
	}
	if r.Contains(0x2000) {
		t.Error("Contains(0x2000) = true, want false (End is exclusive)")
	}
}

func TestDMAWindowSub(t *testing.T) {
	w := NewDMAWindow(0x8000, 0x1000)
	sub := w.Sub(0x100, 0x40)
	if sub.PhysAddr() != 0x8100 || sub.Size() != 0x40 {
		t.Errorf("Sub() = {0x%x, 0x%x}, want {0x8100, 0x40}", sub.PhysAddr(), sub.Size())
	}
}

func TestDMAWindowSubOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Sub() past the window end did not panic")
		}
	}()
	w := NewDMAWindow(0x8000, 0x100)
	w.Sub(0x80, 0x100)
}
