package dma

import (
	"testing"

	"raspi4core/internal/memmap"
)

func TestNewStaticRegionRejectsUndersizedWindow(t *testing.T) {
	w := memmap.NewDMAWindow(0x1000, memmap.XHCIDMASize-1)
	if _, err := NewStaticRegion(w); err == nil {
		t.Fatal("expected an error for a window smaller than the fixed layout")
	}
}

func TestStaticRegionSubWindowsArePackedAndDisjoint(t *testing.T) {
	w := memmap.NewDMAWindow(0x100000, memmap.XHCIDMASize)
	r, err := NewStaticRegion(w)
	if err != nil {
		t.Fatalf("NewStaticRegion: %v", err)
	}

	windows := []memmap.DMAWindow{r.DCBAA(), r.CommandRing(), r.EventRing(), r.ERST(), r.ScratchpadArray()}
	var cursor uintptr
	for i, sub := range windows {
		if sub.PhysAddr() != w.PhysAddr()+cursor {
			t.Errorf("window %d starts at 0x%x, want 0x%x", i, sub.PhysAddr(), w.PhysAddr()+cursor)
		}
		cursor += sub.Size()
	}
	if cursor != memmap.XHCIDMASize {
		t.Errorf("sub-windows cover 0x%x bytes, want exactly 0x%x", cursor, memmap.XHCIDMASize)
	}
}

func TestCommandRingSizeIs64Slots(t *testing.T) {
	w := memmap.NewDMAWindow(0x100000, memmap.XHCIDMASize)
	r, _ := NewStaticRegion(w)
	const trbSize = 16
	if got := r.CommandRing().Size() / trbSize; got != 64 {
		t.Errorf("command ring holds %d TRB slots, want 64", got)
	}
}
