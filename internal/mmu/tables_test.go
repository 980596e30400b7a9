package mmu

import "testing"

func newTable() Table {
	return make(Table, NumEntries)
}

func TestBuildL3DMAMarksOnlyOverlappingPages(t *testing.T) {
	blockBase := uintptr(0x50200000)
	dmaStart := blockBase + 3*PageSize
	dmaEnd := dmaStart + PageSize + 100 // spills into a fourth page

	l3 := newTable()
	BuildL3DMA(l3, blockBase, dmaStart, dmaEnd)

	for i := 0; i < NumEntries; i++ {
		entry := l3[i]
		if entry&pteValid == 0 {
			t.Fatalf("entry %d not valid", i)
		}
		if entry&pteTable == 0 {
			t.Fatalf("entry %d missing page-descriptor bit", i)
		}
		isDMA := i == 3 || i == 4
		gotDevice := entry&attrDevice != 0
		if gotDevice != isDMA {
			t.Errorf("entry %d: device=%v, want %v", i, gotDevice, isDMA)
		}
	}
}

func TestBuildL2FirstGiBRedirectsDMABlock(t *testing.T) {
	dmaStart := uintptr(5*BlockSize2M + 0x1000)
	dmaEnd := dmaStart + 0x1400
	l3Phys := uintptr(0x5E000000)

	l2 := newTable()
	BuildL2FirstGiB(l2, l3Phys, dmaStart, dmaEnd)

	for i := 0; i < NumEntries; i++ {
		entry := l2[i]
		if i == 5 {
			if entry&pteTable == 0 {
				t.Fatalf("entry 5 should be a table descriptor, got 0x%x", entry)
			}
			if entry&^uint64(PageSize-1) != uint64(l3Phys)&^uint64(PageSize-1) {
				t.Errorf("entry 5 points at 0x%x, want 0x%x", entry&^uint64(PageSize-1), l3Phys)
			}
			continue
		}
		if entry&pteTable != 0 {
			t.Errorf("entry %d unexpectedly a table descriptor", i)
		}
		if entry&attrDevice != 0 {
			t.Errorf("entry %d outside DMA block marked device", i)
		}
	}
}

func TestBuildL2PeripheralSplitsAtBoundary(t *testing.T) {
	gibBase := uintptr(3 * BlockSize1G)
	peripheralBase := uintptr(memmapPeripheralBaseForTest)

	l2 := newTable()
	BuildL2Peripheral(l2, gibBase, peripheralBase)

	for i := 0; i < NumEntries; i++ {
		blockStart := gibBase + uintptr(i)*BlockSize2M
		wantDevice := blockStart >= peripheralBase
		gotDevice := l2[i]&attrDevice != 0
		if gotDevice != wantDevice {
			t.Errorf("entry %d (block 0x%x): device=%v, want %v", i, blockStart, gotDevice, wantDevice)
		}
	}
}

// memmapPeripheralBaseForTest mirrors memmap.PeripheralBase without an
// import cycle concern; kept local so this test file exercises the boundary
// logic independent of the memmap package's own constant.
const memmapPeripheralBaseForTest = 0xF0000000

func TestBuildL1FixedEntries(t *testing.T) {
	l1 := newTable()
	layout := L1Layout{
		FirstGiBL2Phys:    0x5E001000,
		PeripheralL2Phys:  0x5E002000,
		XHCIMMIOBase:      0x600000000,
		Pi5PeripheralBase: 65 * BlockSize1G,
		Pi5PCIeRCBase:     124 * BlockSize1G,
	}
	BuildL1(l1, layout)

	if l1[0]&pteTable == 0 {
		t.Error("entry 0 should be a table descriptor")
	}
	if l1[1]&pteTable != 0 || l1[1]&attrDevice != 0 {
		t.Error("entry 1 should be a Normal block descriptor")
	}
	if l1[3]&pteTable == 0 {
		t.Error("entry 3 should be a table descriptor")
	}
	if l1[24]&attrDevice == 0 {
		t.Error("entry 24 should be a Device block descriptor")
	}
	for _, idx := range []int{2, 65, 124} {
		if l1[idx]&pteValid == 0 {
			t.Errorf("entry %d should be valid", idx)
		}
	}
	for i := 0; i < NumEntries; i++ {
		switch i {
		case 0, 1, 2, 3, 24, 65, 124:
		default:
			if l1[i] != 0 {
				t.Errorf("entry %d should be left zero, got 0x%x", i, l1[i])
			}
		}
	}
}
