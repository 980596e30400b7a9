// Page-table entry encoding. Every function here is pure: it takes
// addresses and attribute flags and returns the 64-bit descriptor value, or
// mutates an in-memory []uint64 table the caller owns. None of it touches
// hardware, which is what makes it testable without a board.
package mmu

// Page-table entry bits (ARMv8-A, spec.md §3/§4.3). Bit meaning depends on
// level: at L0-L2 bit1=1 marks a table descriptor and bit1=0 a block
// descriptor; at L3 only bit1=1 (page descriptor) is valid, so a zero bit1
// there is a translation fault rather than a block.
const (
	pteValid = 1 << 0
	pteTable = 1 << 1 // table (L0-L2) or page (L3) descriptor

	pteAF = 1 << 10 // access flag, must be set for hardware-managed tables
	pteNG = 1 << 11 // not-global

	// Memory-attribute index (bits [4:2]), indexing MAIR_EL1.
	attrNormal = 0 << 2 // MAIR index 0: Normal write-back
	attrDevice = 1 << 2 // MAIR index 1: Device-nGnRnE

	// Shareability (bits [9:8]).
	shInner = 3 << 8

	// Access permission (bits [7:6]): read/write at EL1, no EL0 access.
	apRW = 0 << 6
)

// PageSize is the translation granule this kernel uses throughout: 4 KiB.
const PageSize = 1 << 12

// BlockSize2M is the span of one L2 block/table entry.
const BlockSize2M = 1 << 21

// BlockSize1G is the span of one L1 block/table entry.
const BlockSize1G = 1 << 30

// NumEntries is the entry count of every table level (4 KiB / 8 bytes).
const NumEntries = 512

// Table is one level of the page-table walk: 512 64-bit descriptors. The
// caller is responsible for placing it at a real, 4 KiB-aligned address;
// Table itself just describes the bit pattern of its entries.
type Table []uint64

// blockEntry builds a block (leaf) descriptor for phys, attributed as
// Device-nGnRnE if device is true, Normal write-back otherwise.
func blockEntry(phys uintptr, device bool) uint64 {
	attr := uint64(attrNormal)
	if device {
		attr = attrDevice
	}
	return uint64(phys) | pteValid | pteAF | shInner | apRW | attr
}

// tableEntry builds a table descriptor pointing at the next-level table
// whose base address is phys.
func tableEntry(phys uintptr) uint64 {
	return uint64(phys) | pteValid | pteTable
}

// BuildL3DMA fills a 512-entry L3 table spanning the 2 MiB block that
// contains [dmaStart, dmaEnd). blockBase is the physical address of the
// start of that 2 MiB block. Entries whose 4 KiB page overlaps
// [dmaStart, dmaEnd) are Device-nGnRnE; every other entry is Normal
// write-back (spec.md §4.3 step 3).
func BuildL3DMA(t Table, blockBase, dmaStart, dmaEnd uintptr) {
	for i := 0; i < NumEntries; i++ {
		pageStart := blockBase + uintptr(i)*PageSize
		pageEnd := pageStart + PageSize
		isDMA := pageStart < dmaEnd && dmaStart < pageEnd
		t[i] = blockEntry(pageStart, isDMA) | pteTable
	}
}

// BuildL2FirstGiB fills the L2 table for the first 1 GiB of RAM: 512 × 2 MiB
// Normal write-back block entries, except the one entry whose range
// contains the DMA region, which instead becomes a table descriptor
// pointing at l3DMA (spec.md §4.3 step 4).
func BuildL2FirstGiB(t Table, l3DMAPhys, dmaStart, dmaEnd uintptr) {
	for i := 0; i < NumEntries; i++ {
		blockStart := uintptr(i) * BlockSize2M
		blockEnd := blockStart + BlockSize2M
		if blockStart < dmaEnd && dmaStart < blockEnd {
			t[i] = tableEntry(l3DMAPhys)
			continue
		}
		t[i] = blockEntry(blockStart, false)
	}
}

// BuildL2Peripheral fills the L2 table spanning the third GiB,
// [0xC0000000, 0x100000000), starting at gibBase: entries whose physical
// block start is at or above peripheralBase (an absolute address) are
// Device-nGnRnE, the rest Normal write-back (spec.md §4.3 step 5).
func BuildL2Peripheral(t Table, gibBase, peripheralBase uintptr) {
	for i := 0; i < NumEntries; i++ {
		blockStart := gibBase + uintptr(i)*BlockSize2M
		t[i] = blockEntry(blockStart, blockStart >= peripheralBase)
	}
}

// L1Layout is the fixed set of non-zero L1 entry indices spec.md §4.3 step 6
// calls out, expressed as data rather than scattered literal assignments.
type L1Layout struct {
	FirstGiBL2Phys      uintptr // entry 0: table -> first-GiB L2
	PeripheralL2Phys    uintptr // entry 3: table -> peripheral L2
	XHCIMMIOBase        uintptr // entry 24: 1 GiB device block
	Pi5PeripheralBase   uintptr // entry 65: 1 GiB device block
	Pi5PCIeRCBase       uintptr // entry 124: 1 GiB device block
}

// BuildL1 fills the global L1 table per spec.md §4.3 step 6: entry 0 is a
// table descriptor for the first-GiB L2, entries 1-2 are Normal write-back
// 1 GiB RAM blocks, entry 3 is a table descriptor for the peripheral L2,
// entry 24 is the xHCI MMIO device block, and entries 65/124 are
// forward-compatible device blocks that are harmless on a Pi 4.
func BuildL1(t Table, l L1Layout) {
	t[0] = tableEntry(l.FirstGiBL2Phys)
	t[1] = blockEntry(1*BlockSize1G, false)
	t[2] = blockEntry(2*BlockSize1G, false)
	t[3] = tableEntry(l.PeripheralL2Phys)
	t[24] = blockEntry(l.XHCIMMIOBase, true)
	t[65] = blockEntry(l.Pi5PeripheralBase, true)
	t[124] = blockEntry(l.Pi5PCIeRCBase, true)
}
