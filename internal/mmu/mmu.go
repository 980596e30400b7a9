// Package mmu builds the kernel's identity-mapped page tables and turns the
// MMU and caches on, following the algorithm in spec.md §4.3. Table layout
// and encoding (tables.go) is pure and unit-tested; Init wires that logic to
// the real MAIR/TCR/TTBR/SCTLR programming sequence, which only makes
// sense once, on CPU 0, before any other core starts.
package mmu

import (
	"errors"
	"unsafe"

	"raspi4core/asm"
	"raspi4core/internal/memmap"
)

// ErrDMARegionMisplaced is a programmer error (spec.md §7): the linker put
// xhci_dma somewhere the table-building algorithm cannot represent. It
// means the link script or the reserved section size changed without this
// package being updated, not a runtime condition — callers should treat it
// as fatal.
var ErrDMARegionMisplaced = errors.New("mmu: xhci_dma region crosses a 2 MiB or 1 GiB boundary")

// tablePool is four tables' worth of storage plus one spare page so the
// 4 KiB-aligned region required by spec.md invariant (a) can be carved out
// of it at runtime: static arrays only guarantee natural (8-byte) alignment
// in Go, not page alignment.
var tablePool [5 * PageSize]byte

// pageAlign4K returns the first 4 KiB-aligned address at or after p.
func pageAlign4K(p uintptr) uintptr {
	return (p + PageSize - 1) &^ (PageSize - 1)
}

func tableAt(base uintptr, index int) Table {
	addr := base + uintptr(index)*PageSize
	return unsafe.Slice((*uint64)(unsafe.Pointer(addr)), NumEntries)
}

// Init builds the identity page tables and enables the MMU and caches. It
// must run exactly once, on CPU 0, with interrupts disabled, before any
// other core is released from reset (spec.md §4.3's stated precondition —
// this package does not itself enforce single-invocation; the boot sequence
// in cmd/kernel does, by construction, call it exactly once).
func Init() error {
	poolBase := pageAlign4K(uintptr(unsafe.Pointer(&tablePool[0])))

	l1 := tableAt(poolBase, 0)
	l2First := tableAt(poolBase, 1)
	l2Peripheral := tableAt(poolBase, 2)
	l3DMA := tableAt(poolBase, 3)

	asm.Bzero(unsafe.Pointer(&l1[0]), NumEntries*8)
	asm.Bzero(unsafe.Pointer(&l2First[0]), NumEntries*8)
	asm.Bzero(unsafe.Pointer(&l2Peripheral[0]), NumEntries*8)
	asm.Bzero(unsafe.Pointer(&l3DMA[0]), NumEntries*8)

	dma := memmap.GetXHCIDMARegion()
	dmaStart := dma.PhysAddr()
	dmaEnd := dmaStart + dma.Size()

	if dmaStart >= memmap.DRAMLow0End {
		return ErrDMARegionMisplaced
	}
	blockBase := dmaStart &^ (BlockSize2M - 1)
	blockEnd := blockBase + BlockSize2M
	if dmaEnd > blockEnd {
		return ErrDMARegionMisplaced
	}

	BuildL3DMA(l3DMA, blockBase, dmaStart, dmaEnd)

	l3DMAPhys := uintptr(unsafe.Pointer(&l3DMA[0]))
	BuildL2FirstGiB(l2First, l3DMAPhys, dmaStart, dmaEnd)
	BuildL2Peripheral(l2Peripheral, 3*BlockSize1G, memmap.PeripheralBase)

	BuildL1(l1, L1Layout{
		FirstGiBL2Phys:    uintptr(unsafe.Pointer(&l2First[0])),
		PeripheralL2Phys:  uintptr(unsafe.Pointer(&l2Peripheral[0])),
		XHCIMMIOBase:      memmap.XHCIBase,
		Pi5PeripheralBase: 65 * BlockSize1G,
		Pi5PCIeRCBase:     memmap.Pi5PCIeRootComplex &^ (BlockSize1G - 1),
	})

	asm.Dsb()

	enableHardware(uintptr(unsafe.Pointer(&l1[0])))
	return nil
}

// MAIR attribute byte values (spec.md §4.3 step 8).
const (
	mairNormalWB    = 0xFF
	mairDeviceNGnRnE = 0x00
)

// enableHardware programs MAIR, TCR, TTBR0/1 and SCTLR per spec.md §4.3
// steps 8-12. Never called outside Init.
func enableHardware(l1Phys uintptr) {
	mair := uint64(mairNormalWB) | uint64(mairDeviceNGnRnE)<<8
	asm.WriteMairEl1(mair)

	// TCR_EL1: T0SZ=25 (bits 5:0), T1SZ=25 (bits 21:16), 4 KiB granule for
	// both halves, inner+outer write-back walks, inner-shareable, 40-bit
	// physical address size (IPS=010, bits 34:32).
	const (
		t0sz    = 25
		t1sz    = 25 << 16
		irgn0WB = 1 << 8
		orgn0WB = 1 << 10
		sh0Inner = 3 << 12
		irgn1WB = 1 << 24
		orgn1WB = 1 << 26
		sh1Inner = 3 << 28
		ips40bit = 2 << 32
		tg1_4k   = 2 << 30 // TG1 encodes 4K as 0b10
	)
	tcr := uint64(t0sz) | uint64(t1sz) | irgn0WB | orgn0WB | sh0Inner |
		irgn1WB | orgn1WB | sh1Inner | ips40bit | tg1_4k
	asm.WriteTcrEl1(tcr)

	asm.WriteTtbr0El1(uint64(l1Phys))
	asm.WriteTtbr1El1(uint64(l1Phys))

	asm.InvalidateTLBAllInnerShareable()
	asm.Dsb()
	asm.Isb()

	const (
		sctlrMMU = 1 << 0
		sctlrC   = 1 << 2 // data cache
		sctlrI   = 1 << 12 // instruction cache
	)
	sctlr := asm.ReadSctlrEl1()
	sctlr |= sctlrMMU | sctlrC | sctlrI
	asm.WriteSctlrEl1(sctlr)
	asm.Isb()
}
