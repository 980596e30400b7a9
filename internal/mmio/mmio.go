// Package mmio layers the ordering rules spec.md §4.1 requires on top of the
// raw volatile accessors in asm: identity-mapped byte/half/word reads and
// writes, and the mandatory low-then-high split for 64-bit controller
// registers.
package mmio

import "raspi4core/asm"

func Read8(addr uintptr) uint8   { return asm.Read8(addr) }
func Write8(addr uintptr, v uint8) { asm.Write8(addr, v) }

func Read16(addr uintptr) uint16    { return asm.Read16(addr) }
func Write16(addr uintptr, v uint16) { asm.Write16(addr, v) }

func Read32(addr uintptr) uint32    { return asm.Read32(addr) }
func Write32(addr uintptr, v uint32) { asm.Write32(addr, v) }

func Read64(addr uintptr) uint64 { return asm.Read64(addr) }

// Write64 writes a 64-bit controller register as low-32, a data-sync
// barrier, then high-32, with a second barrier after. This exact sequence
// is mandatory for xHCI's 64-bit fields (ERSTBA, ERDP, CRCR, DCBAAP) — spec
// invariant (e) — because the controller may sample the low and high halves
// independently and must never observe a half-written 64-bit pointer.
func Write64(addr uintptr, v uint64) {
	asm.Write32(addr, uint32(v))
	asm.Dsb()
	asm.Write32(addr+4, uint32(v>>32))
	asm.Dsb()
}

// Barrier issues a full-system data-synchronization barrier.
func Barrier() { asm.Dsb() }

// InstructionBarrier issues an instruction-synchronization barrier.
func InstructionBarrier() { asm.Isb() }
