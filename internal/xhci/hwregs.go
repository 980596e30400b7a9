package xhci

import "raspi4core/internal/mmio"

// hwRegs is the real Regs implementation, reading and writing MMIO directly
// at base+offset. One hwRegs bound to the capability base serves every
// register space; callers add the operational, runtime or doorbell offset.
type hwRegs struct {
	base uintptr
}

func (r hwRegs) Read8(offset uintptr) uint8    { return mmio.Read8(r.base + offset) }
func (r hwRegs) Read32(offset uintptr) uint32  { return mmio.Read32(r.base + offset) }
func (r hwRegs) Write32(offset uintptr, v uint32) { mmio.Write32(r.base+offset, v) }
func (r hwRegs) Write64(offset uintptr, v uint64) { mmio.Write64(r.base+offset, v) }
