//go:build raspi4

package memmap

import "raspi4core/asm"

// GetXHCIDMARegion returns the linker-reserved DMA window, read fresh from
// the linker symbols rather than cached. mmu.Init and xhci's Controller.Init
// each call it.
func GetXHCIDMARegion() DMAWindow {
	start := asm.XHCIDMAStartAddr()
	end := asm.XHCIDMAEndAddr()
	return NewDMAWindow(start, end-start)
}

// KernelStackTop returns the address the linker reserved as the top of the
// kernel's boot stack.
func KernelStackTop() uintptr {
	return asm.KernelStackTopAddr()
}

// BSSRange returns [start, end) of the BSS segment the linker script
// brackets with __bss_start/__bss_end.
func BSSRange() (start, end uintptr) {
	return asm.BSSStartAddr(), asm.BSSEndAddr()
}

// KernelImageEnd returns the first address past the kernel's static image
// (its BSS end, the last linker-placed section). internal/sched.TaskCreate
// compares an entry point's address against this to decide whether the
// task needs a large user stack (spec.md §4.4): an entry point above the
// kernel image is, by this kernel's simplified convention, a "user" task.
func KernelImageEnd() uintptr {
	return asm.BSSEndAddr()
}
