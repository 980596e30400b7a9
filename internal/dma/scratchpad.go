package dma

import (
	"raspi4core/asm"

	tamagodma "github.com/usbarmory/tamago/dma"
)

// PageSize matches internal/mmu's translation granule.
const PageSize = 4096

// ScratchpadPool allocates and releases the 4 KiB scratchpad pages the xHCI
// controller's scratchpad array points at. Pages come from the Normal
// (cached) heap via tamago's region allocator, so — unlike the static DMA
// region — each page must be cache-cleaned-and-invalidated before its
// physical address is published to the controller (spec.md §4.3's
// rationale, §5's shared-resource note).
type ScratchpadPool struct {
	pages []uint
}

// AllocPage allocates one cache-line-aligned, zeroed 4 KiB page, cleans and
// invalidates it from the data cache, and returns its physical address. The
// pool tracks the allocation so Release can free every outstanding page.
func (p *ScratchpadPool) AllocPage() uintptr {
	buf := make([]byte, PageSize)
	addr := tamagodma.Alloc(buf, PageSize)
	asm.CleanInvalidateDCacheVA(uintptr(addr), PageSize)
	p.pages = append(p.pages, addr)
	return uintptr(addr)
}

// Release frees every page this pool allocated. The xHCI bring-up in
// internal/xhci does not call it: pages allocated during an Init, whether
// that Init succeeds or fails, stay allocated.
func (p *ScratchpadPool) Release() {
	for _, addr := range p.pages {
		tamagodma.Free(addr)
	}
	p.pages = nil
}
