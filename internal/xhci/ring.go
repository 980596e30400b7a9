package xhci

import "raspi4core/internal/mmio"

// TRB layout: 16 bytes, Parameter (8), Status (4), Control (4). The xhci_dma
// section is Device memory (see internal/mmu), so plain ordered MMIO writes
// are enough to make a TRB visible to the controller — no cache maintenance,
// unlike the heap-backed scratchpad pages in internal/dma.
const trbSize = 16

const (
	trbOffParameter = 0
	trbOffStatus    = 8
	trbOffControl   = 12
)

// TRB control-field bits common to every type.
const (
	trbCycle = 1 << 0
	trbTC    = 1 << 1 // Toggle Cycle, Link TRB only
)

// TRB types (Control[15:10]).
const (
	trbTypeLink          = 6
	trbTypeEnableSlot    = 9
	trbTypeNoOp          = 23
	trbTypeTransferEvent = 32
	trbTypeCmdCompletion = 33
	trbTypePortStatusChg = 34
)

func trbTypeField(t uint32) uint32 { return t << 10 }

func trbControlType(control uint32) uint32 { return (control >> 10) & 0x3F }

// commandRing is a producer for the 64-slot command ring, wrapping the last
// slot with a Link TRB back to slot 0 per spec.md §4.5 step 4.
type commandRing struct {
	base     uintptr
	slots    int
	enqueue  int
	cycleBit uint32
}

func newCommandRing(base uintptr, size uintptr) commandRing {
	slots := int(size / trbSize)
	zeroTRBs(base, size)
	r := commandRing{base: base, slots: slots, enqueue: 0, cycleBit: 1}
	r.writeLinkTRB()
	return r
}

// zeroTRBs clears size bytes of TRB slots starting at base. The xhci_dma
// section lies outside the BSS range the boot stub zeroes, and
// setupCommandRing/setupEventRing can run again on a re-init (spec.md §8
// scenario 5), so the rings clear their own slots every time.
func zeroTRBs(base uintptr, size uintptr) {
	for i := uintptr(0); i < size; i += 8 {
		mmio.Write64(base+i, 0)
	}
}

func (r *commandRing) slotAddr(i int) uintptr {
	return r.base + uintptr(i)*trbSize
}

// writeLinkTRB installs the Link TRB in the last slot, pointing back at slot
// 0 with the Toggle Cycle bit set so the producer cycle bit flips correctly
// on wraparound.
func (r *commandRing) writeLinkTRB() {
	addr := r.slotAddr(r.slots - 1)
	mmio.Write64(addr+trbOffParameter, uint64(r.base))
	mmio.Write32(addr+trbOffStatus, 0)
	control := trbTypeField(trbTypeLink) | trbTC
	mmio.Write32(addr+trbOffControl, control) // cycle bit patched in on first wrap
}

// Enqueue writes one TRB (parameter, status, and the type/flags portion of
// control — the cycle bit is ORed in here) and advances the producer,
// transparently following the Link TRB on wraparound.
func (r *commandRing) Enqueue(parameter uint64, status uint32, controlType uint32) (trbAddr uintptr) {
	addr := r.slotAddr(r.enqueue)
	mmio.Write64(addr+trbOffParameter, parameter)
	mmio.Write32(addr+trbOffStatus, status)
	mmio.Write32(addr+trbOffControl, controlType|r.cycleBit)

	r.enqueue++
	if r.enqueue == r.slots-1 {
		// Patch the Link TRB's cycle bit to match the producer's before
		// wrapping through it.
		linkAddr := r.slotAddr(r.slots - 1)
		mmio.Write32(linkAddr+trbOffControl, trbTypeField(trbTypeLink)|trbTC|r.cycleBit)
		r.enqueue = 0
		r.cycleBit ^= 1
	}
	return addr
}

// eventRing is a consumer-side cursor over the single-segment event ring.
type eventRing struct {
	base     uintptr
	slots    int
	dequeue  int
	cycleBit uint32
}

func newEventRing(base uintptr, size uintptr) eventRing {
	zeroTRBs(base, size)
	return eventRing{base: base, slots: int(size / trbSize), dequeue: 0, cycleBit: 1}
}

func (r *eventRing) slotAddr(i int) uintptr {
	return r.base + uintptr(i)*trbSize
}

// Pending reports whether the TRB at the dequeue pointer has been produced
// by the controller (its cycle bit matches ours).
func (r *eventRing) Pending(regs Regs, offControl uintptr) bool {
	control := mmio.Read32(r.slotAddr(r.dequeue) + trbOffControl)
	return control&trbCycle == r.cycleBit
}

// Dequeue reads the pending event TRB and advances the consumer cursor,
// toggling the cycle bit on wraparound (no Link TRB on the consumer side;
// the controller wraps unconditionally for a single-segment ring).
func (r *eventRing) Dequeue() (parameter uint64, status uint32, control uint32) {
	addr := r.slotAddr(r.dequeue)
	parameter = mmio.Read64(addr + trbOffParameter)
	status = mmio.Read32(addr + trbOffStatus)
	control = mmio.Read32(addr + trbOffControl)

	r.dequeue++
	if r.dequeue == r.slots {
		r.dequeue = 0
		r.cycleBit ^= 1
	}
	return parameter, status, control
}

// DequeuePointer returns the current consumer address, used to program ERDP.
func (r *eventRing) DequeuePointer() uintptr {
	return r.slotAddr(r.dequeue)
}
