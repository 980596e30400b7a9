// Package asm provides the hand-written AArch64 primitives that cannot be
// expressed in portable Go: volatile MMIO access, barriers, the
// exclusive-monitor spinlock operations, interrupt mask control, and the
// task context switch. Each function here is a thin wrapper around a single
// TEXT symbol defined in the matching *_arm64.s file; the clobber list for
// each is documented next to its declaration.
//
// Nothing in this package touches Go's write barrier, goroutine scheduler,
// or allocator: every function is safe to call before the runtime (such as
// it is for this freestanding build) has initialized anything.
package asm

import "unsafe"

// MMIO access. Each is a single load or store instruction guarded so the Go
// compiler cannot reorder, coalesce, or speculate it away; the volatile
// semantics spec.md §4.1 requires do not exist in the Go memory model, so
// these must be real instructions, not *uint32 dereferences.

//go:noescape
func Read8(addr uintptr) uint8

//go:noescape
func Write8(addr uintptr, val uint8)

//go:noescape
func Read16(addr uintptr) uint16

//go:noescape
func Write16(addr uintptr, val uint16)

//go:noescape
func Read32(addr uintptr) uint32

//go:noescape
func Write32(addr uintptr, val uint32)

//go:noescape
func Read64(addr uintptr) uint64

// Barriers.

//go:noescape
func Dsb()

//go:noescape
func Isb()

// Exclusive monitor primitives backing the spinlock in internal/spinlock.
// LoadAcquireExclusive32 issues LDAXR (load-acquire exclusive); it opens the
// local exclusive monitor on addr.
//
//go:noescape
func LoadAcquireExclusive32(addr *uint32) uint32

// StoreExclusive32 issues STXR (store-exclusive, release-less) and returns
// the status: 0 on success (store happened, monitor held), nonzero if the
// exclusive monitor was lost and the store did not happen. Per spec.md §9's
// Design Notes, the loaded value and the store-exclusive status MUST be
// distinct output operands — reusing one register for both is the bug this
// primitive exists to avoid.
//
//go:noescape
func StoreExclusive32(addr *uint32, val uint32) (status uint32)

// StoreRelease32 issues STLR (store-release): val becomes visible no later
// than any subsequent load-acquire on addr observes it.
//
//go:noescape
func StoreRelease32(addr *uint32, val uint32)

// SpinHint issues YIELD in the exclusive-monitor acquire loop when the lock
// word was observed non-zero, before the loop retries (see spec.md §4.2
// step 2). It writes no memory.
//
//go:noescape
func SpinHint()

// Interrupt mask control (DAIF).

//go:noescape
func ReadDAIF() uint64

//go:noescape
func MaskIRQFIQ()

//go:noescape
func WriteDAIF(saved uint64)

// CPU identification.

//go:noescape
func MPIDREL1() uint64

// TLB / cache maintenance.

//go:noescape
func InvalidateTLBAllInnerShareable()

//go:noescape
func InvalidateTLBVA(va uintptr)

//go:noescape
func InvalidateICacheAll()

//go:noescape
func CleanInvalidateDCacheVA(addr uintptr, size uintptr)

// MAIR/TCR/TTBR/SCTLR access, used exactly once each by internal/mmu.

//go:noescape
func WriteMairEl1(v uint64)

//go:noescape
func ReadMairEl1() uint64

//go:noescape
func WriteTcrEl1(v uint64)

//go:noescape
func ReadTcrEl1() uint64

//go:noescape
func WriteTtbr0El1(v uint64)

//go:noescape
func ReadTtbr0El1() uint64

//go:noescape
func WriteTtbr1El1(v uint64)

//go:noescape
func ReadSctlrEl1() uint64

//go:noescape
func WriteSctlrEl1(v uint64)

// Delay is a calibrated busy-wait, used by internal/xhci for the
// port-power settling wait. It is deliberately inaccurate (spec.md §5):
// approximately usec microseconds at roughly 150 NOPs per microsecond on a
// Cortex-A72 at the BCM2711's default clock, which is coarse enough for the
// millisecond-scale timeouts xHCI bring-up needs and nothing finer.
//
//go:noescape
func Delay(usec uint32)

// ContextSwitch performs the heart of the scheduler's context switch
// (spec.md §4.4) between two tasks that have both run before. If prevSP is
// non-nil, it pushes the twelve callee-saved registers (x19-x28, fp, lr)
// onto the current stack with paired pre-decrement stores, and writes the
// resulting SP to *prevSP. It then loads SP from nextSP, pops the twelve
// callee-saved registers, and returns into the caller that is resuming —
// which, for a task that was switched away from inside Schedule, is the
// point in Schedule() immediately after the call to ContextSwitch.
//
// Must only be called with IRQs masked.
//
//go:noescape
func ContextSwitch(prevSP *uintptr, nextSP uintptr)

// EnterTask starts a task that has never run. If prevSP is non-nil it
// first pushes the outgoing task's callee-saved registers exactly like
// ContextSwitch's prev half, so that task resumes correctly on some later
// ContextSwitch or EnterTask call. It then loads SP from stackTop, sets
// SP_EL0 to userSP (0 for a kernel-only task), loads entry into ELR_EL1,
// loads spsr into SPSR_EL1, and executes ERET. It never returns to its
// caller; control resumes at entry, running in EL1 with the interrupt mask
// state spec.md §9 Open Question 2 describes (DAIF all masked on first
// instruction — the task is expected to unmask interrupts itself once it is
// ready to be preempted).
//
//go:noescape
func EnterTask(prevSP *uintptr, stackTop, entry, userSP uintptr, spsr uint64)

// WaitForEvent issues WFE, used by the idle task's wait loop (spec.md §4.4)
// and as the terminal state of Halt.
//
//go:noescape
func WaitForEvent()

// SendEvent issues SEV, waking CPUs parked in WaitForEvent; used by
// task_wakeup's inter-processor reschedule signal.
//
//go:noescape
func SendEvent()

// Bzero zeros size bytes at ptr using a tight store loop; used to clear
// freshly allocated page tables, rings, and heap segments without depending
// on a Go runtime-provided memclr.
//
//go:noescape
func Bzero(ptr unsafe.Pointer, size uintptr)

// Linker symbol accessors (spec.md §6's linker contract). Each of these
// returns the ADDRESS of a symbol the linker script defines, not the value
// stored there; they're implemented as bare address-of-symbol loads in
// linker_symbols_arm64.s, with the symbol itself left undefined for the
// final link stage to resolve against linker.ld.

//go:noescape
func XHCIDMAStartAddr() uintptr

//go:noescape
func XHCIDMAEndAddr() uintptr

//go:noescape
func KernelStackTopAddr() uintptr

//go:noescape
func BSSStartAddr() uintptr

//go:noescape
func BSSEndAddr() uintptr
