// Package spinlock implements the exclusive-monitor spinlock spec.md §4.2
// describes, plus the RAII-style interrupt-masked critical section §9's
// Design Notes ask for: acquiring a Lock's IRQ-safe variant returns an
// IRQGuard whose Release restores the prior DAIF state, instead of handing
// callers a raw saved-mask integer to thread through by hand.
package spinlock

import "raspi4core/asm"

// Lock is a single 32-bit exclusive-monitor word. Zero value is unlocked.
type Lock struct {
	word uint32
}

// Acquire spins until the lock is held by this CPU. It does not touch the
// interrupt mask; callers that might be preempted or interrupted while
// holding the lock must use LockIRQSave instead; holding a Lock across a
// context switch is a deadlock (spec.md §4.2) this type cannot prevent for
// you.
func (l *Lock) Acquire() {
	for {
		if asm.LoadAcquireExclusive32(&l.word) != 0 {
			asm.SpinHint()
			continue
		}
		if asm.StoreExclusive32(&l.word, 1) == 0 {
			return
		}
	}
}

// Release stores 0 to the lock word with release semantics.
func (l *Lock) Release() {
	asm.StoreRelease32(&l.word, 0)
}

// IRQGuard is the token returned by LockIRQSave. Release both unlocks the
// lock and restores the DAIF state captured at acquire time. The zero value
// is not meaningful; only a value returned by LockIRQSave should be used.
type IRQGuard struct {
	lock  *Lock
	saved uint64
}

// LockIRQSave masks IRQ and FIQ, then acquires l, and returns a guard whose
// Release performs unlock-irqrestore in the order spec.md §4.2 specifies:
// release the lock, then restore the previously-saved mask.
func LockIRQSave(l *Lock) IRQGuard {
	saved := asm.ReadDAIF()
	asm.MaskIRQFIQ()
	l.Acquire()
	return IRQGuard{lock: l, saved: saved}
}

// Release unlocks the guarded lock and restores the interrupt mask captured
// by LockIRQSave. Calling Release more than once on the same guard
// re-releases the lock and is a caller bug; it is not guarded against here,
// matching a plain mutex's single-unlock contract.
func (g IRQGuard) Release() {
	g.lock.Release()
	asm.WriteDAIF(g.saved)
}
