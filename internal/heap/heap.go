// Package heap is the kernel's own allocator: a best-fit free-list over a
// statically reserved arena, guarded by one spinlock (spec.md §5: "the heap
// is shared process-wide behind one spinlock"). internal/sched uses it for
// task structures and kernel stacks; internal/dma's scratchpad pool goes
// through tamago's allocator instead, since those pages need cache
// maintenance this arena doesn't provide.
package heap

import (
	"unsafe"

	"raspi4core/asm"
	"raspi4core/internal/spinlock"
)

const (
	alignment = 16
	arenaSize = 16 * 1024 * 1024
)

// segment is the doubly-linked free-list node placed at the head of every
// block, allocated or free.
type segment struct {
	next      *segment
	prev      *segment
	allocated bool
	size      uint32 // total size including this header
}

var (
	arena [arenaSize]byte
	lock  spinlock.Lock
	head  *segment
)

// Init sets up the arena as one large free segment. Must run once, before
// the first Alloc.
func Init() {
	guard := spinlock.LockIRQSave(&lock)
	defer guard.Release()

	head = (*segment)(unsafe.Pointer(&arena[0]))
	asm.Bzero(unsafe.Pointer(head), uintptr(unsafe.Sizeof(segment{})))
	head.size = uint32(arenaSize)
}

// Alloc returns a zeroed, alignment-byte-aligned block of at least size
// bytes, or nil if the arena has no free segment large enough (spec.md §7's
// resource-exhaustion error kind — a sentinel, not a panic).
func Alloc(size uintptr) unsafe.Pointer {
	guard := spinlock.LockIRQSave(&lock)
	defer guard.Release()

	headerSize := (unsafe.Sizeof(segment{}) + alignment - 1) &^ (alignment - 1)
	need := uint32(headerSize + size)
	if rem := need % alignment; rem != 0 {
		need += alignment - rem
	}

	var best *segment
	for s := head; s != nil; s = s.next {
		if s.allocated || s.size < need {
			continue
		}
		if best == nil || s.size < best.size {
			best = s
		}
	}
	if best == nil {
		return nil
	}

	const minSplitRemainder = 64
	if best.size-need >= minSplitRemainder {
		splitAddr := uintptr(unsafe.Pointer(best)) + uintptr(need)
		split := (*segment)(unsafe.Pointer(splitAddr))
		split.next = best.next
		split.prev = best
		split.allocated = false
		split.size = best.size - need
		if split.next != nil {
			split.next.prev = split
		}
		best.next = split
		best.size = need
	}

	best.allocated = true
	dataAddr := uintptr(unsafe.Pointer(best)) + headerSize
	data := unsafe.Pointer(dataAddr)
	asm.Bzero(data, uintptr(best.size)-headerSize)
	return data
}

// Free releases a block previously returned by Alloc and coalesces it with
// an adjacent free neighbor where possible.
func Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	guard := spinlock.LockIRQSave(&lock)
	defer guard.Release()

	headerSize := (unsafe.Sizeof(segment{}) + alignment - 1) &^ (alignment - 1)
	s := (*segment)(unsafe.Pointer(uintptr(ptr) - headerSize))
	s.allocated = false

	if s.next != nil && !s.next.allocated {
		s.size += s.next.size
		s.next = s.next.next
		if s.next != nil {
			s.next.prev = s
		}
	}
	if s.prev != nil && !s.prev.allocated {
		s.prev.size += s.size
		s.prev.next = s.next
		if s.next != nil {
			s.next.prev = s.prev
		}
	}
}
