package sched

import (
	"errors"
	"unsafe"

	"raspi4core/asm"
	"raspi4core/internal/cpu"
	"raspi4core/internal/heap"
	"raspi4core/internal/memmap"
	"raspi4core/internal/spinlock"
)

// ErrOutOfMemory is returned by TaskCreate when the kernel heap has no
// room for the task structure or its kernel stack (spec.md §7,
// resource-exhaustion).
var ErrOutOfMemory = errors.New("sched: out of memory")

// ErrNoIdleTask is the fatal condition spec.md §4.4 calls out: scheduling
// before the idle task exists.
var ErrNoIdleTask = errors.New("sched: schedule called before idle task created")

const (
	kernelStackSize = 16 * 1024
	idleStackSize   = 4096

	// userStackSize is the "large, multi-megabyte" stack spec.md §4.4
	// allocates for a task whose entry point lies above the kernel image.
	userStackSize = 2 * 1024 * 1024

	// spsrEL1AllMasked is SPSR_EL1 for a freshly created task: EL1h, DAIF
	// all masked (spec.md §9 Open Question 2). The task unmasks interrupts
	// itself once ready to be preempted.
	spsrEL1AllMasked = 0x3C5
)

// PerCPUState is the scheduler state for one CPU (spec.md §3).
type PerCPUState struct {
	lock    spinlock.Lock
	queue   RunQueue
	current *Task
	idle    *Task
	index   int

	scheduleCount uint64

	idleTaskMem  [unsafe.Sizeof(Task{})]byte
	idleStackMem [idleStackSize]byte
}

var perCPU [cpu.MaxCPUs]PerCPUState

var nextPID int

// Init allocates per-CPU state. It creates no tasks — sched_init_cpu does
// that, per spec.md §4.4's two-phase initialization.
func Init() {
	heap.Init()
	for i := range perCPU {
		perCPU[i] = PerCPUState{index: i}
	}
}

// InitCPU creates the idle task for CPU i, using statically-reserved
// storage rather than the heap: heap lock acquisition could race with the
// interrupt subsystem this early in boot (spec.md §4.4).
func InitCPU(i int) {
	pc := &perCPU[i]
	idle := (*Task)(unsafe.Pointer(&pc.idleTaskMem[0]))
	*idle = Task{}
	idle.Priority = 0
	idle.State = Ready
	idle.cpu = i
	idle.setName("idle")
	idle.Entry = entryAddr(idleLoop)
	idle.KernelStackBase = uintptr(unsafe.Pointer(&pc.idleStackMem[0]))
	idle.KernelStackSize = idleStackSize
	idle.StackTop = idle.KernelStackBase + idleStackSize

	pc.idle = idle
}

func idleLoop() {
	for {
		asm.WaitForEvent()
	}
}

// TaskCreate allocates a task in the Ready state and enqueues it on exactly
// one CPU's run queue: the lowest-index CPU set in affinity, or the
// creating CPU if affinity is 0 (spec.md §4.4, §8 property law 1).
//
// A user stack is allocated only if entry's address lies above the kernel
// image; this kernel has no notion of a user/kernel split in its address
// space beyond that check, since full userspace support is out of scope.
func TaskCreate(name string, entry func(), priority uint8, affinity uint32) (*Task, error) {
	taskMem := heap.Alloc(unsafe.Sizeof(Task{}))
	if taskMem == nil {
		return nil, ErrOutOfMemory
	}
	stackMem := heap.Alloc(kernelStackSize)
	if stackMem == nil {
		return nil, ErrOutOfMemory
	}

	t := (*Task)(taskMem)
	t.setName(name)
	t.Entry = entryAddr(entry)
	t.Priority = priority
	t.Affinity = affinity
	t.State = Ready
	t.Started = false
	t.KernelStackBase = uintptr(stackMem)
	t.KernelStackSize = kernelStackSize
	t.StackTop = t.KernelStackBase + kernelStackSize

	if isUserEntry(t.Entry) {
		userStack := heap.Alloc(userStackSize)
		if userStack == nil {
			heap.Free(taskMem)
			heap.Free(stackMem)
			return nil, ErrOutOfMemory
		}
		t.UserStackTop = uintptr(userStack) + userStackSize
	}

	target := targetCPU(affinity)
	t.cpu = target
	t.PID = nextPID
	nextPID++

	pc := &perCPU[target]
	guard := spinlock.LockIRQSave(&pc.lock)
	pc.queue.Add(t)
	guard.Release()

	return t, nil
}

// isUserEntry reports whether pc lies above the kernel's static image, this
// kernel's simplified stand-in for "the entry point is in user address
// space" (spec.md §4.4) given there is no real per-task address space.
func isUserEntry(pc uintptr) bool {
	return pc > memmap.KernelImageEnd()
}

func targetCPU(affinity uint32) int {
	if affinity == 0 {
		return cpu.Index()
	}
	for i := 0; i < cpu.MaxCPUs; i++ {
		if affinity&(1<<uint(i)) != 0 {
			return i
		}
	}
	return cpu.Index()
}

// Schedule picks the next task to run on the current CPU and switches to
// it. Must be called with IRQs disabled or from a safe context (spec.md
// §4.4). Panics if InitCPU has not yet run for this CPU.
func Schedule() {
	pc := &perCPU[cpu.Index()]
	if pc.idle == nil {
		panic(ErrNoIdleTask)
	}

	guard := spinlock.LockIRQSave(&pc.lock)

	prev := pc.current
	next := pc.queue.PickNext()
	if next == nil {
		next = pc.idle
	}

	if prev != nil && prev.State == Running {
		prev.State = Ready
	}
	next.State = Running
	pc.current = next
	pc.scheduleCount++

	guard.Release()

	if prev == next {
		return
	}

	contextSwitch(prev, next)
}

// contextSwitch performs the register save/restore or first-run ERET
// (spec.md §4.4's "heart of the kernel"). Exactly one of the two asm
// primitives below is called.
func contextSwitch(prev, next *Task) {
	var prevSP *uintptr
	if prev != nil {
		prevSP = &prev.StackTop
	}

	if !next.Started {
		next.Started = true
		asm.EnterTask(prevSP, next.StackTop, next.Entry, next.UserStackTop, spsrEL1AllMasked)
		return
	}

	asm.ContextSwitch(prevSP, next.StackTop)
}

// Yield is a thin wrapper around Schedule.
func Yield() {
	Schedule()
}

// TaskBlock sets the current task's state and calls Schedule, returning
// only once this task has been rescheduled to run again.
func TaskBlock(state State) {
	pc := &perCPU[cpu.Index()]
	guard := spinlock.LockIRQSave(&pc.lock)
	pc.current.State = state
	guard.Release()
	Schedule()
}

// TaskWakeup moves a Blocked task to Ready. If it lives on a different
// CPU's run queue, an IPI_RESCHEDULE would be sent there (the interrupt
// controller needed to deliver it is out of scope for this core; SendEvent
// wakes a CPU parked in WaitForEvent in the meantime).
func TaskWakeup(t *Task) {
	pc := &perCPU[t.cpu]
	guard := spinlock.LockIRQSave(&pc.lock)
	t.State = Ready
	guard.Release()

	if t.cpu != cpu.Index() {
		asm.SendEvent()
	}
}
