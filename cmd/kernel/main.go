// Command kernel is the bare-metal image for a Raspberry Pi 4 (BCM2711):
// the boot handoff point and the linear bring-up sequence that wires the
// four core subsystems together (spec.md §2's control-flow diagram):
// MMU on, scheduler data structures up, xHCI controller up, scheduler
// entered and never returns.
//
// This file is deliberately thin. Every interesting algorithm lives in
// internal/mmu, internal/sched, internal/xhci; this file only sequences
// their Init calls and prints one line per step, plus any failure, through
// console.WriteString. The subsystems themselves print nothing.
package main

import (
	"raspi4core/internal/console"
	"raspi4core/internal/memmap"
	"raspi4core/internal/mmu"
	"raspi4core/internal/sched"
	"raspi4core/internal/xhci"
)

// KernelMain is the first Go-callable function in the image (spec.md §6's
// platform entry contract). It is entered at EL1, caches and MMU disabled,
// on a valid stack set up by boot_arm64.s; BSS is already zeroed by the
// same boot stub. dtbPtr may be zero — this kernel does not parse the
// device tree, it only carries the pointer for a future, out-of-scope
// consumer.
//
//go:noinline
func KernelMain(dtbPtr uintptr) {
	console.WriteString("raspi4core: boot, dtb=")
	console.WriteHex64(uint64(dtbPtr))
	console.WriteString("\n")

	console.WriteString("raspi4core: mmu init... ")
	if err := mmu.Init(); err != nil {
		console.Panic("mmu.Init: " + err.Error())
	}
	console.WriteString("ok, mmu+caches enabled\n")

	console.WriteString("raspi4core: sched init... ")
	sched.Init()
	sched.InitCPU(0)
	console.WriteString("ok, idle task created for cpu0\n")

	console.WriteString("raspi4core: xhci init @ ")
	console.WriteHex64(uint64(memmap.XHCIBase))
	console.WriteString("... ")
	ctrl := xhci.New(memmap.XHCIBase)
	if err := ctrl.Init(); err != nil {
		// Hardware-error per spec.md §7: xhci bring-up failing leaves
		// Initialized() false but is not itself fatal to the rest of the
		// kernel, since USB is not required to reach a running scheduler.
		console.WriteString("failed: " + err.Error() + "\n")
	} else {
		console.WriteString("ok, ")
		reportPorts(ctrl)
	}

	console.WriteString("raspi4core: entering scheduler\n")
	sched.Schedule()

	// Schedule never returns on a correctly initialized idle task; reaching
	// here means the idle task's WaitForEvent loop exited, which can only
	// happen from memory corruption. Programmer-error per spec.md §7.
	console.Panic("schedule() returned to kernel_main")
}

func reportPorts(ctrl *xhci.Controller) {
	console.WriteString("max-slots=")
	console.WriteHex32(uint32(ctrl.MaxSlots()))
	console.WriteString(" max-ports=")
	console.WriteHex32(uint32(ctrl.MaxPorts()))
	console.WriteString("\n")

	for i, p := range ctrl.Ports() {
		if !p.Connected {
			continue
		}
		console.WriteString("raspi4core: port ")
		console.WriteHex32(uint32(i + 1))
		console.WriteString(" connected, speed=" + p.Speed.String() + "\n")
	}
}

// main is never called: this image has no Go runtime scheduler driving
// goroutines and no os.Exit to return to. It exists only so `package main`
// type-checks as a command; boot_arm64.s calls KernelMain directly.
func main() {}
