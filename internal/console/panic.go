package console

import "raspi4core/asm"

// Panic emits a diagnostic line and halts forever in a wait-for-event loop.
// Per spec.md §7/§6, this is the kernel's only unrecoverable-error path:
// no crash dump, no reboot, no recovery.
func Panic(msg string) {
	WriteString("\n!!! KERNEL PANIC -- system halted !!!\n")
	WriteString(msg)
	WriteString("\n")
	Halt()
}

// Halt parks the current CPU in WaitForEvent forever.
func Halt() {
	for {
		asm.WaitForEvent()
	}
}
