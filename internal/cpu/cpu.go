// Package cpu exposes the single CPU-identification primitive the rest of
// the kernel needs: which core is running this code right now.
package cpu

import "raspi4core/asm"

// MaxCPUs bounds the per-CPU state arrays in internal/sched. The BCM2711
// has four Cortex-A72 cores.
const MaxCPUs = 4

// Index returns the lower 8 bits of MPIDR_EL1 (spec.md §6's cpu_index()
// contract) — on a Pi 4 this is the Aff0 field, the core number within the
// single cluster.
func Index() int {
	return int(asm.MPIDREL1() & 0xFF)
}
