package xhci

import "errors"

// Error kinds from spec.md §7, surfaced as distinct sentinels rather than
// one generic "init failed" value so callers (and tests) can tell a
// vanished device apart from a timeout or a misconfigured build.
var (
	// ErrCapabilitiesUnavailable: CAPLENGTH out of [0x10, 0x40] — memory
	// space isn't enabled, likely a BAR/ATU mismatch.
	ErrCapabilitiesUnavailable = errors.New("xhci: CAPLENGTH out of range, memory space not enabled")

	// ErrDeviceVanished: a register read returned all-ones.
	ErrDeviceVanished = errors.New("xhci: register read-back all-ones, device vanished")

	// ErrResetTimeout: HCH or HCRST/CNR did not settle within the bounded
	// poll.
	ErrResetTimeout = errors.New("xhci: timed out waiting for controller reset")

	// ErrRunTimeout: HCH did not clear after setting RS.
	ErrRunTimeout = errors.New("xhci: timed out waiting for controller to leave halted state")

	// ErrSystemError: USBSTS.HSE was observed set.
	ErrSystemError = errors.New("xhci: host system error (HSE), likely a DMA pointer or alignment fault")

	// ErrTooManyScratchpads: scratchpad count exceeds the fixed array
	// bound backing the static DMA region. Programmer error (spec.md §7):
	// this indicates a build-system/link-script mismatch, not a runtime
	// condition.
	ErrTooManyScratchpads = errors.New("xhci: scratchpad count exceeds fixed array bound")
)
