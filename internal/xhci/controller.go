package xhci

import (
	"raspi4core/asm"
	"raspi4core/internal/dma"
	"raspi4core/internal/memmap"
	"raspi4core/internal/mmio"
)

// pollLimit bounds every register-settle loop below. There's no generic
// timer driver in this kernel (spec.md Non-goals), so "timeout" here means
// "gave up after this many polls" rather than a wall-clock deadline — ample
// in practice since each poll is a handful of cycles plus an MMIO round
// trip.
const pollLimit = 2_000_000

// Controller is one xHCI host controller instance (spec.md §3). All of its
// state is established once by Init and never mutated by the bring-up
// sequence again; runtime operation (device enumeration, transfers) is out
// of scope.
type Controller struct {
	regs Regs

	opBase uintptr
	rtBase uintptr
	dbBase uintptr

	caps capabilities

	region dma.StaticRegion
	pool   dma.ScratchpadPool

	cmdRing  commandRing
	evtRing  eventRing
	erstPhys uintptr
	evtPhys  uintptr

	ports []PortStatus

	initialized bool
}

// New constructs a Controller bound to the MMIO window at capBase, without
// touching hardware. Call Init to run the bring-up sequence.
func New(capBase uintptr) *Controller {
	return newController(hwRegs{base: capBase})
}

// newController is the constructor tests use to drive the exact same state
// machine against a fake Regs implementation instead of real MMIO.
func newController(regs Regs) *Controller {
	return &Controller{regs: regs}
}

// Init runs the nine-step bring-up sequence from spec.md §4.5 against real
// hardware, using the statically reserved DMA window memmap provides.
func (c *Controller) Init() error {
	return c.init(memmap.GetXHCIDMARegion())
}

// init is the hardware-independent core of bring-up: every register access
// goes through c.regs (the Regs interface) at an offset relative to the
// capability base, so tests drive the exact same state machine as real
// hardware via a fake.
func (c *Controller) init(window memmap.DMAWindow) error {
	caps, err := decodeCapabilities(c.regs)
	if err != nil {
		return err
	}
	c.caps = caps

	c.opBase = uintptr(caps.capLength)
	c.rtBase = uintptr(caps.rtsoff)
	c.dbBase = uintptr(caps.dboff)

	region, err := dma.NewStaticRegion(window)
	if err != nil {
		return err
	}
	c.region = region

	if err := c.reset(); err != nil {
		return err
	}
	if err := c.setupDCBAA(); err != nil {
		return err
	}
	c.setupCommandRing()
	if err := c.setupEventRing(); err != nil {
		return err
	}
	c.setupInterrupter()
	if err := c.run(); err != nil {
		return err
	}
	c.powerPorts()
	c.scanPorts()

	c.initialized = true
	return nil
}

// reset is step 2: if the controller isn't already halted, stop it and wait
// for USBSTS.HCH; then assert HCRST and wait for the controller to clear
// both HCRST and CNR, signaling it's ready to accept the rest of the
// sequence.
func (c *Controller) reset() error {
	sts := c.regs.Read32(c.opBase + regUSBSTS)
	if sts == 0xFFFFFFFF {
		return ErrDeviceVanished
	}
	if sts&stsHCH == 0 {
		c.regs.Write32(c.opBase+regUSBCMD, c.regs.Read32(c.opBase+regUSBCMD)&^cmdRS)

		halted := false
		for i := 0; i < pollLimit; i++ {
			sts = c.regs.Read32(c.opBase + regUSBSTS)
			if sts == 0xFFFFFFFF {
				return ErrDeviceVanished
			}
			if sts&stsHCH != 0 {
				halted = true
				break
			}
		}
		if !halted {
			return ErrResetTimeout
		}
	}

	c.regs.Write32(c.opBase+regUSBCMD, cmdHCRST)

	for i := 0; i < pollLimit; i++ {
		cmd := c.regs.Read32(c.opBase + regUSBCMD)
		sts := c.regs.Read32(c.opBase + regUSBSTS)
		if cmd == 0xFFFFFFFF || sts == 0xFFFFFFFF {
			return ErrDeviceVanished
		}
		if cmd&cmdHCRST == 0 && sts&stsCNR == 0 {
			return nil
		}
	}
	return ErrResetTimeout
}

// setupDCBAA is step 3: program CONFIG.MaxSlotsEn, populate the scratchpad
// array (if the controller wants scratchpad buffers) and DCBAAP, with
// DCBAA[0] pointing at the scratchpad array when non-empty.
func (c *Controller) setupDCBAA() error {
	c.regs.Write32(c.opBase+regCONFIG, uint32(c.caps.maxSlots))

	dcbaa := c.region.DCBAA()
	for i := uintptr(0); i < dcbaa.Size(); i += 8 {
		mmio.Write64(dcbaa.PhysAddr()+i, 0)
	}

	if c.caps.scratchpadCount > 0 {
		if uint16(dma.MaxScratchpadEntries) < c.caps.scratchpadCount {
			return ErrTooManyScratchpads
		}
		arr := c.region.ScratchpadArray()
		for i := uint16(0); i < c.caps.scratchpadCount; i++ {
			page := c.pool.AllocPage()
			mmio.Write64(arr.PhysAddr()+uintptr(i)*8, uint64(memmap.PhysAddrForDMA(page)))
		}
		mmio.Write64(dcbaa.PhysAddr(), uint64(memmap.PhysAddrForDMA(arr.PhysAddr())))
	}

	c.regs.Write64(c.opBase+regDCBAAP, uint64(memmap.PhysAddrForDMA(dcbaa.PhysAddr())))
	return nil
}

// setupCommandRing is step 4: lay out the command ring (Link TRB included)
// and program CRCR with the ring base and the initial Ring Cycle State.
func (c *Controller) setupCommandRing() {
	ring := c.region.CommandRing()
	c.cmdRing = newCommandRing(ring.PhysAddr(), ring.Size())
	const rcs = 1 << 0
	c.regs.Write64(c.opBase+regCRCR, uint64(memmap.PhysAddrForDMA(ring.PhysAddr()))|rcs)
}

// setupEventRing is step 5: lay out the single-segment event ring and write
// its one ERST entry. setupInterrupter then points ERSTBA/ERDP at them.
func (c *Controller) setupEventRing() error {
	evt := c.region.EventRing()
	c.evtRing = newEventRing(evt.PhysAddr(), evt.Size())
	c.evtPhys = evt.PhysAddr()

	erst := c.region.ERST()
	c.erstPhys = erst.PhysAddr()
	mmio.Write64(erst.PhysAddr()+0, uint64(memmap.PhysAddrForDMA(evt.PhysAddr())))
	mmio.Write32(erst.PhysAddr()+8, uint32(evt.Size()/trbSize))
	mmio.Write32(erst.PhysAddr()+12, 0)
	return nil
}

// setupInterrupter is step 6: program interrupter 0's ERSTSZ/ERSTBA/ERDP,
// set the moderation interval, and enable it.
func (c *Controller) setupInterrupter() {
	base := c.rtBase + interrupter0
	c.regs.Write32(base+regERSTSZ, 1)
	c.regs.Write64(base+regERSTBA, uint64(memmap.PhysAddrForDMA(c.erstPhys)))
	c.regs.Write64(base+regERDP, uint64(memmap.PhysAddrForDMA(c.evtRing.DequeuePointer()))|erdpEHB)

	// 1ms moderation interval and counter.
	const imodDefault = 0x0FA00FA0
	c.regs.Write32(base+regIMOD, imodDefault)

	// IP (write-1-to-clear) and IE.
	const imanIP = 1 << 0
	const imanIE = 1 << 1
	c.regs.Write32(base+regIMAN, imanIP|imanIE)

	asm.Dsb()
	asm.Isb()

	// Defensive: some controllers latch ERSTSZ only after ERSTBA/ERDP settle.
	c.regs.Write32(base+regERSTSZ, 1)
}

// run is step 7: set USBCMD.RS and wait for USBSTS.HCH to clear.
func (c *Controller) run() error {
	c.regs.Write32(c.opBase+regUSBCMD, cmdRS|cmdINTE|cmdHSEE)

	for i := 0; i < pollLimit; i++ {
		sts := c.regs.Read32(c.opBase + regUSBSTS)
		if sts == 0xFFFFFFFF {
			return ErrDeviceVanished
		}
		if sts&stsHSE != 0 {
			return ErrSystemError
		}
		if sts&stsHCH == 0 {
			return nil
		}
	}
	return ErrRunTimeout
}

// portSCOffset returns the operational-register offset of PORTSC for the
// 1-indexed port n.
func portSCOffset(n int) uintptr {
	return portSCBase + uintptr(n-1)*portSCStep
}

// powerPorts is step 8: set Port Power on every implemented port. PORTSC's
// RsvdZ/write-1-to-clear layout means we must read-modify-write rather than
// blindly writing PP, or we'd also clear pending change bits and deassert
// other live fields.
func (c *Controller) powerPorts() {
	for n := 1; n <= int(c.caps.maxPorts); n++ {
		off := c.opBase + portSCOffset(n)
		v := c.regs.Read32(off)
		if v&portSCPP != 0 {
			continue
		}
		v &^= portSCChangeMask
		v |= portSCPP
		c.regs.Write32(off, v)
	}
	asm.Delay(20_000)
}

// scanPorts is step 9 (spec.md's supplemented feature): read back each
// port's PORTSC and record its connect status and speed.
func (c *Controller) scanPorts() {
	c.ports = make([]PortStatus, c.caps.maxPorts)
	for n := 1; n <= int(c.caps.maxPorts); n++ {
		v := c.regs.Read32(c.opBase + portSCOffset(n))
		c.ports[n-1] = decodePortStatus(v)
	}
}

// Ports returns the result of the last port scan.
func (c *Controller) Ports() []PortStatus { return c.ports }

// MaxSlots, MaxPorts and Is64BitCapable expose the decoded capability
// registers callers outside this package may need (device-context sizing,
// enumeration bounds).
func (c *Controller) MaxSlots() uint8    { return c.caps.maxSlots }
func (c *Controller) MaxPorts() uint8    { return c.caps.maxPorts }
func (c *Controller) Is64BitCapable() bool { return c.caps.ac64 }
func (c *Controller) Initialized() bool  { return c.initialized }
