package xhci

import "raspi4core/internal/bitfield"

// hcsparams1 decodes HCSPARAMS1 (spec.md §4.5 step 1).
type hcsparams1 struct {
	MaxSlots        uint8  `bitfield:",8"`
	MaxIntrs        uint16 `bitfield:",11"`
	_reserved       uint8  `bitfield:",5"`
	MaxPorts        uint8  `bitfield:",8"`
}

// hcsparams2 decodes HCSPARAMS2. The scratchpad-buffer count is split
// across two non-adjacent fields (hi<<5 | lo); bitfield.Unpack reads them
// as separate fields and the caller combines them, rather than teaching the
// generic packer about a single field that isn't a contiguous bit range.
type hcsparams2 struct {
	IST                 uint8  `bitfield:",4"`
	ERSTMax             uint8  `bitfield:",4"`
	_reserved           uint16 `bitfield:",13"`
	MaxScratchpadHi     uint8  `bitfield:",5"`
	SPR                 bool   `bitfield:",1"`
	MaxScratchpadLo     uint8  `bitfield:",5"`
}

// hccparams1 decodes HCCPARAMS1.
type hccparams1 struct {
	AC64 bool `bitfield:",1"`
	BNC  bool `bitfield:",1"`
	CSZ  bool `bitfield:",1"`
}

// capabilities is the fully decoded set of registers spec.md §4.5 step 1
// reads, independent of how they were obtained (real hardware or a test
// fake).
type capabilities struct {
	capLength      uint8
	hciVersion     uint16
	maxSlots       uint8
	maxIntrs       uint16
	maxPorts       uint8
	scratchpadCount uint16
	ac64           bool
	csz            bool
	rtsoff         uint32
	dboff          uint32
}

func decodeCapabilities(regs Regs) (capabilities, error) {
	// CAPLENGTH and HCIVERSION share the first 32-bit word (CAPLENGTH in the
	// low byte, HCIVERSION in the high 16 bits); a standalone Read32 at
	// regHCIVERSION (offset 0x02) would be a misaligned access, which faults
	// on the Device-nGnRnE capability window regardless of SCTLR.A.
	word0 := regs.Read32(regCAPLENGTH)
	capLength := uint8(word0)
	if capLength < 0x10 || capLength > 0x40 {
		return capabilities{}, ErrCapabilitiesUnavailable
	}

	var c capabilities
	c.capLength = capLength
	c.hciVersion = uint16(word0 >> 16)

	var p1 hcsparams1
	if err := bitfield.Unpack(uint64(regs.Read32(regHCSPARAMS1)), &p1, &bitfield.Config{NumBits: 32}); err != nil {
		return capabilities{}, err
	}
	c.maxSlots = p1.MaxSlots
	c.maxIntrs = p1.MaxIntrs
	c.maxPorts = p1.MaxPorts

	var p2 hcsparams2
	if err := bitfield.Unpack(uint64(regs.Read32(regHCSPARAMS2)), &p2, &bitfield.Config{NumBits: 32}); err != nil {
		return capabilities{}, err
	}
	c.scratchpadCount = uint16(p2.MaxScratchpadHi)<<5 | uint16(p2.MaxScratchpadLo)

	var cc1 hccparams1
	if err := bitfield.Unpack(uint64(regs.Read32(regHCCPARAMS1)), &cc1, &bitfield.Config{NumBits: 32}); err != nil {
		return capabilities{}, err
	}
	c.ac64 = cc1.AC64
	c.csz = cc1.CSZ

	c.rtsoff = regs.Read32(regRTSOFF) &^ 0x1F
	c.dboff = regs.Read32(regDBOFF) &^ 0x3

	return c, nil
}
