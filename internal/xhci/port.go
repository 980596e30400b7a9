package xhci

// Speed enumerates the USB signaling speeds PORTSC reports, as decoded by
// the port-scan step (spec.md §4.5 step 9).
type Speed int

const (
	SpeedUnknown Speed = iota
	SpeedFullSpeed
	SpeedLowSpeed
	SpeedHighSpeed
	SpeedSuperSpeed
	SpeedSuperSpeedPlus
)

func (s Speed) String() string {
	switch s {
	case SpeedFullSpeed:
		return "full-speed"
	case SpeedLowSpeed:
		return "low-speed"
	case SpeedHighSpeed:
		return "high-speed"
	case SpeedSuperSpeed:
		return "super-speed"
	case SpeedSuperSpeedPlus:
		return "super-speed-plus"
	default:
		return "unknown"
	}
}

// PortStatus is the decoded state of one root-hub port after the port-scan
// step.
type PortStatus struct {
	Connected bool
	PowerOn   bool
	Speed     Speed
}

const (
	portSCPortSpeedShift = 10
	portSCPortSpeedMask  = 0xF
)

func decodePortStatus(v uint32) PortStatus {
	return PortStatus{
		Connected: v&portSCCCS != 0,
		PowerOn:   v&portSCPP != 0,
		Speed:     decodeSpeed((v >> portSCPortSpeedShift) & portSCPortSpeedMask),
	}
}

// decodeSpeed maps the xHCI PSI default speed IDs (Table 5-20 in xHCI 1.2)
// to Speed. BCM2711's VL805 doesn't expose the extended Supported Protocol
// Capability this kernel would need to resolve PSIs beyond the defaults, so
// only the default mapping is implemented.
func decodeSpeed(psi uint32) Speed {
	switch psi {
	case 1:
		return SpeedFullSpeed
	case 2:
		return SpeedLowSpeed
	case 3:
		return SpeedHighSpeed
	case 4:
		return SpeedSuperSpeed
	case 5:
		return SpeedSuperSpeedPlus
	default:
		return SpeedUnknown
	}
}
