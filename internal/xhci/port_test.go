package xhci

import "testing"

func TestDecodePortStatus(t *testing.T) {
	cases := []struct {
		name string
		v    uint32
		want PortStatus
	}{
		{"empty", 0, PortStatus{Speed: SpeedUnknown}},
		{"connected+powered+superspeed", portSCCCS | portSCPP | (4 << portSCPortSpeedShift),
			PortStatus{Connected: true, PowerOn: true, Speed: SpeedSuperSpeed}},
		{"powered only, high-speed", portSCPP | (3 << portSCPortSpeedShift),
			PortStatus{PowerOn: true, Speed: SpeedHighSpeed}},
		{"unrecognized PSI", portSCCCS | (9 << portSCPortSpeedShift),
			PortStatus{Connected: true, Speed: SpeedUnknown}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := decodePortStatus(c.v); got != c.want {
				t.Errorf("decodePortStatus(0x%x) = %+v, want %+v", c.v, got, c.want)
			}
		})
	}
}

func TestSpeedString(t *testing.T) {
	if got := SpeedSuperSpeedPlus.String(); got != "super-speed-plus" {
		t.Errorf("String() = %q", got)
	}
	if got := SpeedUnknown.String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}

func TestPortSCOffset(t *testing.T) {
	if got := portSCOffset(1); got != portSCBase {
		t.Errorf("portSCOffset(1) = 0x%x, want 0x%x", got, portSCBase)
	}
	if got := portSCOffset(2); got != portSCBase+portSCStep {
		t.Errorf("portSCOffset(2) = 0x%x, want 0x%x", got, portSCBase+portSCStep)
	}
}
