package xhci

// fakeRegs is an in-memory Regs implementation used to drive the bring-up
// state machine in tests without touching real MMIO — the same split the
// teacher draws between pure arithmetic (page.go) and asm.* calls (mmu.go).
type fakeRegs struct {
	mem map[uintptr]uint32
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{mem: make(map[uintptr]uint32)}
}

func (r *fakeRegs) Read8(off uintptr) uint8   { return uint8(r.mem[off]) }
func (r *fakeRegs) Read32(off uintptr) uint32 { return r.mem[off] }
func (r *fakeRegs) Write32(off uintptr, v uint32) {
	r.mem[off] = v
}
func (r *fakeRegs) Write64(off uintptr, v uint64) {
	r.mem[off] = uint32(v)
	r.mem[off+4] = uint32(v >> 32)
}

func (r *fakeRegs) set32(off uintptr, v uint32) { r.mem[off] = v }
