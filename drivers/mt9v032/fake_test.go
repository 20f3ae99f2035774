package mt9v032

import (
	"errors"
	"testing"
)

type busOp struct {
	Write bool
	Reg   uint8
	Val   uint16
}

func rd(reg uint8, v uint16) busOp { return busOp{Reg: reg, Val: v} }
func wr(reg uint8, v uint16) busOp { return busOp{Write: true, Reg: reg, Val: v} }

var errNAK = errors.New("i2c: nak")

// fakeBus is a recording register file behind drivers.I2C.
type fakeBus struct {
	addr  uint16
	regs  map[uint8]uint16
	trace []busOp
	// failAt makes the n-th transfer (1-based) fail; 0 disables.
	failAt int
	n      int
}

func newFakeBus(version uint16) *fakeBus {
	return &fakeBus{addr: AddressDefault, regs: map[uint8]uint16{regChipVersion: version}}
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.n++
	if addr != b.addr {
		return errNAK
	}
	if b.failAt != 0 && b.n == b.failAt {
		return errNAK
	}
	switch {
	case len(w) == 1 && len(r) == 2:
		v := b.regs[w[0]]
		r[0], r[1] = byte(v>>8), byte(v)
		b.trace = append(b.trace, rd(w[0], v))
	case len(w) == 3 && len(r) == 0:
		v := uint16(w[1])<<8 | uint16(w[2])
		b.regs[w[0]] = v
		b.trace = append(b.trace, wr(w[0], v))
	default:
		return errNAK
	}
	return nil
}

func (b *fakeBus) reset() { b.trace = nil }

type fakeClock struct {
	on       bool
	enables  int
	disables int
	closed   bool
	failOn   error
}

func (c *fakeClock) Enable() error {
	if c.failOn != nil {
		return c.failOn
	}
	c.on = true
	c.enables++
	return nil
}

func (c *fakeClock) Disable() error {
	c.on = false
	c.disables++
	return nil
}

func (c *fakeClock) Close() error {
	c.closed = true
	return nil
}

func newTestDevice(t *testing.T, version uint16, mut func(*Config)) (*Device, *fakeBus, *fakeClock) {
	t.Helper()
	bus := newFakeBus(version)
	clk := &fakeClock{}
	cfg := DefaultConfig()
	if mut != nil {
		mut(&cfg)
	}
	bus.addr = cfg.Address
	d, err := New(bus, clk, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, bus, clk
}

// replayTrace is the control replay with default values.
var replayTrace = []busOp{
	wr(regAECAGCEnable, 3),
	wr(regAnalogGain, 16),
	wr(regAECAGCEnable, 3),
	wr(regTotalShutterWidth, 480),
	wr(regTestPattern, 0),
}

func powerOnTrace(version uint16) []busOp {
	tr := []busOp{
		rd(regChipVersion, version),
		wr(regReset, 1),
		wr(regReset, 0),
		wr(regChipControl, 0),
		wr(regRowNoiseCorrControl, 0),
	}
	return append(tr, replayTrace...)
}
