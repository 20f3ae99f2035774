// services/hal/internal/platform/sim.go
package platform

import (
	"errors"
	"sync"

	"github.com/golang/glog"
)

// ErrSimNAK is returned by SimSensor for transfers it does not acknowledge.
var ErrSimNAK = errors.New("sim: i2c nak")

// Register indices the simulator gives behaviour to.
const (
	simRegChipVersion = 0x00
	simRegReset       = 0x0C
	simRegAnalogGain  = 0x35
	simRegShutter     = 0x0B
	simRegAECAGC      = 0xAF
)

// SimSensor is a register-file image sensor on a simulated I²C bus. It
// speaks the 8-bit index, 16-bit big-endian word protocol and answers only
// at its own address.
type SimSensor struct {
	mu      sync.Mutex
	addr    uint16
	version uint16
	regs    [256]uint16
	txs     int
}

func NewSimSensor(addr, version uint16) *SimSensor {
	s := &SimSensor{addr: addr, version: version}
	s.reset()
	return s
}

func (s *SimSensor) reset() {
	s.regs = [256]uint16{}
	s.regs[simRegChipVersion] = s.version
	s.regs[simRegShutter] = 480
	s.regs[simRegAnalogGain] = 16
	s.regs[simRegAECAGC] = 3
}

// Tx implements drivers.I2C.
func (s *SimSensor) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs++
	if addr != s.addr || len(w) == 0 {
		return ErrSimNAK
	}
	reg := w[0]
	switch {
	case len(w) == 1 && len(r) == 2:
		v := s.regs[reg]
		r[0], r[1] = byte(v>>8), byte(v)
	case len(w) == 3 && len(r) == 0:
		v := uint16(w[1])<<8 | uint16(w[2])
		if reg == simRegChipVersion {
			return nil // read-only
		}
		s.regs[reg] = v
		if reg == simRegReset && v&1 != 0 {
			s.reset()
			s.regs[simRegReset] = v
		}
	default:
		return ErrSimNAK
	}
	if glog.V(3) {
		glog.Infof("sim: addr 0x%02x reg 0x%02x w=%d r=%d", addr, reg, len(w), len(r))
	}
	return nil
}

// Reg returns the current value of register reg.
func (s *SimSensor) Reg(reg uint8) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// Transfers counts bus transactions, failed ones included.
func (s *SimSensor) Transfers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs
}

// SimClock is a gateable master clock that only records its state.
type SimClock struct {
	mu      sync.Mutex
	on      bool
	enables int
}

func (c *SimClock) Enable() error {
	c.mu.Lock()
	c.on = true
	c.enables++
	c.mu.Unlock()
	return nil
}

func (c *SimClock) Disable() error {
	c.mu.Lock()
	c.on = false
	c.mu.Unlock()
	return nil
}

// Running reports whether the clock is enabled.
func (c *SimClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

// Enables counts Enable calls.
func (c *SimClock) Enables() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enables
}
