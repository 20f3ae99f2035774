// Package mt9v032 drives the MT9V032/MT9V034 1/3" WVGA global-shutter CMOS
// sensors over I2C.
//
// The driver owns the control plane only: power sequencing, the capture
// window (crop), output format with binning, the five image controls and
// stream start/stop. Pixel data leaves the sensor on a parallel bus that a
// separate receiver captures.
//
// Design notes:
//   - Register words are 16 bits, sent big-endian after an 8-bit index.
//   - CHIP_CONTROL and AEC_AGC_ENABLE are written only through shadow
//     copies, so flag updates never need a bus read.
//   - Power is reference counted. The first Power(true) enables the
//     master clock, probes CHIP_VERSION, resets the part and replays the
//     cached controls; the last Power(false) stops streaming and gates the
//     clock.
//   - Every exported method takes the device lock for its whole duration,
//     so bus sequences are never interleaved.
package mt9v032

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Model selects the part family.
type Model uint8

const (
	MT9V032 Model = iota
	MT9V034
)

func (m Model) String() string {
	switch m {
	case MT9V032:
		return "mt9v032"
	case MT9V034:
		return "mt9v034"
	}
	return "unknown"
}

// ParseModel accepts "mt9v032" or "mt9v034". Empty selects MT9V032.
func ParseModel(s string) (Model, bool) {
	switch s {
	case "", "mt9v032", "MT9V032":
		return MT9V032, true
	case "mt9v034", "MT9V034":
		return MT9V034, true
	}
	return 0, false
}

// Clock is the sensor's external master clock.
type Clock interface {
	Enable() error
	Disable() error
}

const (
	// Nominal master clock; the part accepts 13 to 27 MHz.
	MasterClockDefault = 26600 * physic.KiloHertz
	masterClockMin     = 13 * physic.MegaHertz
	masterClockMax     = 27 * physic.MegaHertz

	// Settle time between clock enable and the first register access.
	powerOnDelayDefault = time.Microsecond
)

type Config struct {
	Address          uint16           // 7-bit, default AddressDefault
	Model            Model            // part family, default MT9V032
	InvertPixelClock bool             // sample pixel data on the falling edge
	MasterClock      physic.Frequency // master clock rate, used for timing estimates
	PowerOnDelay     time.Duration    // wait after clock enable, >= 1µs
}

func DefaultConfig() Config {
	return Config{
		Address:      AddressDefault,
		Model:        MT9V032,
		MasterClock:  MasterClockDefault,
		PowerOnDelay: powerOnDelayDefault,
	}
}

// Validate checks ranges. Zero MasterClock and PowerOnDelay take defaults.
func (c Config) Validate() error {
	if c.Address == 0 || c.Address > 0x7F {
		return ErrInvalidArgument
	}
	if int(c.Model) >= len(models) {
		return ErrInvalidArgument
	}
	if c.MasterClock != 0 && (c.MasterClock < masterClockMin || c.MasterClock > masterClockMax) {
		return ErrInvalidArgument
	}
	if c.PowerOnDelay < 0 {
		return ErrInvalidArgument
	}
	return nil
}

// Device is one sensor instance.
type Device struct {
	mu sync.Mutex

	i2c   drivers.I2C
	clk   Clock
	addr  uint16
	cfg   Config
	model *modelParams

	powerCount int
	clkOn      bool
	absent     bool
	released   bool
	version    uint16

	chipControl uint16
	aecAgc      uint16
	streaming   bool

	active   padState
	try      *padState
	interval Fraction
	ctrls    controlValues

	// Reusable transfer buffers.
	w [3]byte
	r [2]byte
}

// New binds a sensor on i2c with its master clock. No bus traffic happens
// until the first Power(true).
func New(i2c drivers.I2C, clk Clock, cfg Config) (*Device, error) {
	if i2c == nil || clk == nil {
		return nil, ErrResource
	}
	if cfg.Address == 0 {
		cfg.Address = AddressDefault
	}
	if cfg.MasterClock == 0 {
		cfg.MasterClock = MasterClockDefault
	}
	if cfg.PowerOnDelay == 0 {
		cfg.PowerOnDelay = powerOnDelayDefault
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Device{
		i2c:      i2c,
		clk:      clk,
		addr:     cfg.Address,
		cfg:      cfg,
		model:    &models[cfg.Model],
		aecAgc:   aecEnable | agcEnable,
		active:   defaultPadState(),
		interval: FrameIntervalDefault,
		ctrls:    defaultControlValues(),
	}
	return d, nil
}

// Power adjusts the power reference count. Only the 0→1 and 1→0
// transitions touch the hardware; a failed transition leaves the count
// unchanged.
func (d *Device) Power(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setPower(on)
}

func (d *Device) setPower(on bool) error {
	if d.released {
		return ErrReleased
	}
	if on {
		if d.powerCount == 0 {
			if err := d.powerOn(); err != nil {
				return err
			}
		}
		d.powerCount++
		return nil
	}
	switch d.powerCount {
	case 0:
		return ErrUnbalancedPower
	case 1:
		stopErr := d.stopStream()
		if err := d.disableClock(); err != nil {
			return errors.Join(stopErr, err)
		}
		d.powerCount--
		return stopErr
	}
	d.powerCount--
	return nil
}

func (d *Device) powerOn() error {
	if d.absent {
		return ErrNotPresent
	}
	if !d.clkOn {
		if err := d.clk.Enable(); err != nil {
			return errors.Join(ErrResource, err)
		}
		d.clkOn = true
	}
	time.Sleep(d.cfg.PowerOnDelay)

	v, err := d.readWord(regChipVersion)
	if err != nil {
		return err
	}
	if !knownChipVersion(v) {
		glog.Errorf("mt9v032: unsupported chip version 0x%04x at 0x%02x", v, d.addr)
		d.absent = true
		_ = d.disableClock()
		return ErrNotPresent
	}
	if d.version != v {
		if m := modelForVersion(v); m != d.cfg.Model {
			glog.Warningf("mt9v032: probed %s (0x%04x), configured as %s", m, v, d.cfg.Model)
		}
		d.version = v
	}

	// Pulse the soft reset: logic and state machines.
	if err := d.writeWord(regReset, 1); err != nil {
		return err
	}
	if err := d.writeWord(regReset, 0); err != nil {
		return err
	}
	if err := d.writeWord(regChipControl, 0); err != nil {
		return err
	}
	d.chipControl = 0
	d.streaming = false

	if d.cfg.InvertPixelClock {
		if err := d.writeWord(d.model.pixelClockReg, pixelClockInvPxlClk); err != nil {
			return err
		}
	}
	if err := d.writeWord(regRowNoiseCorrControl, 0); err != nil {
		return err
	}
	return d.replayControls()
}

// stopStream clears the stream bits ahead of gating the clock. The shadow
// and state go idle even when the write fails.
func (d *Device) stopStream() error {
	if !d.streaming {
		return nil
	}
	err := d.writeChipControl(chipControlStreamBits, 0)
	d.chipControl &^= chipControlStreamBits
	d.streaming = false
	return err
}

func (d *Device) disableClock() error {
	if !d.clkOn {
		return nil
	}
	if err := d.clk.Disable(); err != nil {
		return errors.Join(ErrResource, err)
	}
	d.clkOn = false
	return nil
}

// Release frees the clock. The device must be powered down. Clocks that
// implement io.Closer are closed.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	if d.powerCount != 0 {
		return ErrPowered
	}
	if err := d.disableClock(); err != nil {
		return err
	}
	if c, ok := d.clk.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Join(ErrResource, err)
		}
	}
	d.released = true
	return nil
}

// PowerCount reports the current power reference count.
func (d *Device) PowerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.powerCount
}

// ChipVersion returns the last probed CHIP_VERSION, 0 before the first
// successful power-on.
func (d *Device) ChipVersion() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Model returns the configured part family.
func (d *Device) Model() Model { return d.cfg.Model }

// Address returns the 7-bit bus address.
func (d *Device) Address() uint16 { return d.addr }

// ReadRegister reads one register. The sensor must be powered.
func (d *Device) ReadRegister(reg uint8) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requirePower(); err != nil {
		return 0, err
	}
	return d.readWord(reg)
}

// WriteRegister writes one register. The sensor must be powered. Writes to
// CHIP_CONTROL and AEC_AGC_ENABLE go through their shadows.
func (d *Device) WriteRegister(reg uint8, val uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requirePower(); err != nil {
		return err
	}
	switch reg {
	case regChipControl:
		if err := d.writeChipControl(0xFFFF, val); err != nil {
			return err
		}
		d.streaming = val&chipControlOutputBits == chipControlOutputBits
		return nil
	case regAECAGCEnable:
		return d.writeAECAGC(0xFFFF, val)
	}
	return d.writeWord(reg, val)
}

func (d *Device) requirePower() error {
	if d.released {
		return ErrReleased
	}
	if d.powerCount == 0 {
		return ErrNotPowered
	}
	return nil
}
