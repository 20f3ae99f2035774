// services/hal/internal/platform/factories_periph.go
//go:build linux && periph

package platform

import (
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"camcode-go/services/hal/internal/halcore"
	"camcode-go/types"

	"tinygo.org/x/drivers"
)

// ClockFixed names a free-running oscillator that needs no gating.
const ClockFixed = "fixed"

var (
	hostOnce sync.Once
	hostErr  error
)

func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = err
			glog.Errorf("platform: periph host init: %v", err)
		}
	})
	return hostErr
}

// periphI2CFactory opens Linux I²C buses by periph name ("1", "/dev/i2c-1",
// "I2C1") on first use. periph's i2c.Bus already has the Tx shape
// drivers.I2C wants.
type periphI2CFactory struct {
	mu    sync.Mutex
	buses map[string]i2c.BusCloser
}

func (f *periphI2CFactory) ByID(id string) (drivers.I2C, bool) {
	if initHost() != nil {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.buses[id]; ok {
		return b, true
	}
	b, err := i2creg.Open(id)
	if err != nil {
		glog.Warningf("platform: open i2c %q: %v", id, err)
		return nil, false
	}
	f.buses[id] = b
	return b, true
}

func DefaultI2CFactory() halcore.I2CBusFactory {
	return &periphI2CFactory{buses: map[string]i2c.BusCloser{}}
}

type fixedClock struct{}

func (fixedClock) Enable() error  { return nil }
func (fixedClock) Disable() error { return nil }

// gpioClock gates an external oscillator through its enable pin.
type gpioClock struct {
	pin gpio.PinOut
}

func (c gpioClock) Enable() error  { return c.pin.Out(gpio.High) }
func (c gpioClock) Disable() error { return c.pin.Out(gpio.Low) }

type periphClockFactory struct{}

// ByID returns the always-on clock for "fixed"; any other id names the
// GPIO that enables the oscillator.
func (periphClockFactory) ByID(id string) (halcore.Clock, bool) {
	if id == ClockFixed || id == "" {
		return fixedClock{}, true
	}
	if initHost() != nil {
		return nil, false
	}
	p := gpioreg.ByName(id)
	if p == nil {
		glog.Warningf("platform: no gpio %q for clock", id)
		return nil, false
	}
	return gpioClock{pin: p}, true
}

func DefaultClockFactory() halcore.ClockFactory { return periphClockFactory{} }

// GetInitialConfig describes one camera on I2C bus 1 with a free-running
// oscillator, the usual carrier board wiring.
func GetInitialConfig() types.HALConfig {
	return types.HALConfig{
		Devices: []types.Device{{
			ID:     "cam0",
			Type:   "mt9v032",
			BusRef: types.BusRef{Type: "i2c", ID: "1"},
			Params: map[string]any{
				"clock_ref":       ClockFixed,
				"sample_every_ms": 1000,
			},
		}},
	}
}
