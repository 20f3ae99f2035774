// services/hal/internal/platform/factories_host.go
//go:build !(linux && periph)

package platform

import (
	"camcode-go/services/hal/internal/halcore"
	"camcode-go/types"

	"tinygo.org/x/drivers"
)

// Simulated part identities.
const (
	simAddress      = 0x48
	simMT9V032Rev3  = 0x1313
	simMT9V034Rev1  = 0x1324
	simClockPrimary = "mclk0"
	simClockSecond  = "mclk1"
)

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultI2CFactory creates simulated buses: an MT9V032 on "i2c0" and an
// MT9V034 on "i2c1", both at the default address.
func DefaultI2CFactory() halcore.I2CBusFactory {
	return &hostI2CFactory{
		buses: map[string]drivers.I2C{
			"i2c0": NewSimSensor(simAddress, simMT9V032Rev3),
			"i2c1": NewSimSensor(simAddress, simMT9V034Rev1),
		},
	}
}

type hostClockFactory struct {
	clocks map[string]halcore.Clock
}

func (f *hostClockFactory) ByID(id string) (halcore.Clock, bool) {
	c, ok := f.clocks[id]
	return c, ok
}

// DefaultClockFactory creates simulated master clocks "mclk0" and "mclk1".
func DefaultClockFactory() halcore.ClockFactory {
	return &hostClockFactory{
		clocks: map[string]halcore.Clock{
			simClockPrimary: &SimClock{},
			simClockSecond:  &SimClock{},
		},
	}
}

// GetInitialConfig describes the simulated camera on i2c0.
func GetInitialConfig() types.HALConfig {
	return types.HALConfig{
		Devices: []types.Device{{
			ID:     "cam0",
			Type:   "mt9v032",
			BusRef: types.BusRef{Type: "i2c", ID: "i2c0"},
			Params: map[string]any{
				"clock_ref":       simClockPrimary,
				"sample_every_ms": 1000,
			},
		}},
	}
}
