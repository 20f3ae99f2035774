// services/hal/hal.go
package hal

import (
	"context"

	"camcode-go/bus"
	"camcode-go/services/hal/internal/halcore"
	"camcode-go/services/hal/internal/platform"
	"camcode-go/services/hal/internal/service"
	"camcode-go/types"

	// Device builders register themselves.
	_ "camcode-go/services/hal/internal/devices/mt9v032"
)

type (
	I2CBusFactory = halcore.I2CBusFactory
	ClockFactory  = halcore.ClockFactory
	Clock         = halcore.Clock
)

// Run serves the HAL on conn until ctx is cancelled. Devices are added and
// removed by publishing a types.HALConfig on config/hal.
func Run(ctx context.Context, conn *bus.Connection, buses I2CBusFactory, clocks ClockFactory) {
	service.New(conn, buses, clocks).Run(ctx)
}

// DefaultI2CFactory returns the platform's buses: simulated sensors on
// host builds, Linux I²C with the periph build tag.
func DefaultI2CFactory() I2CBusFactory { return platform.DefaultI2CFactory() }

// DefaultClockFactory returns the platform's master clocks.
func DefaultClockFactory() ClockFactory { return platform.DefaultClockFactory() }

// InitialConfig is the platform's default device list.
func InitialConfig() types.HALConfig { return platform.GetInitialConfig() }
