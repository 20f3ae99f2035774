// services/hal/internal/devices/mt9v032/builder.go
package mt9v032dev

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"camcode-go/drivers/mt9v032"
	"camcode-go/errcode"
	"camcode-go/services/hal/internal/halerr"
	"camcode-go/services/hal/internal/registry"
	"camcode-go/services/hal/internal/util"
)

// Params supplied via config.
type Params struct {
	Addr          int    `json:"addr,omitempty"`
	Model         string `json:"model,omitempty"` // "mt9v032" (default) or "mt9v034"
	ClockRef      string `json:"clock_ref"`
	InvertPclk    bool   `json:"invert_pclk,omitempty"`
	MasterClockHz int64  `json:"master_clock_hz,omitempty"`
	SampleEveryMS int    `json:"sample_every_ms,omitempty"`
}

const defaultSampleEvery = 5 * time.Second

func init() { registry.RegisterBuilder("mt9v032", builder{}) }

type builder struct{}

func (builder) Build(in registry.BuildInput) (registry.BuildOutput, error) {
	if in.BusRefType != "i2c" || in.BusRefID == "" {
		return registry.BuildOutput{}, halerr.ErrMissingBusRef
	}
	i2c, ok := in.Buses.ByID(in.BusRefID)
	if !ok {
		return registry.BuildOutput{}, halerr.ErrUnknownBus
	}

	var p Params
	if err := util.DecodeJSON(in.ParamsJSON, &p); err != nil {
		return registry.BuildOutput{}, errcode.Wrap(errcode.InvalidParams, "mt9v032", err)
	}
	if in.Clocks == nil {
		return registry.BuildOutput{}, halerr.ErrUnknownClock
	}
	clk, ok := in.Clocks.ByID(p.ClockRef)
	if !ok {
		return registry.BuildOutput{}, halerr.ErrUnknownClock
	}

	cfg, err := p.config()
	if err != nil {
		return registry.BuildOutput{}, err
	}
	dev, err := mt9v032.New(i2c, clk, cfg)
	if err != nil {
		return registry.BuildOutput{}, mapErr("build", err)
	}

	out := registry.BuildOutput{
		Adaptor:     newAdaptor(in.DeviceID, in.BusRefID, dev, cfg.MasterClock),
		BusID:       in.BusRefID,
		SampleEvery: time.Duration(util.ClampInt(p.SampleEveryMS, 0, 3_600_000)) * time.Millisecond,
	}
	if out.SampleEvery <= 0 {
		out.SampleEvery = defaultSampleEvery
	}
	return out, nil
}

func (p Params) config() (mt9v032.Config, error) {
	cfg := mt9v032.DefaultConfig()
	if p.Addr != 0 {
		if p.Addr < 0 || p.Addr > 0x7F {
			return cfg, halerr.ErrInvalidParams
		}
		cfg.Address = uint16(p.Addr)
	}
	if p.Model != "" {
		m, ok := mt9v032.ParseModel(p.Model)
		if !ok {
			return cfg, halerr.ErrInvalidParams
		}
		cfg.Model = m
	}
	cfg.InvertPixelClock = p.InvertPclk
	if p.MasterClockHz > 0 {
		cfg.MasterClock = physic.Frequency(p.MasterClockHz) * physic.Hertz
	}
	if err := cfg.Validate(); err != nil {
		return cfg, halerr.ErrInvalidParams
	}
	return cfg, nil
}
