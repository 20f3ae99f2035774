// camctl drives one MT9V032/MT9V034 directly, without the HAL: it powers
// the sensor, applies a window, format and controls, optionally starts the
// stream, then prints the resulting state as JSON.
//
//	camctl -bus i2c0 -clock mclk0 -crop 101,51,320,240 -format 160x120 -set gain=32 -stream
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"

	"camcode-go/drivers/mt9v032"
	"camcode-go/services/hal"
	"camcode-go/x/conv"
)

var (
	busID    = flag.String("bus", "i2c0", "I²C bus id (simulated bus on host builds, periph name with -tags periph)")
	clockID  = flag.String("clock", "mclk0", "master clock id")
	addr     = flag.Uint("addr", mt9v032.AddressDefault, "7-bit sensor address")
	model    = flag.String("model", "mt9v032", "part family: mt9v032 or mt9v034")
	mclk     = flag.Int64("mclk", 0, "master clock in Hz (0 = default)")
	invert   = flag.Bool("invert-pclk", false, "sample pixel data on the falling edge")
	crop     = flag.String("crop", "", "active crop as left,top,width,height")
	format   = flag.String("format", "", "active output size as WxH")
	set      = flag.String("set", "", "controls as name=value[,name=value]")
	interval = flag.String("interval", "", "frame interval as num/den")
	stream   = flag.Bool("stream", false, "start streaming after configuration")
	dump     = flag.Bool("dump", false, "include a register dump")
	list     = flag.Bool("list", false, "list controls and frame sizes, then exit")
)

type report struct {
	Status    mt9v032.Status        `json:"status"`
	BusConfig mt9v032.BusConfig     `json:"bus_config"`
	Controls  map[string]int32      `json:"controls"`
	Registers map[string]string     `json:"registers,omitempty"`
	Sizes     []mt9v032.Size        `json:"sizes,omitempty"`
	Catalog   []mt9v032.ControlInfo `json:"catalog,omitempty"`
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := run(); err != nil {
		glog.Errorf("camctl: %v", err)
		fmt.Fprintln(os.Stderr, "camctl:", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	i2c, ok := hal.DefaultI2CFactory().ByID(*busID)
	if !ok {
		return fmt.Errorf("unknown bus %q", *busID)
	}
	clk, ok := hal.DefaultClockFactory().ByID(*clockID)
	if !ok {
		return fmt.Errorf("unknown clock %q", *clockID)
	}

	cfg := mt9v032.DefaultConfig()
	cfg.Address = uint16(*addr)
	m, ok := mt9v032.ParseModel(*model)
	if !ok {
		return fmt.Errorf("unknown model %q", *model)
	}
	cfg.Model = m
	cfg.InvertPixelClock = *invert
	if *mclk > 0 {
		cfg.MasterClock = physic.Frequency(*mclk) * physic.Hertz
	}

	dev, err := mt9v032.New(i2c, clk, cfg)
	if err != nil {
		return err
	}
	defer dev.Release()

	if *list {
		return emit(catalog(dev))
	}

	if err := dev.Power(true); err != nil {
		return fmt.Errorf("power on: %w", err)
	}
	defer dev.Power(false)
	glog.Infof("camctl: %s chip version 0x%04x", dev.Model(), dev.ChipVersion())

	if err := configure(dev); err != nil {
		return err
	}
	if *stream {
		if err := dev.Stream(true); err != nil {
			return fmt.Errorf("stream: %w", err)
		}
	}

	r := report{
		Status:    dev.Status(),
		BusConfig: dev.BusConfig(),
		Controls:  map[string]int32{},
	}
	for _, ci := range dev.Controls() {
		if c, err := dev.Control(ci.ID); err == nil {
			r.Controls[ci.Name] = c.Value()
		}
	}
	if *dump {
		r.Registers = registerDump(dev)
	}
	return emit(r)
}

func configure(dev *mt9v032.Device) error {
	if *crop != "" {
		var rc mt9v032.Rect
		if _, err := fmt.Sscanf(*crop, "%d,%d,%d,%d", &rc.Left, &rc.Top, &rc.Width, &rc.Height); err != nil {
			return fmt.Errorf("bad -crop %q: %w", *crop, err)
		}
		got, err := dev.SetCrop(mt9v032.Active, rc)
		if err != nil {
			return err
		}
		glog.Infof("camctl: crop %+v", got)
	}
	if *format != "" {
		var w, h int
		if _, err := fmt.Sscanf(*format, "%dx%d", &w, &h); err != nil {
			return fmt.Errorf("bad -format %q: %w", *format, err)
		}
		got, err := dev.SetFormat(mt9v032.Active, w, h)
		if err != nil {
			return err
		}
		glog.Infof("camctl: format %dx%d", got.Width, got.Height)
	}
	if *interval != "" {
		var f mt9v032.Fraction
		if _, err := fmt.Sscanf(*interval, "%d/%d", &f.Num, &f.Den); err != nil {
			return fmt.Errorf("bad -interval %q: %w", *interval, err)
		}
		if _, err := dev.SetFrameInterval(f); err != nil {
			return err
		}
	}
	if *set != "" {
		for _, kv := range strings.Split(*set, ",") {
			name, val, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("bad control %q", kv)
			}
			id, ok := mt9v032.ParseControlID(strings.TrimSpace(name))
			if !ok {
				return fmt.Errorf("unknown control %q", name)
			}
			v, err := strconv.ParseInt(strings.TrimSpace(val), 0, 32)
			if err != nil {
				return fmt.Errorf("control %s: %w", name, err)
			}
			if err := dev.SetControl(id, int32(v)); err != nil {
				return fmt.Errorf("control %s=%d: %w", name, v, err)
			}
		}
	}
	return nil
}

func catalog(dev *mt9v032.Device) report {
	r := report{Status: dev.Status(), BusConfig: dev.BusConfig(), Catalog: dev.Controls()}
	for _, s := range dev.FrameSizes() {
		r.Sizes = append(r.Sizes, s)
	}
	return r
}

// Registers worth looking at when bringing up a board.
var dumpRegs = []uint8{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x0B, 0x0D, 0x35, 0x70, 0x72, 0x74, 0x7F, 0xAF}

func registerDump(dev *mt9v032.Device) map[string]string {
	out := make(map[string]string, len(dumpRegs))
	var kb, vb [6]byte
	for _, reg := range dumpRegs {
		v, err := dev.ReadRegister(reg)
		key := string(conv.U8Hex(kb[:], reg))
		if err != nil {
			out[key] = err.Error()
			continue
		}
		out[key] = string(conv.U16Hex(vb[:], v))
	}
	return out
}

func emit(r report) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
