package mt9v032

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func poweredDevice(t *testing.T, mut func(*Config)) (*Device, *fakeBus, *fakeClock) {
	t.Helper()
	d, bus, clk := newTestDevice(t, ChipIDMT9V032Rev3, mut)
	if err := d.Power(true); err != nil {
		t.Fatalf("power on: %v", err)
	}
	bus.reset()
	return d, bus, clk
}

func TestTestPatternEncoding(t *testing.T) {
	for _, tc := range []struct {
		in   TestPattern
		want uint16
	}{
		{0, 0},
		{1, 0x2800},
		{2, 0x3000},
		{3, 0x3800},
		{5, 0x6405},
		{1023, 0x67FF},
	} {
		if got := testPatternReg(tc.in); got != tc.want {
			t.Fatalf("testPatternReg(%d) = %#04x, want %#04x", tc.in, got, tc.want)
		}
	}
}

func TestApplyWritesThroughWhenPowered(t *testing.T) {
	d, bus, _ := poweredDevice(t, nil)
	for _, c := range []Control{
		TestPattern(3),
		AnalogGain(32),
		Exposure(1000),
		AutoGain(false),
		AutoExposure(ExposureManual),
		AutoExposure(ExposureAuto),
	} {
		if err := d.Apply(c); err != nil {
			t.Fatalf("Apply(%v=%d): %v", c.ID(), c.Value(), err)
		}
	}
	want := []busOp{
		wr(regTestPattern, 0x3800),
		wr(regAnalogGain, 32),
		wr(regTotalShutterWidth, 1000),
		wr(regAECAGCEnable, aecEnable),
		wr(regAECAGCEnable, 0),
		wr(regAECAGCEnable, aecEnable),
	}
	if diff := cmp.Diff(want, bus.trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	if got := d.Status().AECAGC; got != aecEnable {
		t.Fatalf("shadow = %#x, want last written value", got)
	}
}

func TestApplyRejectsOutOfRange(t *testing.T) {
	d, bus, _ := poweredDevice(t, nil)
	for _, c := range []Control{AnalogGain(15), AnalogGain(65), Exposure(0), TestPattern(1024), AutoExposure(2)} {
		if err := d.Apply(c); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("Apply(%v=%d): %v", c.ID(), c.Value(), err)
		}
	}
	if err := d.Apply(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Apply(nil): %v", err)
	}
	if len(bus.trace) != 0 {
		t.Fatalf("rejected controls touched the bus: %v", bus.trace)
	}
}

func TestExposureRangePerModel(t *testing.T) {
	d, _, _ := newTestDevice(t, ChipIDMT9V034Rev1, func(c *Config) { c.Model = MT9V034 })
	if err := d.Apply(Exposure(0)); err != nil {
		t.Fatalf("MT9V034 exposure 0: %v", err)
	}
	if err := d.Apply(Exposure(32766)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("MT9V034 exposure 32766: %v", err)
	}
}

func TestApplyWhilePoweredDownReplays(t *testing.T) {
	d, bus, _ := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	for _, c := range []Control{AutoGain(false), AutoExposure(ExposureManual), Exposure(100), TestPattern(2)} {
		if err := d.Apply(c); err != nil {
			t.Fatal(err)
		}
	}
	if len(bus.trace) != 0 {
		t.Fatalf("powered-down apply touched the bus: %v", bus.trace)
	}
	if c, _ := d.Control(CIDExposure); c != Exposure(100) {
		t.Fatalf("cached exposure = %v", c)
	}
	if err := d.Power(true); err != nil {
		t.Fatal(err)
	}
	want := []busOp{
		wr(regAECAGCEnable, aecEnable),
		wr(regAnalogGain, 16),
		wr(regAECAGCEnable, 0),
		wr(regTotalShutterWidth, 100),
		wr(regTestPattern, 0x3000),
	}
	if diff := cmp.Diff(want, bus.trace[5:]); diff != "" {
		t.Fatalf("replay mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyBusErrorKeepsCache(t *testing.T) {
	d, bus, _ := poweredDevice(t, nil)
	bus.failAt = bus.n + 1
	if err := d.Apply(AnalogGain(40)); Kind(err) != KindBus {
		t.Fatalf("Apply: %v", err)
	}
	if c, _ := d.Control(CIDGain); c != AnalogGain(analogGainDef) {
		t.Fatalf("cache changed on failure: %v", c)
	}
	bus.failAt = bus.n + 1
	if err := d.Apply(AutoGain(false)); Kind(err) != KindBus {
		t.Fatalf("Apply: %v", err)
	}
	if got := d.Status().AECAGC; got != aecEnable|agcEnable {
		t.Fatalf("shadow changed on failure: %#x", got)
	}
}

func TestSetControlByID(t *testing.T) {
	d, bus, _ := poweredDevice(t, nil)
	id, ok := ParseControlID("gain")
	if !ok || id != CIDGain {
		t.Fatalf("ParseControlID: %v %v", id, ok)
	}
	if err := d.SetControl(id, 24); err != nil {
		t.Fatal(err)
	}
	if err := d.SetControl(0x1234, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown id: %v", err)
	}
	if diff := cmp.Diff([]busOp{wr(regAnalogGain, 24)}, bus.trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestControlsDescriptors(t *testing.T) {
	d, _, _ := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	got := d.Controls()
	want := []ControlInfo{
		{ID: CIDAutoGain, Name: "autogain", Type: TypeBoolean, Min: 0, Max: 1, Step: 1, Default: 1},
		{ID: CIDGain, Name: "gain", Type: TypeInteger, Min: 16, Max: 64, Step: 1, Default: 16},
		{ID: CIDExposureAuto, Name: "exposure_auto", Type: TypeMenu, Min: 0, Max: 1, Step: 1, Default: 0},
		{ID: CIDExposure, Name: "exposure", Type: TypeInteger, Min: 1, Max: 32767, Step: 1, Default: 480},
		{ID: CIDTestPattern, Name: "test_pattern", Type: TypeInteger, Min: 0, Max: 1023, Step: 1, Default: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}
}
