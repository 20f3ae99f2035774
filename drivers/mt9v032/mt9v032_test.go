package mt9v032

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRejectsMissingResources(t *testing.T) {
	if _, err := New(nil, &fakeClock{}, DefaultConfig()); !errors.Is(err, ErrResource) {
		t.Fatalf("nil bus: got %v", err)
	}
	if _, err := New(newFakeBus(0), nil, DefaultConfig()); !errors.Is(err, ErrResource) {
		t.Fatalf("nil clock: got %v", err)
	}
	cfg := DefaultConfig()
	cfg.MasterClock = 1000
	if _, err := New(newFakeBus(0), &fakeClock{}, cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad clock rate: got %v", err)
	}
}

func TestNewIsCold(t *testing.T) {
	d, bus, clk := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	if len(bus.trace) != 0 || clk.on {
		t.Fatalf("construction touched hardware: trace=%v clk=%v", bus.trace, clk.on)
	}
	st := d.Status()
	if st.PowerCount != 0 || st.Streaming {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.AECAGC != aecEnable|agcEnable {
		t.Fatalf("aec/agc shadow = %#x", st.AECAGC)
	}
	if diff := cmp.Diff(Rect{Left: 1, Top: 5, Width: 752, Height: 480}, st.Crop); diff != "" {
		t.Fatalf("crop mismatch (-want +got):\n%s", diff)
	}
}

func TestColdProbeTrace(t *testing.T) {
	d, bus, clk := newTestDevice(t, ChipIDMT9V034Rev1, nil)
	if err := d.Power(true); err != nil {
		t.Fatalf("power on: %v", err)
	}
	if diff := cmp.Diff(powerOnTrace(ChipIDMT9V034Rev1), bus.trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	if !clk.on {
		t.Fatal("clock not enabled")
	}
	st := d.Status()
	if st.PowerCount != 1 || st.Streaming || st.ChipVersion != ChipIDMT9V034Rev1 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Format.Width != 752 || st.Format.Height != 480 || st.Format.Code != CodeSGRBG10 {
		t.Fatalf("unexpected format %+v", st.Format)
	}
}

func TestPowerOnInvertedPixelClock(t *testing.T) {
	d, bus, _ := newTestDevice(t, ChipIDMT9V034Rev1, func(c *Config) {
		c.Model = MT9V034
		c.InvertPixelClock = true
	})
	if err := d.Power(true); err != nil {
		t.Fatalf("power on: %v", err)
	}
	want := []busOp{
		rd(regChipVersion, ChipIDMT9V034Rev1),
		wr(regReset, 1),
		wr(regReset, 0),
		wr(regChipControl, 0),
		wr(regPixelClockMT9V034, pixelClockInvPxlClk),
		wr(regRowNoiseCorrControl, 0),
	}
	want = append(want, replayTrace...)
	if diff := cmp.Diff(want, bus.trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	if d.BusConfig().PixelClockRising {
		t.Fatal("inverted pixel clock should sample on the falling edge")
	}
}

func TestPowerRefCount(t *testing.T) {
	d, bus, clk := newTestDevice(t, ChipIDMT9V032Rev1, nil)
	for i := 0; i < 3; i++ {
		if err := d.Power(true); err != nil {
			t.Fatalf("power on #%d: %v", i, err)
		}
	}
	if got := d.PowerCount(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	if len(bus.trace) != len(powerOnTrace(0)) {
		t.Fatalf("nested power-on touched the bus: %d ops", len(bus.trace))
	}
	for i := 0; i < 2; i++ {
		if err := d.Power(false); err != nil {
			t.Fatalf("power off #%d: %v", i, err)
		}
		if !clk.on {
			t.Fatal("clock disabled before last power-off")
		}
	}
	if err := d.Power(false); err != nil {
		t.Fatalf("last power off: %v", err)
	}
	if clk.on || d.PowerCount() != 0 {
		t.Fatalf("after balanced sequence: clk=%v count=%d", clk.on, d.PowerCount())
	}
	if err := d.Power(false); !errors.Is(err, ErrUnbalancedPower) || Kind(err) != KindPrecondition {
		t.Fatalf("unbalanced power off: %v", err)
	}
	if clk.enables != 1 || clk.disables != 1 {
		t.Fatalf("clock toggled %d/%d times", clk.enables, clk.disables)
	}
}

func TestPowerOnBusErrorKeepsClock(t *testing.T) {
	d, bus, clk := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	bus.failAt = 3 // RESET=0
	err := d.Power(true)
	var be *BusError
	if !errors.As(err, &be) || be.Op != OpWrite || be.Reg != regReset {
		t.Fatalf("expected reset write failure, got %v", err)
	}
	if !errors.Is(err, errNAK) || Kind(err) != KindBus {
		t.Fatalf("error does not unwrap to transport: %v", err)
	}
	if d.PowerCount() != 0 || !clk.on {
		t.Fatalf("count=%d clk=%v", d.PowerCount(), clk.on)
	}
	bus.failAt = 0
	if err := d.Power(true); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if clk.enables != 1 {
		t.Fatalf("clock enabled %d times", clk.enables)
	}
}

func TestPowerOffBusErrorStillGatesClock(t *testing.T) {
	d, bus, clk := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	if err := d.Power(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Stream(true); err != nil {
		t.Fatal(err)
	}
	bus.failAt = bus.n + 1 // the CHIP_CONTROL stop write
	err := d.Power(false)
	var be *BusError
	if !errors.As(err, &be) || be.Reg != regChipControl || Kind(err) != KindBus {
		t.Fatalf("power off: %v", err)
	}
	if d.PowerCount() != 0 || clk.on || d.Streaming() {
		t.Fatalf("count=%d clk=%v streaming=%v", d.PowerCount(), clk.on, d.Streaming())
	}
	if st := d.Status(); st.ChipControl&chipControlStreamBits != 0 {
		t.Fatalf("stream bits left in shadow: %#x", st.ChipControl)
	}
	if err := d.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !clk.closed {
		t.Fatal("clock not closed")
	}
}

func TestWrongChip(t *testing.T) {
	d, bus, clk := newTestDevice(t, 0x0000, nil)
	if err := d.Power(true); !errors.Is(err, ErrNotPresent) || Kind(err) != KindNotPresent {
		t.Fatalf("power on: %v", err)
	}
	if clk.on || d.PowerCount() != 0 {
		t.Fatalf("clk=%v count=%d", clk.on, d.PowerCount())
	}
	if err := d.Stream(true); Kind(err) != KindPrecondition {
		t.Fatalf("stream: %v", err)
	}
	bus.reset()
	if err := d.Power(true); !errors.Is(err, ErrNotPresent) {
		t.Fatalf("second power on: %v", err)
	}
	if len(bus.trace) != 0 {
		t.Fatalf("absent sensor probed again: %v", bus.trace)
	}
}

func TestClockEnableFailure(t *testing.T) {
	d, bus, clk := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	clk.failOn = errors.New("clk: busy")
	if err := d.Power(true); Kind(err) != KindResource {
		t.Fatalf("power on: %v", err)
	}
	if len(bus.trace) != 0 || d.PowerCount() != 0 {
		t.Fatalf("trace=%v count=%d", bus.trace, d.PowerCount())
	}
}

func TestRelease(t *testing.T) {
	d, _, clk := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	if err := d.Power(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Release(); !errors.Is(err, ErrPowered) {
		t.Fatalf("release while powered: %v", err)
	}
	if err := d.Power(false); err != nil {
		t.Fatal(err)
	}
	if err := d.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !clk.closed {
		t.Fatal("clock not closed")
	}
	if err := d.Power(true); !errors.Is(err, ErrReleased) {
		t.Fatalf("power after release: %v", err)
	}
}

func TestRegisterDiagnostics(t *testing.T) {
	d, bus, _ := newTestDevice(t, ChipIDMT9V032Rev3, nil)
	if _, err := d.ReadRegister(regChipVersion); !errors.Is(err, ErrNotPowered) {
		t.Fatalf("read while off: %v", err)
	}
	if err := d.Power(true); err != nil {
		t.Fatal(err)
	}
	v, err := d.ReadRegister(regChipVersion)
	if err != nil || v != ChipIDMT9V032Rev3 {
		t.Fatalf("read: %#x %v", v, err)
	}
	if err := d.WriteRegister(regChipControl, chipControlStreamBits); err != nil {
		t.Fatal(err)
	}
	st := d.Status()
	if !st.Streaming || st.ChipControl != chipControlStreamBits {
		t.Fatalf("chip control shadow not tracked: %+v", st)
	}
	if err := d.WriteRegister(regChipControl, 0); err != nil {
		t.Fatal(err)
	}
	if d.Streaming() {
		t.Fatal("streaming after clearing chip control")
	}
	// Master mode and output enable without sequential still drive pixels.
	if err := d.WriteRegister(regChipControl, chipControlOutputBits); err != nil {
		t.Fatal(err)
	}
	if st := d.Status(); !st.Streaming || st.ChipControl != chipControlOutputBits {
		t.Fatalf("output bits not tracked as streaming: %+v", st)
	}
	if err := d.WriteRegister(regAECAGCEnable, 0); err != nil {
		t.Fatal(err)
	}
	if got := d.Status().AECAGC; got != 0 || bus.regs[regAECAGCEnable] != 0 {
		t.Fatalf("aec/agc shadow = %#x", got)
	}
}

func TestBusErrorMessage(t *testing.T) {
	err := &BusError{Op: OpWrite, Reg: regChipControl, Err: errNAK}
	if got, want := err.Error(), "mt9v032: write reg 0x07: i2c: nak"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseModel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Model
		ok   bool
	}{
		{"", MT9V032, true},
		{"mt9v032", MT9V032, true},
		{"MT9V034", MT9V034, true},
		{"ov7670", 0, false},
	} {
		got, ok := ParseModel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseModel(%q) = %v,%v", tc.in, got, ok)
		}
	}
}
