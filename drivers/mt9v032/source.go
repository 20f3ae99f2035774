package mt9v032

import (
	"iter"
	"time"

	"periph.io/x/conn/v3/physic"

	"camcode-go/x/mathx"
)

// VideoSource is the surface a host video stack negotiates with.
type VideoSource interface {
	Power(on bool) error
	Open() error
	Close() error
	Codes() iter.Seq[MediaBusCode]
	FrameSizes() iter.Seq2[int, Size]
	Format(which Which) (Format, error)
	SetFormat(which Which, width, height int) (Format, error)
	Crop(which Which) (Rect, error)
	SetCrop(which Which, r Rect) (Rect, error)
	Stream(on bool) error
	FrameInterval() Fraction
	SetFrameInterval(f Fraction) (Fraction, error)
	BusConfig() BusConfig
	Apply(c Control) error
}

var _ VideoSource = (*Device)(nil)

// Open starts a negotiation session: the try state is reset to defaults
// and the sensor is powered on.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrReleased
	}
	if err := d.setPower(true); err != nil {
		return err
	}
	p := defaultPadState()
	d.try = &p
	return nil
}

// Close ends a session opened with Open.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setPower(false)
}

// pad returns the state selected by which.
func (d *Device) pad(which Which) (*padState, error) {
	switch which {
	case Active:
		return &d.active, nil
	case Try:
		if d.try == nil {
			return nil, ErrNoTryState
		}
		return d.try, nil
	}
	return nil, ErrInvalidArgument
}

// Codes yields the supported media-bus codes.
func (d *Device) Codes() iter.Seq[MediaBusCode] {
	return func(yield func(MediaBusCode) bool) {
		yield(CodeSGRBG10)
	}
}

// FrameSizes yields the discrete sizes with their index, 1 through 8.
func (d *Device) FrameSizes() iter.Seq2[int, Size] {
	return func(yield func(int, Size) bool) {
		for i := binMin; i <= binMax; i++ {
			s, _ := FrameSize(i)
			if !yield(i, s) {
				return
			}
		}
	}
}

func (d *Device) Format(which Which) (Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.pad(which)
	if err != nil {
		return Format{}, err
	}
	return p.format, nil
}

// SetFormat picks the binned output size closest to width x height and
// returns what was installed. Active changes reach the sensor at the next
// stream start. READ_MODE bins at most 4x, so ratios of 5 to 8 are not
// realised on-chip: the sensor then outputs crop/4 while the format
// reports crop/ratio.
func (d *Device) SetFormat(which Which, width, height int) (Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.pad(which)
	if err != nil {
		return Format{}, err
	}
	return p.setFormat(width, height), nil
}

func (d *Device) Crop(which Which) (Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.pad(which)
	if err != nil {
		return Rect{}, err
	}
	return p.crop, nil
}

// SetCrop snaps r to the sensor grid and returns the installed window.
func (d *Device) SetCrop(which Which, r Rect) (Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.pad(which)
	if err != nil {
		return Rect{}, err
	}
	return p.setCrop(r), nil
}

// Fraction is a time interval in seconds, Num/Den.
type Fraction struct {
	Num uint32 `json:"num"`
	Den uint32 `json:"den"`
}

var FrameIntervalDefault = Fraction{Num: 1, Den: 60}

const (
	fpsMin = 4
	fpsMax = 60
)

// FrameInterval returns the recorded frame interval.
func (d *Device) FrameInterval() Fraction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

// SetFrameInterval records an advisory interval of 1/fps with fps in
// 4..60. A zero numerator or denominator restores the 1/60 default. The
// real rate follows from the window, blanking and master clock; see
// FramePeriod.
func (d *Device) SetFrameInterval(f Fraction) (Fraction, error) {
	if f.Num == 0 || f.Den == 0 {
		f = FrameIntervalDefault
	}
	if f.Den%f.Num != 0 {
		return Fraction{}, ErrInvalidArgument
	}
	fps := f.Den / f.Num
	if !mathx.Between(fps, fpsMin, fpsMax) {
		return Fraction{}, ErrInvalidArgument
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interval = Fraction{Num: 1, Den: fps}
	return d.interval, nil
}

// FramePeriod estimates the time per frame for the active window at the
// configured master clock, with the power-on vertical blanking.
func (d *Device) FramePeriod() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framePeriod()
}

func (d *Device) framePeriod() time.Duration {
	hz := int64(d.cfg.MasterClock / physic.Hertz)
	if hz <= 0 {
		return 0
	}
	c := d.active.crop
	line := int64(c.Width + d.hblank(c.Width))
	rows := int64(c.Height + verticalBlankingDef)
	return time.Duration(line * rows * int64(time.Second) / hz)
}

// BusType identifies the pixel data bus.
type BusType uint8

const BusParallel BusType = 1

// BusConfig describes the pixel output bus.
type BusConfig struct {
	Type             BusType `json:"type"`
	Master           bool    `json:"master"`
	DataWidth        int     `json:"data_width"`
	HSyncActiveHigh  bool    `json:"hsync_active_high"`
	VSyncActiveHigh  bool    `json:"vsync_active_high"`
	PixelClockRising bool    `json:"pclk_rising"`
}

// BusConfig reports the parallel bus settings. With an inverted pixel
// clock the receiver samples on the falling edge.
func (d *Device) BusConfig() BusConfig {
	return BusConfig{
		Type:             BusParallel,
		Master:           true,
		DataWidth:        10,
		HSyncActiveHigh:  true,
		VSyncActiveHigh:  true,
		PixelClockRising: !d.cfg.InvertPixelClock,
	}
}

// Status is a point-in-time view of the instance.
type Status struct {
	Model       Model
	ChipVersion uint16
	PowerCount  int
	Streaming   bool
	Format      Format
	Crop        Rect
	Interval    Fraction
	FramePeriod time.Duration
	ChipControl uint16
	AECAGC      uint16
}

func (d *Device) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Model:       d.cfg.Model,
		ChipVersion: d.version,
		PowerCount:  d.powerCount,
		Streaming:   d.streaming,
		Format:      d.active.format,
		Crop:        d.active.crop,
		Interval:    d.interval,
		FramePeriod: d.framePeriod(),
		ChipControl: d.chipControl,
		AECAGC:      d.aecAgc,
	}
}
