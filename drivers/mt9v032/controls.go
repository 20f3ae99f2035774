package mt9v032

// ControlID is the numeric identity of a control, using the V4L2 values.
type ControlID uint32

const (
	CIDExposure     ControlID = 0x00980911
	CIDAutoGain     ControlID = 0x00980912
	CIDGain         ControlID = 0x00980913
	CIDExposureAuto ControlID = 0x009a0901
	CIDTestPattern  ControlID = 0x00981901
)

func (id ControlID) String() string {
	switch id {
	case CIDExposure:
		return "exposure"
	case CIDAutoGain:
		return "autogain"
	case CIDGain:
		return "gain"
	case CIDExposureAuto:
		return "exposure_auto"
	case CIDTestPattern:
		return "test_pattern"
	}
	return "unknown"
}

// ParseControlID resolves a control by name.
func ParseControlID(s string) (ControlID, bool) {
	for _, id := range controlOrder {
		if id.String() == s {
			return id, true
		}
	}
	return 0, false
}

// ExposureMode values follow V4L2_EXPOSURE_AUTO / V4L2_EXPOSURE_MANUAL.
type ExposureMode uint8

const (
	ExposureAuto   ExposureMode = 0
	ExposureManual ExposureMode = 1
)

// Control is one typed control update, applied with Device.Apply.
type Control interface {
	ID() ControlID
	Value() int32
}

type (
	AutoGain     bool         // AGC on/off
	AnalogGain   uint8        // 16..64, 1/16 steps
	AutoExposure ExposureMode // AEC mode
	Exposure     uint16       // total shutter width in rows
	TestPattern  uint16       // 0 off, 1..1023 pattern data
)

func (AutoGain) ID() ControlID     { return CIDAutoGain }
func (AnalogGain) ID() ControlID   { return CIDGain }
func (AutoExposure) ID() ControlID { return CIDExposureAuto }
func (Exposure) ID() ControlID     { return CIDExposure }
func (TestPattern) ID() ControlID  { return CIDTestPattern }

func (c AutoGain) Value() int32 {
	if c {
		return 1
	}
	return 0
}
func (c AnalogGain) Value() int32   { return int32(c) }
func (c AutoExposure) Value() int32 { return int32(c) }
func (c Exposure) Value() int32     { return int32(c) }
func (c TestPattern) Value() int32  { return int32(c) }

// ControlType mirrors the V4L2 control types used here.
type ControlType uint8

const (
	TypeInteger ControlType = 1
	TypeBoolean ControlType = 2
	TypeMenu    ControlType = 3
)

// ControlInfo describes one control.
type ControlInfo struct {
	ID      ControlID   `json:"id"`
	Name    string      `json:"name"`
	Type    ControlType `json:"type"`
	Min     int32       `json:"min"`
	Max     int32       `json:"max"`
	Step    int32       `json:"step"`
	Default int32       `json:"default"`
}

// Replay order after power-on.
var controlOrder = [...]ControlID{CIDAutoGain, CIDGain, CIDExposureAuto, CIDExposure, CIDTestPattern}

// controlValues caches the last accepted value of each control.
type controlValues struct {
	autoGain bool
	gain     AnalogGain
	expMode  ExposureMode
	exposure Exposure
	pattern  TestPattern
}

func defaultControlValues() controlValues {
	return controlValues{
		autoGain: true,
		gain:     analogGainDef,
		expMode:  ExposureAuto,
		exposure: totalShutterWidthDef,
		pattern:  0,
	}
}

func (v *controlValues) get(id ControlID) (Control, bool) {
	switch id {
	case CIDAutoGain:
		return AutoGain(v.autoGain), true
	case CIDGain:
		return v.gain, true
	case CIDExposureAuto:
		return AutoExposure(v.expMode), true
	case CIDExposure:
		return v.exposure, true
	case CIDTestPattern:
		return v.pattern, true
	}
	return nil, false
}

func (v *controlValues) set(c Control) {
	switch c := c.(type) {
	case AutoGain:
		v.autoGain = bool(c)
	case AnalogGain:
		v.gain = c
	case AutoExposure:
		v.expMode = ExposureMode(c)
	case Exposure:
		v.exposure = c
	case TestPattern:
		v.pattern = c
	}
}

func (d *Device) controlInfo(id ControlID) (ControlInfo, bool) {
	info := ControlInfo{ID: id, Name: id.String(), Step: 1}
	switch id {
	case CIDAutoGain:
		info.Type, info.Min, info.Max, info.Default = TypeBoolean, 0, 1, 1
	case CIDGain:
		info.Type, info.Min, info.Max, info.Default = TypeInteger, analogGainMin, analogGainMax, analogGainDef
	case CIDExposureAuto:
		info.Type, info.Min, info.Max, info.Default = TypeMenu, int32(ExposureAuto), int32(ExposureManual), int32(ExposureAuto)
	case CIDExposure:
		info.Type, info.Min, info.Max, info.Default = TypeInteger, int32(d.model.exposureMin), int32(d.model.exposureMax), totalShutterWidthDef
	case CIDTestPattern:
		info.Type, info.Min, info.Max, info.Default = TypeInteger, 0, testPatternMax, 0
	default:
		return ControlInfo{}, false
	}
	return info, true
}

// Controls lists the supported controls in replay order.
func (d *Device) Controls() []ControlInfo {
	out := make([]ControlInfo, 0, len(controlOrder))
	for _, id := range controlOrder {
		info, _ := d.controlInfo(id)
		out = append(out, info)
	}
	return out
}

// NewControl builds a typed control from its id and raw value, checking
// the range.
func (d *Device) NewControl(id ControlID, v int32) (Control, error) {
	info, ok := d.controlInfo(id)
	if !ok || v < info.Min || v > info.Max {
		return nil, ErrInvalidArgument
	}
	switch id {
	case CIDAutoGain:
		return AutoGain(v != 0), nil
	case CIDGain:
		return AnalogGain(v), nil
	case CIDExposureAuto:
		return AutoExposure(v), nil
	case CIDExposure:
		return Exposure(v), nil
	}
	return TestPattern(v), nil
}

// Control returns the cached value of id.
func (d *Device) Control(id ControlID) (Control, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.ctrls.get(id)
	if !ok {
		return nil, ErrInvalidArgument
	}
	return c, nil
}

// Apply sets one control. While powered down only the cache changes; the
// value reaches the sensor on the next power-on. A failed write leaves the
// cache untouched.
func (d *Device) Apply(c Control) error {
	if c == nil {
		return ErrInvalidArgument
	}
	if _, err := d.NewControl(c.ID(), c.Value()); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrReleased
	}
	if d.powerCount > 0 {
		if err := d.writeControl(c); err != nil {
			return err
		}
	}
	d.ctrls.set(c)
	return nil
}

// SetControl is Apply for an untyped id/value pair.
func (d *Device) SetControl(id ControlID, v int32) error {
	c, err := d.NewControl(id, v)
	if err != nil {
		return err
	}
	return d.Apply(c)
}

func (d *Device) writeControl(c Control) error {
	switch c := c.(type) {
	case AutoGain:
		return d.writeAECAGC(agcEnable, bit(bool(c), agcEnable))
	case AnalogGain:
		return d.writeWord(regAnalogGain, uint16(c))
	case AutoExposure:
		return d.writeAECAGC(aecEnable, bit(ExposureMode(c) == ExposureAuto, aecEnable))
	case Exposure:
		return d.writeWord(regTotalShutterWidth, uint16(c))
	case TestPattern:
		return d.writeWord(regTestPattern, testPatternReg(c))
	}
	return ErrInvalidArgument
}

// testPatternReg encodes the pattern selector: 0 disables, 1..3 select the
// vertical, horizontal and diagonal gray ramps, anything else is flipped
// constant user data.
func testPatternReg(p TestPattern) uint16 {
	switch p {
	case 0:
		return 0
	case 1:
		return testPatternGrayVertical | testPatternEnable
	case 2:
		return testPatternGrayHorizontal | testPatternEnable
	case 3:
		return testPatternGrayDiagonal | testPatternEnable
	}
	return uint16(p)&testPatternDataMask | testPatternUseData | testPatternEnable | testPatternFlip
}

func (d *Device) replayControls() error {
	for _, id := range controlOrder {
		c, _ := d.ctrls.get(id)
		if err := d.writeControl(c); err != nil {
			return err
		}
	}
	return nil
}
