package mt9v032

import "camcode-go/x/mathx"

// hblankBase is the line length the horizontal blanking pads up to.
const hblankBase = 660

// Stream starts or stops sensor output. Starting programs the full active
// window and binning before asserting master mode, so no frame is emitted
// with stale geometry. Stopping while powered down is a no-op.
func (d *Device) Stream(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrReleased
	}
	if !on {
		if d.powerCount == 0 {
			return nil
		}
		if err := d.writeChipControl(chipControlStreamBits, 0); err != nil {
			return err
		}
		d.streaming = false
		return nil
	}
	if d.powerCount == 0 {
		return ErrNotPowered
	}
	if err := d.writeWindow(&d.active); err != nil {
		return err
	}
	if err := d.writeChipControl(0, chipControlStreamBits); err != nil {
		return err
	}
	d.streaming = true
	return nil
}

// Streaming reports whether output is enabled.
func (d *Device) Streaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streaming
}

// readMode encodes the binning ratios. The bin fields hold ratio-1 in two
// bits and saturate at 4x.
func readMode(hr, vr int) uint16 {
	row := uint16(mathx.Clamp(vr, 1, 4)-1) << readModeRowBinShift
	col := uint16(mathx.Clamp(hr, 1, 4)-1) << readModeColumnBinShift
	return row&readModeRowBinMask | col&readModeColumnBinMask
}

func (d *Device) hblank(cropWidth int) int {
	return mathx.Max(d.model.hblankMin, hblankBase-cropWidth)
}

func (d *Device) writeWindow(p *padState) error {
	hr, vr := p.ratios()
	writes := [...]struct {
		reg uint8
		val uint16
	}{
		{regReadMode, readMode(hr, vr)},
		{regColumnStart, uint16(p.crop.Left)},
		{regRowStart, uint16(p.crop.Top)},
		{regWindowWidth, uint16(p.crop.Width)},
		{regWindowHeight, uint16(p.crop.Height)},
		{regHorizontalBlanking, uint16(d.hblank(p.crop.Width))},
	}
	for _, w := range writes {
		if err := d.writeWord(w.reg, w.val); err != nil {
			return err
		}
	}
	return nil
}
