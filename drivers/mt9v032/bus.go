package mt9v032

import "github.com/golang/glog"

// Register words travel big-endian: index byte, then high, then low.

func (d *Device) readWord(reg uint8) (uint16, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		glog.V(2).Infof("mt9v032: read 0x%02x failed: %v", reg, err)
		return 0, &BusError{Op: OpRead, Reg: reg, Err: err}
	}
	v := uint16(d.r[0])<<8 | uint16(d.r[1])
	glog.V(2).Infof("mt9v032: read 0x%04x from 0x%02x", v, reg)
	return v, nil
}

func (d *Device) writeWord(reg uint8, val uint16) error {
	d.w[0] = reg
	d.w[1] = byte(val >> 8) // high
	d.w[2] = byte(val)      // low
	if err := d.i2c.Tx(d.addr, d.w[:3], nil); err != nil {
		glog.V(2).Infof("mt9v032: write 0x%04x to 0x%02x failed: %v", val, reg, err)
		return &BusError{Op: OpWrite, Reg: reg, Err: err}
	}
	glog.V(2).Infof("mt9v032: write 0x%04x to 0x%02x", val, reg)
	return nil
}

// writeChipControl read-modify-writes CHIP_CONTROL through its shadow.
// The shadow only changes once the write succeeded.
func (d *Device) writeChipControl(clear, set uint16) error {
	v := d.chipControl&^clear | set
	if err := d.writeWord(regChipControl, v); err != nil {
		return err
	}
	d.chipControl = v
	return nil
}

// writeAECAGC read-modify-writes AEC_AGC_ENABLE through its shadow.
func (d *Device) writeAECAGC(clear, set uint16) error {
	v := d.aecAgc&^clear | set
	if err := d.writeWord(regAECAGCEnable, v); err != nil {
		return err
	}
	d.aecAgc = v
	return nil
}

func bit(on bool, mask uint16) uint16 {
	if on {
		return mask
	}
	return 0
}
