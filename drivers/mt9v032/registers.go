package mt9v032

const (
	// 7-bit I2C address with S_CTRL_ADR0/1 strapped low.
	AddressDefault = 0x48

	// Physical pixel array including dark rows and columns.
	PixelArrayWidth  = 782
	PixelArrayHeight = 492

	// Identification values read from CHIP_VERSION.
	ChipIDMT9V032Rev1 = 0x1311
	ChipIDMT9V032Rev3 = 0x1313
	ChipIDMT9V034Rev1 = 0x1324
)

// --- Window limits ---
const (
	columnStartMin  = 1
	columnStartDef  = 1
	columnStartMax  = 752
	rowStartMin     = 4
	rowStartDef     = 5
	rowStartMax     = 482
	windowWidthMin  = 1
	windowWidthDef  = 752
	windowWidthMax  = 752
	windowHeightMin = 1
	windowHeightDef = 480
	windowHeightMax = 480

	// Power-on default of VERTICAL_BLANKING on both parts.
	verticalBlankingDef = 45
)

// --- Register addresses (8-bit index, 16-bit data) ---
const (
	regChipVersion         = 0x00 // R
	regColumnStart         = 0x01 // R/W
	regRowStart            = 0x02 // R/W
	regWindowHeight        = 0x03 // R/W
	regWindowWidth         = 0x04 // R/W
	regHorizontalBlanking  = 0x05 // R/W
	regVerticalBlanking    = 0x06 // R/W
	regChipControl         = 0x07 // R/W, shadowed
	regTotalShutterWidth   = 0x0B // R/W
	regReset               = 0x0C // R/W
	regReadMode            = 0x0D // R/W
	regPixelOperationMode  = 0x0F // R/W
	regAnalogGain          = 0x35 // R/W
	regRowNoiseCorrControl = 0x70 // R/W
	regPixelClockMT9V034   = 0x72 // R/W
	regPixelClockMT9V032   = 0x74 // R/W
	regTestPattern         = 0x7F // R/W
	regAECAGCEnable        = 0xAF // R/W, shadowed
)

// CHIP_CONTROL bits.
const (
	chipControlMasterMode = 1 << 3
	chipControlDoutEnable = 1 << 7
	chipControlSequential = 1 << 8

	chipControlStreamBits = chipControlMasterMode | chipControlDoutEnable | chipControlSequential
	// Master mode and output enable together mean the sensor drives pixels.
	chipControlOutputBits = chipControlMasterMode | chipControlDoutEnable
)

// READ_MODE fields.
const (
	readModeRowBinShift    = 0
	readModeRowBinMask     = 3 << readModeRowBinShift
	readModeColumnBinShift = 2
	readModeColumnBinMask  = 3 << readModeColumnBinShift
	readModeRowFlip        = 1 << 4
	readModeColumnFlip     = 1 << 5
)

// PIXEL_CLOCK bits.
const (
	pixelClockInvLine   = 1 << 0
	pixelClockInvFrame  = 1 << 1
	pixelClockXorLine   = 1 << 2
	pixelClockContLine  = 1 << 3
	pixelClockInvPxlClk = 1 << 4
)

// TEST_PATTERN fields.
const (
	testPatternDataMask       = 1023
	testPatternUseData        = 1 << 10
	testPatternGrayVertical   = 1 << 11
	testPatternGrayHorizontal = 2 << 11
	testPatternGrayDiagonal   = 3 << 11
	testPatternEnable         = 1 << 13
	testPatternFlip           = 1 << 14
)

// AEC_AGC_ENABLE bits.
const (
	aecEnable = 1 << 0
	agcEnable = 1 << 1
)

// --- Control limits ---
const (
	analogGainMin = 16
	analogGainDef = 16
	analogGainMax = 64

	totalShutterWidthDef = 480

	testPatternMax = 1023
)

// modelParams holds the per-part differences.
type modelParams struct {
	pixelClockReg uint8
	hblankMin     int
	exposureMin   int
	exposureMax   int
	vblankMin     int
	vblankMax     int
}

var models = [...]modelParams{
	MT9V032: {
		pixelClockReg: regPixelClockMT9V032,
		hblankMin:     43,
		exposureMin:   1,
		exposureMax:   32767,
		vblankMin:     4,
		vblankMax:     3000,
	},
	MT9V034: {
		pixelClockReg: regPixelClockMT9V034,
		hblankMin:     61,
		exposureMin:   0,
		exposureMax:   32765,
		vblankMin:     2,
		vblankMax:     32288,
	},
}

func knownChipVersion(v uint16) bool {
	switch v {
	case ChipIDMT9V032Rev1, ChipIDMT9V032Rev3, ChipIDMT9V034Rev1:
		return true
	}
	return false
}

// modelForVersion maps a probed CHIP_VERSION to the part family.
func modelForVersion(v uint16) Model {
	if v == ChipIDMT9V034Rev1 {
		return MT9V034
	}
	return MT9V032
}
