package mt9v032

import "camcode-go/x/mathx"

// MediaBusCode identifies a media-bus pixel format.
type MediaBusCode uint32

// The sensor emits 10-bit raw Bayer, GRBG order for the default window.
const CodeSGRBG10 MediaBusCode = 0x300a

func (c MediaBusCode) String() string {
	if c == CodeSGRBG10 {
		return "SGRBG10_1X10"
	}
	return "unknown"
}

type Field uint8

const FieldNone Field = 1 // progressive

type ColorSpace uint8

const ColorSpaceSRGB ColorSpace = 8

// Rect is a window on the pixel array. Left and Top are array
// coordinates including the dark columns and rows.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Format describes the output frame.
type Format struct {
	Code       MediaBusCode `json:"code"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Field      Field        `json:"field"`
	ColorSpace ColorSpace   `json:"colorspace"`
}

// Which selects the active configuration or the scratch try state used for
// negotiation.
type Which uint8

const (
	Active Which = iota
	Try
)

func (w Which) String() string {
	switch w {
	case Active:
		return "active"
	case Try:
		return "try"
	}
	return "invalid"
}

// Binning ratios per axis.
const (
	binMin = 1
	binMax = 8
)

// padState is one crop+format pair. The format always divides the crop by
// an integer ratio in 1..8 on each axis.
type padState struct {
	crop   Rect
	format Format
}

func defaultPadState() padState {
	return padState{
		crop: Rect{
			Left:   columnStartDef,
			Top:    rowStartDef,
			Width:  windowWidthDef,
			Height: windowHeightDef,
		},
		format: newFormat(windowWidthDef, windowHeightDef),
	}
}

func newFormat(w, h int) Format {
	return Format{
		Code:       CodeSGRBG10,
		Width:      w,
		Height:     h,
		Field:      FieldNone,
		ColorSpace: ColorSpaceSRGB,
	}
}

// alignOdd maps x to the odd value at or below it.
func alignOdd(x int) int { return ((x + 1) &^ 1) - 1 }

// alignEvenUp maps x to the even value at or above it.
func alignEvenUp(x int) int { return mathx.AlignUp(x, 2) }

// alignEvenDown maps x to the even value at or below it.
func alignEvenDown(x int) int { return x &^ 1 }

// clampOdd clamps x to the odd values within [lo, hi].
func clampOdd(x, lo, hi int) int {
	lo |= 1
	if hi&1 == 0 {
		hi--
	}
	return mathx.Clamp(x, lo, hi)
}

// adjustCrop snaps a requested window to the sensor grid. The origin lands
// on odd coordinates so the Bayer phase stays GRBG, the size is even and
// the window stays inside the physical array.
func adjustCrop(r Rect) Rect {
	left := clampOdd(alignOdd(r.Left), columnStartMin, columnStartMax)
	top := clampOdd(alignOdd(r.Top), rowStartMin, rowStartMax)
	w := mathx.Clamp(alignEvenDown(r.Width), 2, windowWidthMax)
	h := mathx.Clamp(alignEvenDown(r.Height), 2, windowHeightMax)
	w = mathx.Min(w, alignEvenDown(PixelArrayWidth-left))
	h = mathx.Min(h, alignEvenDown(PixelArrayHeight-top))
	return Rect{Left: left, Top: top, Width: w, Height: h}
}

// binRatio picks the binning ratio for one axis: the exact divisor of
// crop in 1..8 whose output length is closest to want. Ties go to the
// smaller ratio.
func binRatio(crop, want int) int {
	if crop <= 0 {
		return binMin
	}
	best, bestDiff := binMin, -1
	for r := binMin; r <= binMax; r++ {
		if crop%r != 0 {
			continue
		}
		diff := crop/r - want
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = r, diff
		}
	}
	return best
}

// adjustFormat snaps a requested output size to one reachable by binning
// crop.
func adjustFormat(crop Rect, w, h int) Format {
	w = mathx.Clamp(alignEvenUp(w), mathx.Max(crop.Width/binMax, 1), crop.Width)
	h = mathx.Clamp(alignEvenUp(h), mathx.Max(crop.Height/binMax, 1), crop.Height)
	hr := binRatio(crop.Width, w)
	vr := binRatio(crop.Height, h)
	return newFormat(crop.Width/hr, crop.Height/vr)
}

// ratios returns the horizontal and vertical binning of p.
func (p *padState) ratios() (hr, vr int) {
	hr = int(mathx.RoundDiv(uint(p.crop.Width), uint(p.format.Width)))
	vr = int(mathx.RoundDiv(uint(p.crop.Height), uint(p.format.Height)))
	return mathx.Clamp(hr, binMin, binMax), mathx.Clamp(vr, binMin, binMax)
}

func (p *padState) setFormat(w, h int) Format {
	p.format = adjustFormat(p.crop, w, h)
	return p.format
}

// setCrop stores the adjusted window. A size change resets the format to
// the unbinned crop size.
func (p *padState) setCrop(r Rect) Rect {
	c := adjustCrop(r)
	if c.Width != p.crop.Width || c.Height != p.crop.Height {
		p.format = newFormat(c.Width, c.Height)
	}
	p.crop = c
	return c
}

// FrameSize returns the i-th discrete output size, i in 1..8: the full
// array divided by i on both axes.
func FrameSize(i int) (Size, error) {
	if i < binMin || i > binMax {
		return Size{}, ErrEndOfSequence
	}
	return Size{Width: windowWidthMax / i, Height: windowHeightMax / i}, nil
}
