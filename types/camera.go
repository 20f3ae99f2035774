package types

// ---- Camera capability ("camera") ----

// Which selects the live configuration or the negotiation scratch state.
type Which string

const (
	WhichActive Which = "active"
	WhichTry    Which = "try"
)

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

type Format struct {
	Code       uint32 `json:"code"`
	CodeName   string `json:"code_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Field      uint8  `json:"field"`
	ColorSpace uint8  `json:"colorspace"`
}

type Fraction struct {
	Num uint32 `json:"num"`
	Den uint32 `json:"den"`
}

// CameraInfo is published as Info.Detail.
type CameraInfo struct {
	Model       string `json:"model"`
	Addr        uint16 `json:"addr"`
	Bus         string `json:"bus"`
	MasterClock uint64 `json:"master_clock_hz"`
	ArrayWidth  int    `json:"array_width"`
	ArrayHeight int    `json:"array_height"`
}

// CameraStatus is published under hal/capability/camera/<id>/value.
type CameraStatus struct {
	Model         string   `json:"model"`
	ChipVersion   uint16   `json:"chip_version"`
	PowerCount    int      `json:"power_count"`
	Streaming     bool     `json:"streaming"`
	Format        Format   `json:"format"`
	Crop          Rect     `json:"crop"`
	Interval      Fraction `json:"interval"`
	FramePeriodUs int64    `json:"frame_period_us"`
	ChipControl   uint16   `json:"chip_control"`
	AECAGC        uint16   `json:"aec_agc"`
	TS            int64    `json:"ts_ms"`
}

// Control payloads

type CameraPower struct {
	On bool `json:"on"`
}

type CameraStream struct {
	On bool `json:"on"`
}

type CameraWhich struct {
	Which Which `json:"which,omitempty"` // empty => active
}

type CameraSetFormat struct {
	Which  Which `json:"which,omitempty"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
}

type CameraSetCrop struct {
	Which Which `json:"which,omitempty"`
	Rect  Rect  `json:"rect"`
}

// CameraControl names a control by id or by name; a non-zero ID wins.
type CameraControl struct {
	ID    uint32 `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Value int32  `json:"value"`
}

type ControlInfo struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	Type    uint8  `json:"type"`
	Min     int32  `json:"min"`
	Max     int32  `json:"max"`
	Step    int32  `json:"step"`
	Default int32  `json:"default"`
	Value   int32  `json:"value"`
}

type CodeEntry struct {
	Index int    `json:"index"`
	Code  uint32 `json:"code"`
	Name  string `json:"name"`
}

type FrameSizeEntry struct {
	Index int  `json:"index"`
	Size  Size `json:"size"`
}

type BusConfig struct {
	Type             string `json:"type"`
	Master           bool   `json:"master"`
	DataWidth        int    `json:"data_width"`
	HSyncActiveHigh  bool   `json:"hsync_active_high"`
	VSyncActiveHigh  bool   `json:"vsync_active_high"`
	PixelClockRising bool   `json:"pclk_rising"`
}

type RegRead struct {
	Reg uint8 `json:"reg"`
}

type RegWrite struct {
	Reg   uint8  `json:"reg"`
	Value uint16 `json:"value"`
}

type RegValue struct {
	Reg   uint8  `json:"reg"`
	Value uint16 `json:"value"`
}
