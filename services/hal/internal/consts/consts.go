// services/hal/internal/consts/consts.go
package consts

// Top-level topics
const (
	TokConfig     = "config"
	TokHAL        = "hal"
	TokCapability = "capability"
	TokInfo       = "info"
	TokState      = "state"
	TokValue      = "value"
	TokControl    = "control"
)

// Service control verbs
const (
	CtrlReadNow = "read_now"
	CtrlSetRate = "set_rate"
)

// Capability kinds used in service wiring
const (
	KindCamera = "camera"
)

// Camera control verbs
const (
	CamPower            = "power"
	CamOpen             = "open"
	CamClose            = "close"
	CamStream           = "stream"
	CamGetFormat        = "get_format"
	CamSetFormat        = "set_format"
	CamGetCrop          = "get_crop"
	CamSetCrop          = "set_crop"
	CamGetControl       = "get_control"
	CamSetControl       = "set_control"
	CamListControls     = "list_controls"
	CamEnumCodes        = "enum_codes"
	CamEnumSizes        = "enum_sizes"
	CamGetFrameInterval = "get_frame_interval"
	CamSetFrameInterval = "set_frame_interval"
	CamBusConfig        = "bus_config"
	CamReadReg          = "read_reg"
	CamWriteReg         = "write_reg"
)

const (
	LinkUp       = "up"
	LinkDown     = "down"
	LinkDegraded = "degraded"
)
