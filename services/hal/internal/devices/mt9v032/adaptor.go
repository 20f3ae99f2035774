// services/hal/internal/devices/mt9v032/adaptor.go
package mt9v032dev

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"

	"camcode-go/drivers/mt9v032"
	"camcode-go/errcode"
	"camcode-go/services/hal/internal/consts"
	"camcode-go/services/hal/internal/halcore"
	"camcode-go/services/hal/internal/util"
	"camcode-go/types"
	"camcode-go/x/timex"
)

// camera is the driver surface the adaptor depends on.
type camera interface {
	mt9v032.VideoSource
	PowerCount() int
	Release() error
	Model() mt9v032.Model
	Address() uint16
	Status() mt9v032.Status
	Controls() []mt9v032.ControlInfo
	Control(id mt9v032.ControlID) (mt9v032.Control, error)
	SetControl(id mt9v032.ControlID, v int32) error
	ReadRegister(reg uint8) (uint16, error)
	WriteRegister(reg uint8, val uint16) error
}

type adaptor struct {
	id    string
	bus   string
	dev   camera
	clkHz uint64
}

func newAdaptor(id, bus string, dev camera, clk physic.Frequency) *adaptor {
	return &adaptor{id: id, bus: bus, dev: dev, clkHz: uint64(clk / physic.Hertz)}
}

func (a *adaptor) ID() string { return a.id }

func (a *adaptor) Capabilities() []halcore.CapInfo {
	return []halcore.CapInfo{{
		Kind: consts.KindCamera,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "mt9v032",
			Detail: types.CameraInfo{
				Model:       a.dev.Model().String(),
				Addr:        a.dev.Address(),
				Bus:         a.bus,
				MasterClock: a.clkHz,
				ArrayWidth:  mt9v032.PixelArrayWidth,
				ArrayHeight: mt9v032.PixelArrayHeight,
			},
		},
	}}
}

// Trigger: the status snapshot is host-side state, nothing to start.
func (a *adaptor) Trigger(ctx context.Context) (time.Duration, error) { return 0, nil }

func (a *adaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	now := timex.NowMs()
	return halcore.Sample{{Kind: consts.KindCamera, Payload: statusPayload(a.dev.Status(), now), TsMs: now}}, nil
}

func statusPayload(st mt9v032.Status, now int64) types.CameraStatus {
	return types.CameraStatus{
		Model:         st.Model.String(),
		ChipVersion:   st.ChipVersion,
		PowerCount:    st.PowerCount,
		Streaming:     st.Streaming,
		Format:        formatPayload(st.Format),
		Crop:          rectPayload(st.Crop),
		Interval:      types.Fraction{Num: st.Interval.Num, Den: st.Interval.Den},
		FramePeriodUs: timex.Micros(st.FramePeriod),
		ChipControl:   st.ChipControl,
		AECAGC:        st.AECAGC,
		TS:            now,
	}
}

// Close drops any power references still held and releases the clock.
func (a *adaptor) Close() error {
	for a.dev.PowerCount() > 0 {
		if err := a.dev.Power(false); err != nil {
			glog.Warningf("mt9v032 %s: power down on close: %v", a.id, err)
			break
		}
	}
	return mapErr("close", a.dev.Release())
}

func (a *adaptor) Control(kind, method string, payload any) (any, error) {
	if kind != consts.KindCamera {
		return nil, halcore.ErrUnsupported
	}
	switch method {
	case consts.CamPower:
		var p types.CameraPower
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return ok(method, a.dev.Power(p.On))
	case consts.CamOpen:
		return ok(method, a.dev.Open())
	case consts.CamClose:
		return ok(method, a.dev.Close())
	case consts.CamStream:
		var p types.CameraStream
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return ok(method, a.dev.Stream(p.On))

	case consts.CamGetFormat:
		w, err := whichFrom(payload)
		if err != nil {
			return nil, err
		}
		f, err := a.dev.Format(w)
		if err != nil {
			return nil, mapErr(method, err)
		}
		return formatPayload(f), nil
	case consts.CamSetFormat:
		var p types.CameraSetFormat
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		w, err := parseWhich(p.Which)
		if err != nil {
			return nil, err
		}
		f, err := a.dev.SetFormat(w, p.Width, p.Height)
		if err != nil {
			return nil, mapErr(method, err)
		}
		return formatPayload(f), nil
	case consts.CamGetCrop:
		w, err := whichFrom(payload)
		if err != nil {
			return nil, err
		}
		r, err := a.dev.Crop(w)
		if err != nil {
			return nil, mapErr(method, err)
		}
		return rectPayload(r), nil
	case consts.CamSetCrop:
		var p types.CameraSetCrop
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		w, err := parseWhich(p.Which)
		if err != nil {
			return nil, err
		}
		r, err := a.dev.SetCrop(w, mt9v032.Rect{Left: p.Rect.Left, Top: p.Rect.Top, Width: p.Rect.Width, Height: p.Rect.Height})
		if err != nil {
			return nil, mapErr(method, err)
		}
		return rectPayload(r), nil

	case consts.CamGetControl:
		id, _, err := a.controlFrom(payload)
		if err != nil {
			return nil, err
		}
		return a.controlValue(method, id)
	case consts.CamSetControl:
		id, v, err := a.controlFrom(payload)
		if err != nil {
			return nil, err
		}
		if err := a.dev.SetControl(id, v); err != nil {
			return nil, mapErr(method, err)
		}
		return a.controlValue(method, id)
	case consts.CamListControls:
		infos := a.dev.Controls()
		out := make([]types.ControlInfo, 0, len(infos))
		for _, ci := range infos {
			c, err := a.dev.Control(ci.ID)
			if err != nil {
				return nil, mapErr(method, err)
			}
			out = append(out, types.ControlInfo{
				ID: uint32(ci.ID), Name: ci.Name, Type: uint8(ci.Type),
				Min: ci.Min, Max: ci.Max, Step: ci.Step, Default: ci.Default,
				Value: c.Value(),
			})
		}
		return out, nil

	case consts.CamEnumCodes:
		var out []types.CodeEntry
		for c := range a.dev.Codes() {
			out = append(out, types.CodeEntry{Index: len(out), Code: uint32(c), Name: c.String()})
		}
		return out, nil
	case consts.CamEnumSizes:
		var out []types.FrameSizeEntry
		for i, s := range a.dev.FrameSizes() {
			out = append(out, types.FrameSizeEntry{Index: i, Size: types.Size{Width: s.Width, Height: s.Height}})
		}
		return out, nil

	case consts.CamGetFrameInterval:
		f := a.dev.FrameInterval()
		return types.Fraction{Num: f.Num, Den: f.Den}, nil
	case consts.CamSetFrameInterval:
		var p types.Fraction
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		f, err := a.dev.SetFrameInterval(mt9v032.Fraction{Num: p.Num, Den: p.Den})
		if err != nil {
			return nil, mapErr(method, err)
		}
		return types.Fraction{Num: f.Num, Den: f.Den}, nil

	case consts.CamBusConfig:
		bc := a.dev.BusConfig()
		return types.BusConfig{
			Type:             "parallel",
			Master:           bc.Master,
			DataWidth:        bc.DataWidth,
			HSyncActiveHigh:  bc.HSyncActiveHigh,
			VSyncActiveHigh:  bc.VSyncActiveHigh,
			PixelClockRising: bc.PixelClockRising,
		}, nil

	case consts.CamReadReg:
		var p types.RegRead
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		v, err := a.dev.ReadRegister(p.Reg)
		if err != nil {
			return nil, mapErr(method, err)
		}
		return types.RegValue{Reg: p.Reg, Value: v}, nil
	case consts.CamWriteReg:
		var p types.RegWrite
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		if err := a.dev.WriteRegister(p.Reg, p.Value); err != nil {
			return nil, mapErr(method, err)
		}
		return types.RegValue{Reg: p.Reg, Value: p.Value}, nil
	}
	return nil, halcore.ErrUnsupported
}

func (a *adaptor) controlFrom(payload any) (mt9v032.ControlID, int32, error) {
	var p types.CameraControl
	if err := decode(payload, &p); err != nil {
		return 0, 0, err
	}
	if p.ID != 0 {
		return mt9v032.ControlID(p.ID), p.Value, nil
	}
	id, ok := mt9v032.ParseControlID(p.Name)
	if !ok {
		return 0, 0, errcode.InvalidParams
	}
	return id, p.Value, nil
}

func (a *adaptor) controlValue(op string, id mt9v032.ControlID) (any, error) {
	c, err := a.dev.Control(id)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return types.CameraControl{ID: uint32(id), Name: id.String(), Value: c.Value()}, nil
}

// ---- payload helpers ----

func decode[T any](payload any, dst *T) error {
	if payload == nil {
		return nil
	}
	if err := util.DecodeJSON(payload, dst); err != nil {
		return errcode.Wrap(errcode.InvalidPayload, "mt9v032", err)
	}
	return nil
}

func whichFrom(payload any) (mt9v032.Which, error) {
	var p types.CameraWhich
	if err := decode(payload, &p); err != nil {
		return 0, err
	}
	return parseWhich(p.Which)
}

func parseWhich(w types.Which) (mt9v032.Which, error) {
	switch w {
	case "", types.WhichActive:
		return mt9v032.Active, nil
	case types.WhichTry:
		return mt9v032.Try, nil
	}
	return 0, errcode.InvalidParams
}

func formatPayload(f mt9v032.Format) types.Format {
	return types.Format{
		Code:       uint32(f.Code),
		CodeName:   f.Code.String(),
		Width:      f.Width,
		Height:     f.Height,
		Field:      uint8(f.Field),
		ColorSpace: uint8(f.ColorSpace),
	}
}

func rectPayload(r mt9v032.Rect) types.Rect {
	return types.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
}

func ok(op string, err error) (any, error) {
	if err != nil {
		return nil, mapErr(op, err)
	}
	return types.OKReply{OK: true}, nil
}

// mapErr attaches the bus-facing code for a driver error.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mt9v032.ErrEndOfSequence) {
		return errcode.Wrap(errcode.EndOfList, op, err)
	}
	var c errcode.Code
	switch mt9v032.Kind(err) {
	case mt9v032.KindBus:
		c = errcode.BusError
	case mt9v032.KindNotPresent:
		c = errcode.NotPresent
	case mt9v032.KindPrecondition:
		c = errcode.Precondition
	case mt9v032.KindInvalidArgument:
		c = errcode.InvalidParams
	case mt9v032.KindResource:
		c = errcode.Resource
	default:
		c = errcode.Error
	}
	return errcode.Wrap(c, op, err)
}
