package mt9v032

import (
	"errors"

	"camcode-go/x/conv"
)

var (
	ErrNotPresent      = errors.New("mt9v032: sensor not present")
	ErrNotPowered      = errors.New("mt9v032: sensor powered down")
	ErrUnbalancedPower = errors.New("mt9v032: power off without matching power on")
	ErrPowered         = errors.New("mt9v032: sensor still powered")
	ErrNoTryState      = errors.New("mt9v032: no try state, source not opened")
	ErrReleased        = errors.New("mt9v032: device released")
	ErrInvalidArgument = errors.New("mt9v032: invalid argument")
	ErrEndOfSequence   = errors.New("mt9v032: end of sequence")
	ErrResource        = errors.New("mt9v032: resource unavailable")
)

// BusOp identifies the direction of a register transfer.
type BusOp uint8

const (
	OpRead BusOp = iota
	OpWrite
)

func (o BusOp) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// BusError reports a failed register transfer. It unwraps to the
// transport error.
type BusError struct {
	Op  BusOp
	Reg uint8
	Err error
}

func (e *BusError) Error() string {
	var b [4]byte
	s := "mt9v032: " + e.Op.String() + " reg " + string(conv.U8Hex(b[:], e.Reg))
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *BusError) Unwrap() error { return e.Err }

// ErrorKind is the coarse class of a driver error.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindBus
	KindNotPresent
	KindPrecondition
	KindInvalidArgument
	KindResource
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBus:
		return "bus"
	case KindNotPresent:
		return "not_present"
	case KindPrecondition:
		return "precondition"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindResource:
		return "resource"
	}
	return "other"
}

// Kind classifies err. Bus failures take precedence over sentinels they
// may wrap.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var be *BusError
	switch {
	case errors.As(err, &be):
		return KindBus
	case errors.Is(err, ErrNotPresent):
		return KindNotPresent
	case errors.Is(err, ErrNotPowered),
		errors.Is(err, ErrUnbalancedPower),
		errors.Is(err, ErrPowered),
		errors.Is(err, ErrNoTryState),
		errors.Is(err, ErrReleased):
		return KindPrecondition
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrEndOfSequence):
		return KindInvalidArgument
	case errors.Is(err, ErrResource):
		return KindResource
	}
	return KindOther
}
