package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cause := errors.New("nak")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", Precondition, Precondition},
		{"wrapped code", fmt.Errorf("stream: %w", NotPresent), NotPresent},
		{"E", &E{C: BusError, Op: "write", Err: cause}, BusError},
		{"wrapped E", fmt.Errorf("outer: %w", Wrap(Resource, "new", cause)), Resource},
		{"plain", cause, Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("%s: Of=%q want %q", c.name, got, c.want)
		}
	}
}

func TestEFormattingAndUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrap(BusError, "read", cause)
	if got := err.Error(); got != "read: bus_error: timeout" {
		t.Fatalf("Error()=%q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("Wrap lost the cause")
	}
	if Wrap(BusError, "read", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	if got := (&E{C: InvalidParams}).Error(); got != "invalid_params" {
		t.Fatalf("bare E=%q", got)
	}
}
