package timex

import (
	"testing"
	"time"
)

func TestMicros(t *testing.T) {
	for d, want := range map[time.Duration]int64{
		0:                      0,
		-time.Second:           0,
		time.Nanosecond:        1,
		time.Microsecond:       1,
		1500 * time.Nanosecond: 2,
		time.Millisecond:       1000,
	} {
		if got := Micros(d); got != want {
			t.Fatalf("Micros(%v)=%d want %d", d, got, want)
		}
	}
	if NowMs() <= 0 {
		t.Fatal("NowMs not positive")
	}
}
