package heartbeat

import (
	"context"
	"testing"
	"time"

	"camcode-go/bus"
	"camcode-go/types"
)

func TestBeatCountsAndSummarises(t *testing.T) {
	s := &Service{
		hal:     types.HALState{Level: "ready", Status: "configured"},
		cameras: map[any]types.CameraStatus{0: {Model: "mt9v032", Streaming: true}},
	}
	s.beat()
	s.beat()
	if s.beats != 2 {
		t.Fatalf("beats = %d", s.beats)
	}
}

func TestServiceStopsOnCancel(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("hb")
	s := &Service{}
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}
	conn.Publish(conn.NewMessage(topicConfigHeartbeat, types.HeartbeatConfig{IntervalS: 1}, true))
	cancel()
	time.Sleep(20 * time.Millisecond)
}
