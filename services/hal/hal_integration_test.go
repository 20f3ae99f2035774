// services/hal/hal_integration_test.go
//go:build !(linux && periph)

package hal

import (
	"context"
	"testing"
	"time"

	"camcode-go/bus"
	"camcode-go/types"
)

func recvOrTimeout(t *testing.T, ch <-chan *bus.Message, d time.Duration) *bus.Message {
	t.Helper()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case m := <-ch:
		return m
	case <-timer.C:
		t.Fatalf("timeout after %v", d)
		return nil
	}
}

func camRequest(t *testing.T, conn *bus.Connection, verb string, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := conn.RequestWait(ctx, conn.NewMessage(
		bus.T("hal", "capability", "camera", 0, "control", verb), payload, false))
	if err != nil {
		t.Fatalf("%s: %v", verb, err)
	}
	if er, ok := reply.Payload.(types.ErrorReply); ok {
		t.Fatalf("%s: %s", verb, er.Error)
	}
	return reply.Payload
}

func TestHAL_EndToEnd_SimCamera(t *testing.T) {
	b := bus.NewBus(32)
	halConn := b.NewConnection("hal")
	cli := b.NewConnection("cli")

	ctx, cancel := context.WithCancel(context.Background())
	go Run(ctx, halConn, DefaultI2CFactory(), DefaultClockFactory())

	stateSub := cli.Subscribe(bus.T("hal", "state"))
	defer cli.Unsubscribe(stateSub)
	defer cancel()

	if st, _ := recvOrTimeout(t, stateSub.Channel(), time.Second).Payload.(types.HALState); st.Level != "idle" {
		t.Fatalf("initial state = %+v", st)
	}

	cli.Publish(cli.NewMessage(bus.T("config", "hal"), InitialConfig(), false))
	if st, _ := recvOrTimeout(t, stateSub.Channel(), time.Second).Payload.(types.HALState); st.Level != "ready" {
		t.Fatalf("state after config = %+v", st)
	}

	infoSub := cli.Subscribe(bus.T("hal", "capability", "camera", 0, "info"))
	defer cli.Unsubscribe(infoSub)
	info, _ := recvOrTimeout(t, infoSub.Channel(), time.Second).Payload.(types.Info)
	if detail, _ := info.Detail.(types.CameraInfo); detail.Model != "mt9v032" || detail.Bus != "i2c0" {
		t.Fatalf("info = %+v", info)
	}

	camRequest(t, cli, "power", types.CameraPower{On: true})
	camRequest(t, cli, "set_crop", types.CameraSetCrop{Rect: types.Rect{Left: 101, Top: 51, Width: 320, Height: 240}})
	camRequest(t, cli, "stream", types.CameraStream{On: true})

	// read_now forces a fresh snapshot.
	valSub := cli.Subscribe(bus.T("hal", "capability", "camera", 0, "value"))
	defer cli.Unsubscribe(valSub)
	camRequest(t, cli, "read_now", nil)
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, _ := recvOrTimeout(t, valSub.Channel(), time.Second).Payload.(types.CameraStatus)
		if st.Streaming {
			if st.Crop != (types.Rect{Left: 101, Top: 51, Width: 320, Height: 240}) || st.PowerCount != 1 {
				t.Fatalf("status = %+v", st)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("never saw a streaming snapshot")
		}
	}

	// Removing the device releases it.
	cli.Publish(cli.NewMessage(bus.T("config", "hal"), types.HALConfig{}, false))
	stSub := cli.Subscribe(bus.T("hal", "capability", "camera", 0, "state"))
	defer cli.Unsubscribe(stSub)
	for {
		cs, _ := recvOrTimeout(t, stSub.Channel(), time.Second).Payload.(types.CapabilityState)
		if cs.Link == types.LinkDown {
			break
		}
	}
}
