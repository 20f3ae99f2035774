package heartbeat

import (
	"context"
	"time"

	"github.com/golang/glog"

	"camcode-go/bus"
	"camcode-go/types"
)

var (
	topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}
	topicHALState        = bus.Topic{"hal", "state"}
	topicCameraValues    = bus.Topic{"hal", "capability", "camera", "+", "value"}
)

const defaultInterval = 5 * time.Second

// Service logs a periodic one-line summary of the HAL and every camera it
// has heard from.
type Service struct {
	hal     types.HALState
	cameras map[any]types.CameraStatus // capability id -> last snapshot
	beats   int
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	halSub := conn.Subscribe(topicHALState)
	defer conn.Unsubscribe(halSub)
	camSub := conn.Subscribe(topicCameraValues)
	defer conn.Unsubscribe(camSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			glog.Info("heartbeat: stopping")
			return
		case <-tick.C:
			s.beat()
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(types.HeartbeatConfig); ok && c.IntervalS > 0 {
				tick.Reset(time.Duration(c.IntervalS) * time.Second)
				glog.Infof("heartbeat: interval set to %ds", c.IntervalS)
			}
		case msg := <-halSub.Channel():
			if st, ok := msg.Payload.(types.HALState); ok {
				s.hal = st
			}
		case msg := <-camSub.Channel():
			if st, ok := msg.Payload.(types.CameraStatus); ok && len(msg.Topic) > 3 {
				s.cameras[msg.Topic[3]] = st
			}
		}
	}
}

func (s *Service) beat() {
	s.beats++
	glog.Infof("heartbeat %d: hal=%s/%s cameras=%d", s.beats, s.hal.Level, s.hal.Status, len(s.cameras))
	for id, st := range s.cameras {
		glog.V(1).Infof("heartbeat: camera %v %s streaming=%t %dx%d period=%dus",
			id, st.Model, st.Streaming, st.Format.Width, st.Format.Height, st.FramePeriodUs)
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.cameras == nil {
		s.cameras = map[any]types.CameraStatus{}
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
