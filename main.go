package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"camcode-go/bus"
	"camcode-go/services/config"
	"camcode-go/services/hal"
	"camcode-go/services/heartbeat"
)

var (
	device  = flag.String("device", "sim", "embedded config to publish (sim, carrier); empty uses the platform default")
	cfgPath = flag.String("config", "", "JSON config file overriding the embedded one")
	queue   = flag.Int("queue", 64, "per-subscription queue length")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, *device)

	b := bus.NewBus(*queue)

	hb := &heartbeat.Service{}
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		glog.Exitf("heartbeat: %v", err)
	}

	halConn := b.NewConnection("hal")
	done := make(chan struct{})
	go func() {
		hal.Run(ctx, halConn, hal.DefaultI2CFactory(), hal.DefaultClockFactory())
		close(done)
	}()

	if *device == "" && *cfgPath == "" {
		// No config document: use the platform's built-in device list.
		c := b.NewConnection("config")
		c.Publish(c.NewMessage(bus.T("config", "hal"), hal.InitialConfig(), true))
	} else {
		cfg := config.NewConfigService()
		cfg.Path = *cfgPath
		cfg.Start(ctx, b.NewConnection("config"))
	}

	glog.Infof("camcode: running with config %q", *device)
	<-done
	glog.Info("camcode: stopped")
}
