package config

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"os"

	"github.com/golang/glog"

	"camcode-go/bus"
	"camcode-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

//go:embed configs/*.json
var embedded embed.FS

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, err := embedded.ReadFile("configs/" + device + ".json")
	return b, err == nil
}

// Sections with a typed payload; anything else is published as decoded JSON.
var sectionDecoders = map[string]func(json.RawMessage) (any, error){
	"hal": func(raw json.RawMessage) (any, error) {
		var c types.HALConfig
		err := json.Unmarshal(raw, &c)
		return c, err
	},
	"heartbeat": func(raw json.RawMessage) (any, error) {
		var c types.HeartbeatConfig
		err := json.Unmarshal(raw, &c)
		return c, err
	},
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	Path string // optional file overriding the embedded config
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

func (s *ConfigService) load(ctx context.Context) ([]byte, error) {
	if s.Path != "" {
		return os.ReadFile(s.Path)
	}
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return nil, errors.New("missing device ID in context")
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for device: " + device)
	}
	return raw, nil
}

// publishConfig publishes each top-level section as a retained message on
// config/<section>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	raw, err := s.load(ctx)
	if err != nil {
		return err
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return errors.New("config is not a JSON object: " + err.Error())
	}

	for k, v := range sections {
		var payload any
		if dec, ok := sectionDecoders[k]; ok {
			payload, err = dec(v)
		} else {
			err = json.Unmarshal(v, &payload)
		}
		if err != nil {
			glog.Errorf("config: section %q: %v", k, err)
			continue
		}
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), payload, true))
		glog.V(1).Infof("config: published %s/%s", configPrefix, k)
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			glog.Errorf("config: %v", err)
		}
	}()
}
