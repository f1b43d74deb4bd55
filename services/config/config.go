package config

import (
	"context"
	"errors"

	"altruist-go/bus"
	"altruist-go/types"

	"github.com/andreyvit/tinyjson"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

// Service parses the embedded device configuration and publishes each
// section, typed, as a retained message under config/<section>. Consumers
// subscribe before startup and type-assert the payload.
type Service struct {
	Name string
}

func NewService() *Service {
	return &Service{Name: serviceName}
}

func (s *Service) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	r := tinyjson.Raw(raw)
	val := r.Value() // should be a map[string]any
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return errors.New("embedded config is not a JSON object")
	}

	conn.Publish(conn.NewMessage(
		bus.T(configPrefix, "aggregator"),
		parseAggregator(section(m, "aggregator")),
		true,
	))
	conn.Publish(conn.NewMessage(
		bus.T(configPrefix, "sensors"),
		parseSensors(section(m, "sensors")),
		true,
	))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		_ = s.publishConfig(ctx, conn) // absence is logged by the consumers' timeouts
	}()
}

// -----------------------------------------------------------------------------
// Section parsing: missing keys fall back to the types package defaults.
// -----------------------------------------------------------------------------

func section(m map[string]any, key string) map[string]any {
	s, _ := m[key].(map[string]any)
	return s
}

func parseAggregator(m map[string]any) types.AggregatorConfig {
	return types.AggregatorConfig{CycleMs: intOr(m, "cycle_ms", 0)}
}

func parseSensors(m map[string]any) types.SensorsConfig {
	out := make(types.SensorsConfig, len(m))
	for key, v := range m {
		sm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[types.SensorID(key)] = types.SensorConfig{
			ReadTimeoutMs: intOr(sm, "read_timeout_ms", 0),
			IntervalMs:    intOr(sm, "interval_ms", 0),
			BackoffBaseMs: intOr(sm, "backoff_base_ms", 0),
			BackoffCapMs:  intOr(sm, "backoff_cap_ms", 0),
			WarmupMs:      intOr(sm, "warmup_ms", 0),
			UART:          strOr(sm, "uart", ""),
			Bus:           strOr(sm, "bus", ""),
			Addr:          uint16(intOr(sm, "addr", 0)),
			ADC:           strOr(sm, "adc", ""),
		}
	}
	return out
}

func intOr(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func strOr(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return def
}
