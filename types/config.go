package types

import "time"

// AggregatorConfig arrives retained on config/aggregator.
type AggregatorConfig struct {
	CycleMs int `json:"cycle_ms"`
}

func (c AggregatorConfig) Cycle() time.Duration {
	if c.CycleMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.CycleMs) * time.Millisecond
}

// SensorConfig holds one sensor task's timings and transport binding.
// Zero fields fall back to the defaults below.
type SensorConfig struct {
	ReadTimeoutMs int `json:"read_timeout_ms"`
	IntervalMs    int `json:"interval_ms"`
	BackoffBaseMs int `json:"backoff_base_ms"`
	BackoffCapMs  int `json:"backoff_cap_ms"`
	WarmupMs      int `json:"warmup_ms"`

	// Transport binding (board bring-up decides what the ids mean).
	UART string `json:"uart,omitempty"`
	Bus  string `json:"bus,omitempty"`
	Addr uint16 `json:"addr,omitempty"`
	ADC  string `json:"adc,omitempty"`
}

func (c SensorConfig) ReadTimeout() time.Duration { return msOr(c.ReadTimeoutMs, 1500) }
func (c SensorConfig) Interval() time.Duration    { return msOr(c.IntervalMs, 5000) }
func (c SensorConfig) BackoffBase() time.Duration { return msOr(c.BackoffBaseMs, 1000) }
func (c SensorConfig) BackoffCap() time.Duration  { return msOr(c.BackoffCapMs, 60000) }
func (c SensorConfig) Warmup() time.Duration      { return msOr(c.WarmupMs, 0) }

// SensorsConfig arrives retained on config/sensors.
type SensorsConfig map[SensorID]SensorConfig

func msOr(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}
