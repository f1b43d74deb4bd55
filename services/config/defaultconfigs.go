package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgAltruist = `{
  "aggregator": {
    "cycle_ms": 10000
  },
  "sensors": {
    "SDS011": {
      "read_timeout_ms": 1500,
      "interval_ms": 5000,
      "backoff_base_ms": 1000,
      "backoff_cap_ms": 60000,
      "warmup_ms": 15000,
      "uart": "uart1"
    },
    "BME280": {
      "read_timeout_ms": 500,
      "interval_ms": 5000,
      "backoff_base_ms": 1000,
      "backoff_cap_ms": 60000,
      "warmup_ms": 2000,
      "bus": "i2c0",
      "addr": 118
    },
    "ME2-CO": {
      "read_timeout_ms": 250,
      "interval_ms": 5000,
      "backoff_base_ms": 1000,
      "backoff_cap_ms": 60000,
      "warmup_ms": 3000,
      "adc": "adc0"
    }
  }
}`

var embeddedConfigs = map[string][]byte{
	"altruist": []byte(cfgAltruist),
}
