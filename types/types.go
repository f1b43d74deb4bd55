package types

// SensorID identifies one physical sensor. The string value doubles as the
// log tag, so it must match the serial highlighting patterns exactly.
type SensorID string

const (
	SDS011 SensorID = "SDS011"
	BME280 SensorID = "BME280"
	ME2CO  SensorID = "ME2-CO"
)

// SensorOrder fixes the rendering and collection order across the device.
var SensorOrder = []SensorID{SDS011, BME280, ME2CO}

// Tag returns the log tag for this sensor.
func (s SensorID) Tag() string { return string(s) }

// Status classifies the outcome of one read attempt.
type Status uint8

const (
	StatusOk Status = iota
	StatusTimeout
	StatusDecodeError
	StatusTransportError
	StatusMissing // no fresh reading this cycle
)

// String forms are part of the serial log contract: downstream colouring
// matches on the literal substrings "timeout" and "error".
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusDecodeError:
		return "decode error"
	case StatusTransportError:
		return "transport error"
	default:
		return "missing"
	}
}

// Reading is one datum from one sensor task. Payload is set only for
// StatusOk and holds one of the fixed-point value structs below.
type Reading struct {
	Sensor  SensorID
	TsMs    int64 // producer timestamp
	Status  Status
	Payload any
}

// ------------------------
// Fixed-point payloads
// ------------------------

// PMValue carries particulate matter in tenths of µg/m³.
type PMValue struct {
	PM25x10 int32 `json:"pm25_x10"`
	PM10x10 int32 `json:"pm10_x10"`
}

// EnvValue carries temperature, humidity and pressure.
type EnvValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC int16 `json:"deci_c"`
	// Hundredths of %RH (0..10000 for 0..100.00%).
	RHx100 uint16 `json:"rh_x100"`
	// Tenths of hPa (e.g. 10132 => 1013.2 hPa).
	DeciHPa int32 `json:"deci_hpa"`
}

// COValue carries carbon monoxide in tenths of ppm.
type COValue struct {
	DeciPPM int32 `json:"deci_ppm"`
	// Raw line level the conversion was derived from.
	Millivolts int32 `json:"mv"`
}

// Snapshot is one cycle's aggregated view across all sensors. A sensor id
// appears in exactly one of Readings or Degraded. Snapshots are immutable
// once handed to the sink.
type Snapshot struct {
	CycleTs  int64 // strictly increasing across consecutive snapshots
	Readings map[SensorID]Reading
	Degraded map[SensorID]Status
}

// Has reports whether the snapshot carries a fresh Ok reading for id.
func (s Snapshot) Has(id SensorID) bool {
	_, ok := s.Readings[id]
	return ok
}
