package types

import "context"

// UARTPort is the byte-stream transport handed to a UART sensor driver.
// Each port is exclusively owned by one sensor task.
type UARTPort interface {
	// TX
	Write(p []byte) (int, error)

	// RX: receive at least one byte, bounded by ctx.
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// AnalogLine is the sampled-voltage transport for analog sensors.
type AnalogLine interface {
	// ReadMillivolts samples the line once, bounded by ctx.
	ReadMillivolts(ctx context.Context) (int32, error)
}
