// Package sensors supervises one task per sensor: bounded reads, exponential
// backoff on failure, and a single-slot mailbox towards the aggregator.
// A task never terminates and never propagates an error upward; every fault
// surfaces only as a reading status, so one dead sensor degrades nothing but
// its own entries.
package sensors

import (
	"context"
	"errors"
	"time"

	"altruist-go/errcode"
	"altruist-go/types"
)

// Driver performs a single protocol exchange per Read and decodes it.
// No retry or backoff logic lives here; that is the task's job. After a
// decode failure the driver must leave its transport resynchronizable.
type Driver interface {
	ID() types.SensorID
	// Init prepares the device. Called until it succeeds, then once more
	// only if the task is restarted.
	Init(ctx context.Context) error
	// Read performs one bounded attempt and returns a fixed-point payload.
	Read(ctx context.Context) (any, error)
	// WarmUp is how long the sensor needs after Init before readings are
	// trustworthy.
	WarmUp() time.Duration
}

// statusOf classifies a read failure for the published reading.
func statusOf(err error) types.Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.StatusTimeout
	}
	switch errcode.Of(err) {
	case errcode.Timeout:
		return types.StatusTimeout
	case errcode.DecodeError:
		return types.StatusDecodeError
	default:
		// Bus faults behave like a persistently silent sensor.
		return types.StatusTransportError
	}
}
