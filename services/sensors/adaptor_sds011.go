// services/sensors/adaptor_sds011.go
package sensors

import (
	"context"
	"errors"
	"time"

	"altruist-go/drivers/sds011"
	"altruist-go/errcode"
	"altruist-go/types"
)

type sds011Driver struct {
	dev    sds011.Device
	warmup time.Duration
}

// NewSDS011 binds the SDS011 frame driver to the task contract. The port is
// exclusively owned by this sensor's task.
func NewSDS011(port types.UARTPort, warmup time.Duration) Driver {
	dev := sds011.New(port)
	dev.Configure()
	return &sds011Driver{dev: dev, warmup: warmup}
}

func (d *sds011Driver) ID() types.SensorID { return types.SDS011 }

func (d *sds011Driver) Init(ctx context.Context) error {
	// Active reporting mode needs no handshake; the sensor streams frames
	// as soon as the fan spins up.
	return ctx.Err()
}

func (d *sds011Driver) WarmUp() time.Duration { return d.warmup }

func (d *sds011Driver) Read(ctx context.Context) (any, error) {
	s, err := d.dev.ReadFrame(ctx)
	if err != nil {
		return nil, classifySDS011(err)
	}
	return types.PMValue{
		PM25x10: int32(s.PM25x10),
		PM10x10: int32(s.PM10x10),
	}, nil
}

func classifySDS011(err error) error {
	switch {
	case errors.Is(err, sds011.ErrChecksum), errors.Is(err, sds011.ErrFraming):
		return errcode.Wrap(errcode.DecodeError, "sds011.read", err)
	case errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errcode.Wrap(errcode.TransportError, "sds011.read", err)
	}
}
