// services/sensors/adaptor_me2co.go
package sensors

import (
	"context"
	"errors"
	"time"

	"altruist-go/drivers/me2co"
	"altruist-go/errcode"
	"altruist-go/types"
)

type me2coDriver struct {
	dev    me2co.Device
	warmup time.Duration
}

// NewME2CO binds the CO conversion driver to the task contract.
func NewME2CO(line types.AnalogLine, warmup time.Duration) Driver {
	dev := me2co.New(line)
	dev.Configure()
	return &me2coDriver{dev: dev, warmup: warmup}
}

func (d *me2coDriver) ID() types.SensorID { return types.ME2CO }

func (d *me2coDriver) Init(ctx context.Context) error { return ctx.Err() }

func (d *me2coDriver) WarmUp() time.Duration { return d.warmup }

func (d *me2coDriver) Read(ctx context.Context) (any, error) {
	s, err := d.dev.ReadPPM(ctx)
	if err != nil {
		switch {
		case errors.Is(err, me2co.ErrRange):
			return nil, errcode.Wrap(errcode.DecodeError, "me2co.read", err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, errcode.Wrap(errcode.TransportError, "me2co.read", err)
		}
	}
	return types.COValue{DeciPPM: s.DeciPPM, Millivolts: s.Millivolts}, nil
}
