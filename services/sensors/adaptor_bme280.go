// services/sensors/adaptor_bme280.go
package sensors

import (
	"context"
	"time"

	"altruist-go/errcode"
	"altruist-go/types"
	"altruist-go/x/mathx"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/bme280"
)

// Plausibility bounds per the BME280 datasheet operating range.
const (
	bmeTempMin, bmeTempMax = -400, 850   // deci-°C
	bmePresMin, bmePresMax = 3000, 11000 // deci-hPa
)

type bme280Driver struct {
	dev    bme280.Device
	warmup time.Duration
}

// NewBME280 binds the TinyGo BME280 register driver to the task contract.
// The I2C bus instance is exclusively owned by this sensor's task.
func NewBME280(bus drivers.I2C, addr uint16, warmup time.Duration) Driver {
	dev := bme280.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	return &bme280Driver{dev: dev, warmup: warmup}
}

func (d *bme280Driver) ID() types.SensorID { return types.BME280 }

func (d *bme280Driver) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.dev.Configure()
	if !d.dev.Connected() {
		return errcode.Wrap(errcode.TransportError, "bme280.init", errcode.TransportError)
	}
	return nil
}

func (d *bme280Driver) WarmUp() time.Duration { return d.warmup }

func (d *bme280Driver) Read(ctx context.Context) (any, error) {
	// Each register read is one short I2C transaction; check the deadline
	// between them so a wedged bus cannot overrun the caller's budget by
	// more than a single transfer.
	milliC, err := d.dev.ReadTemperature()
	if err != nil {
		return nil, errcode.Wrap(errcode.TransportError, "bme280.temperature", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	milliPa, err := d.dev.ReadPressure()
	if err != nil {
		return nil, errcode.Wrap(errcode.TransportError, "bme280.pressure", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	centiRH, err := d.dev.ReadHumidity()
	if err != nil {
		return nil, errcode.Wrap(errcode.TransportError, "bme280.humidity", err)
	}

	return envFromMilli(milliC, milliPa, centiRH)
}

// envFromMilli rescales the register driver's units (milli-°C, milli-Pa,
// centi-%RH) into the reading payload and applies the plausibility bounds.
func envFromMilli(milliC, milliPa, centiRH int32) (any, error) {
	deciC := milliC / 100
	deciHPa := milliPa / 10_000
	if !mathx.Between(deciC, bmeTempMin, bmeTempMax) ||
		!mathx.Between(deciHPa, bmePresMin, bmePresMax) {
		// Register garbage decodes into impossible physics.
		return nil, errcode.Wrap(errcode.DecodeError, "bme280.read", errcode.DecodeError)
	}
	return types.EnvValue{
		DeciC:   int16(deciC),
		RHx100:  uint16(mathx.Clamp(centiRH, 0, 10_000)),
		DeciHPa: deciHPa,
	}, nil
}
