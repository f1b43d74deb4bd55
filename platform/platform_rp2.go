//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"os"

	"altruist-go/types"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// Board wiring (Pico defaults).
const (
	pmUARTBaud = 9600 // SDS011 fixed rate
	pmUARTTX   = machine.Pin(8)
	pmUARTRX   = machine.Pin(9)

	envI2CSDA = machine.Pin(4)
	envI2CSCL = machine.Pin(5)
	envI2CHz  = 100_000

	coADCPin = machine.ADC0 // GP26
	vrefMV   = 3300
)

// Open configures the real peripherals and returns them keyed by the IDs the
// device configuration uses.
func Open() *Set {
	u1 := uartx.UART1
	_ = u1.Configure(uartx.UARTConfig{
		BaudRate: pmUARTBaud,
		TX:       pmUARTTX,
		RX:       pmUARTRX,
	})

	sda := envI2CSDA
	scl := envI2CSCL
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	_ = machine.I2C0.Configure(machine.I2CConfig{
		SDA:       sda,
		SCL:       scl,
		Frequency: envI2CHz,
	})

	machine.InitADC()
	co := machine.ADC{Pin: coADCPin}
	co.Configure(machine.ADCConfig{})

	return &Set{
		UARTs: map[string]types.UARTPort{
			"uart1": &rp2SerialPort{u: u1},
		},
		I2Cs: map[string]drivers.I2C{
			"i2c0": machine.I2C0,
		},
		ADCs: map[string]types.AnalogLine{
			"adc0": &rp2AnalogLine{adc: co},
		},
		Out: os.Stdout,
	}
}

// rp2SerialPort adapts uartx to the firmware's UART contract.
type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}

// rp2AnalogLine converts the 16-bit-scaled ADC reading to millivolts.
type rp2AnalogLine struct{ adc machine.ADC }

func (l *rp2AnalogLine) ReadMillivolts(ctx context.Context) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw := uint32(l.adc.Get())
	return int32(raw * vrefMV / 0xFFFF), nil
}
