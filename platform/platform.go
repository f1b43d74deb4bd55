// Package platform resolves transport IDs from the device configuration
// ("uart1", "i2c0", "adc0") to concrete ports. The rp2 build talks to real
// peripherals; every other build gets simulated ones so the full pipeline
// runs on a development host.
package platform

import (
	"io"

	"altruist-go/types"

	"tinygo.org/x/drivers"
)

// Set is everything the boot sequence needs from the board.
type Set struct {
	UARTs map[string]types.UARTPort
	I2Cs  map[string]drivers.I2C
	ADCs  map[string]types.AnalogLine
	Out   io.Writer
}

func (s *Set) UART(id string) (types.UARTPort, bool) {
	p, ok := s.UARTs[id]
	return p, ok
}

func (s *Set) I2C(id string) (drivers.I2C, bool) {
	b, ok := s.I2Cs[id]
	return b, ok
}

func (s *Set) ADC(id string) (types.AnalogLine, bool) {
	l, ok := s.ADCs[id]
	return l, ok
}
