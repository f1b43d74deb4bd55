//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"altruist-go/types"

	"tinygo.org/x/drivers"
)

// Open returns simulated transports. The particulate UART and the CO line
// produce plausible wandering values; the I2C bus reports no device, which
// exercises the degraded path end to end.
func Open() *Set {
	return &Set{
		UARTs: map[string]types.UARTPort{
			"uart1": newSimPMPort(),
		},
		I2Cs: map[string]drivers.I2C{
			"i2c0": &hostI2C{},
		},
		ADCs: map[string]types.AnalogLine{
			"adc0": &simCOLine{mv: 520},
		},
		Out: os.Stdout,
	}
}

// ----------------------------- UART (host) ------------------------------------

// simPMPort emits one particulate data frame per RecvSomeContext call after a
// short delay, values drifting slowly.
type simPMPort struct {
	mu    sync.Mutex
	pend  []byte
	pm25  int32 // tenths of ug/m3
	pm10  int32
	step  int32
	wrote []byte
}

func newSimPMPort() *simPMPort {
	return &simPMPort{pm25: 123, pm10: 201, step: 3}
}

func (p *simPMPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	p.wrote = append(p.wrote, b...)
	p.mu.Unlock()
	return len(b), nil
}

func (p *simPMPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	p.mu.Lock()
	if len(p.pend) == 0 {
		p.pm25 += p.step
		p.pm10 += p.step
		if p.pm25 > 300 || p.pm25 < 50 {
			p.step = -p.step
		}
		p.pend = pmFrame(uint16(p.pm25), uint16(p.pm10))
	}
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(buf, p.pend)
	p.pend = p.pend[n:]
	return n, nil
}

func pmFrame(pm25, pm10 uint16) []byte {
	f := []byte{
		0xAA, 0xC0,
		byte(pm25), byte(pm25 >> 8),
		byte(pm10), byte(pm10 >> 8),
		0x11, 0x22,
		0x00, 0xAB,
	}
	var sum byte
	for _, b := range f[2:8] {
		sum += b
	}
	f[8] = sum
	return f
}

// ----------------------------- I2C (host) -------------------------------------

var errNoDevice = errors.New("i2c: no device on bus")

// hostI2C has no devices attached; every transaction fails.
type hostI2C struct{}

func (h *hostI2C) Tx(addr uint16, w, r []byte) error { return errNoDevice }

// ----------------------------- ADC (host) -------------------------------------

type simCOLine struct {
	mu   sync.Mutex
	mv   int32
	step int32
}

func (l *simCOLine) ReadMillivolts(ctx context.Context) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.step == 0 {
		l.step = 2
	}
	l.mv += l.step
	if l.mv > 700 || l.mv < 420 {
		l.step = -l.step
	}
	return l.mv, nil
}
