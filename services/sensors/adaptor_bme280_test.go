package sensors

import (
	"context"
	"errors"
	"sync"
	"testing"

	"altruist-go/types"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*regI2C)(nil)

// regI2C is a scripted register file behind the drivers.I2C contract. A
// one-byte write selects the start register and a read returns consecutive
// bytes from there; a longer write stores bytes at the addressed register.
// This serves the register driver whatever its read chunking is.
type regI2C struct {
	mu   sync.Mutex
	regs [256]byte
	err  error
}

func (f *regI2C) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	switch {
	case len(w) == 1 && len(r) > 0:
		copy(r, f.regs[w[0]:])
	case len(w) >= 2:
		copy(f.regs[w[0]:], w[1:])
	}
	return nil
}

func (f *regI2C) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// newFakeBME280 seeds the register file with the Bosch reference calibration
// set and one measurement: raw temperature 519888 (25.08 °C) and raw
// pressure 415148 from the datasheet's compensation example.
func newFakeBME280() *regI2C {
	f := &regI2C{}
	f.regs[0xD0] = 0x60 // chip ID

	cal := []byte{
		0x70, 0x6B, // T1 27504
		0x43, 0x67, // T2 26435
		0x18, 0xFC, // T3 -1000
		0x7D, 0x8E, // P1 36477
		0x43, 0xD6, // P2 -10685
		0xD0, 0x0B, // P3 3024
		0x27, 0x0B, // P4 2855
		0x8C, 0x00, // P5 140
		0xF9, 0xFF, // P6 -7
		0x8C, 0x3C, // P7 15500
		0xF8, 0xC6, // P8 -14600
		0x70, 0x17, // P9 6000
	}
	copy(f.regs[0x88:], cal)
	f.regs[0xA1] = 75                                                     // H1
	copy(f.regs[0xE1:], []byte{0x69, 0x01, 0x00, 0x14, 0x23, 0x03, 0x1E}) // H2..H6

	// Burst block at 0xF7: press msb/lsb/xlsb, temp msb/lsb/xlsb, hum msb/lsb.
	copy(f.regs[0xF7:], []byte{0x65, 0x5A, 0xC0, 0x7E, 0xED, 0x00, 0x70, 0x00})
	return f
}

// setRawTemp pokes a 20-bit raw temperature into the measurement block.
func (f *regI2C) setRawTemp(raw uint32) {
	f.mu.Lock()
	f.regs[0xFA] = byte(raw >> 12)
	f.regs[0xFB] = byte(raw >> 4)
	f.regs[0xFC] = byte(raw&0xF) << 4
	f.mu.Unlock()
}

func TestBME280_InitChecksChipID(t *testing.T) {
	f := newFakeBME280()
	drv := NewBME280(f, 0, 0)
	if err := drv.Init(context.Background()); err != nil {
		t.Fatalf("init with correct chip ID: %v", err)
	}

	f.regs[0xD0] = 0x58 // different part on the bus
	drv2 := NewBME280(f, 0, 0)
	err := drv2.Init(context.Background())
	if err == nil {
		t.Fatal("expected init failure for wrong chip ID")
	}
	if statusOf(err) != types.StatusTransportError {
		t.Fatalf("wrong chip ID classified %v, want transport error", statusOf(err))
	}
}

func TestBME280_ReadConvertsReferenceValues(t *testing.T) {
	f := newFakeBME280()
	drv := NewBME280(f, 0, 0)
	if err := drv.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	payload, err := drv.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, ok := payload.(types.EnvValue)
	if !ok {
		t.Fatalf("payload type %T", payload)
	}
	// Reference raw temperature compensates to 25.08 °C.
	if env.DeciC < 245 || env.DeciC > 255 {
		t.Fatalf("DeciC = %d, want ~250", env.DeciC)
	}
	// Reference raw pressure lands at normal atmosphere.
	if env.DeciHPa < 9500 || env.DeciHPa > 10200 {
		t.Fatalf("DeciHPa = %d, want ~atmospheric", env.DeciHPa)
	}
	if env.RHx100 > 10000 {
		t.Fatalf("RHx100 = %d, clamp breached", env.RHx100)
	}
}

func TestBME280_ImplausibleTemperatureIsDecodeError(t *testing.T) {
	f := newFakeBME280()
	drv := NewBME280(f, 0, 0)
	if err := drv.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	// Raw ADC ceiling compensates to far beyond the part's operating range.
	f.setRawTemp(0xFFFFF)
	_, err := drv.Read(context.Background())
	if err == nil {
		t.Fatal("expected decode failure for implausible reading")
	}
	if statusOf(err) != types.StatusDecodeError {
		t.Fatalf("classified %v, want decode error", statusOf(err))
	}
}

func TestBME280_BusFaultIsTransportError(t *testing.T) {
	f := newFakeBME280()
	drv := NewBME280(f, 0, 0)
	if err := drv.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	f.fail(errors.New("i2c: nack"))
	_, err := drv.Read(context.Background())
	if err == nil {
		t.Fatal("expected read failure on bus fault")
	}
	if statusOf(err) != types.StatusTransportError {
		t.Fatalf("classified %v, want transport error", statusOf(err))
	}
}

func TestEnvFromMilli(t *testing.T) {
	// Nominal: 25.40 °C, 1013.2 hPa, 55.00 %RH.
	p, err := envFromMilli(25400, 101_320_000, 5500)
	if err != nil {
		t.Fatalf("nominal: %v", err)
	}
	env := p.(types.EnvValue)
	if env.DeciC != 254 || env.DeciHPa != 10132 || env.RHx100 != 5500 {
		t.Fatalf("nominal = %+v", env)
	}

	// Bounds are inclusive: -40.0 °C and 1100.0 hPa pass.
	if _, err := envFromMilli(-40_000, 110_000_000, 0); err != nil {
		t.Fatalf("boundary: %v", err)
	}
	// One step beyond either bound is a decode failure.
	if _, err := envFromMilli(85_100, 101_320_000, 5500); err == nil {
		t.Fatal("over-temperature accepted")
	} else if statusOf(err) != types.StatusDecodeError {
		t.Fatalf("over-temperature classified %v", statusOf(err))
	}
	if _, err := envFromMilli(25400, 29_990_000, 5500); err == nil {
		t.Fatal("under-pressure accepted")
	}

	// Humidity clamps rather than fails.
	p, err = envFromMilli(25400, 101_320_000, 10250)
	if err != nil {
		t.Fatalf("wet: %v", err)
	}
	if p.(types.EnvValue).RHx100 != 10000 {
		t.Fatalf("RHx100 = %d, want clamped 10000", p.(types.EnvValue).RHx100)
	}
	p, _ = envFromMilli(25400, 101_320_000, -5)
	if p.(types.EnvValue).RHx100 != 0 {
		t.Fatalf("RHx100 = %d, want clamped 0", p.(types.EnvValue).RHx100)
	}
}
