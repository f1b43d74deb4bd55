// Package sds011 decodes the Nova Fitness SDS011 particulate matter sensor's
// active-reporting UART protocol (9600 8N1, one 10-byte frame per second):
//
//	AA C0 <pm25 lo> <pm25 hi> <pm10 lo> <pm10 hi> <id1> <id2> <sum> AB
//
// where <sum> is the low byte of the sum of bytes 2..7. Values are tenths of
// µg/m³, which the driver passes through unscaled (fixed point, no floats).
//
// ReadFrame performs one decode attempt: it consumes bytes until a complete
// frame is seen or ctx expires. After a bad frame the offending bytes are
// discarded so the stream resynchronizes on the next frame head.
package sds011

import (
	"context"
	"errors"
)

// Frame layout.
const (
	frameLen = 10
	head     = 0xAA
	cmdData  = 0xC0
	tail     = 0xAB
)

// Errors returned by the driver.
var (
	ErrChecksum = errors.New("sds011: checksum mismatch")
	ErrFraming  = errors.New("sds011: framing error")
)

// Port is the receive side the driver needs from its UART.
type Port interface {
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// MaxScan bounds how many bytes one ReadFrame call may discard while
	// hunting for a frame head before giving up with ErrFraming. Default 64.
	MaxScan int
}

// Sample is one decoded measurement, in tenths of µg/m³.
type Sample struct {
	PM25x10  uint16
	PM10x10  uint16
	DeviceID uint16
}

// Device wraps a UART connection to an SDS011 in active reporting mode.
type Device struct {
	port Port
	cfg  Config

	// Carry-over bytes between ReadFrame calls; at most one frame's worth.
	pend []byte
	buf  [frameLen]byte
}

// New creates a new SDS011 connection. The UART must already be configured.
func New(port Port) Device {
	return Device{port: port}
}

// Configure applies optional config.
func (d *Device) Configure(cfgs ...Config) {
	if len(cfgs) > 0 {
		d.cfg = cfgs[0]
	}
	if d.cfg.MaxScan <= 0 {
		d.cfg.MaxScan = 64
	}
	if d.pend == nil {
		d.pend = make([]byte, 0, 2*frameLen)
	}
}

// ReadFrame consumes bytes until one complete frame is decoded or ctx
// expires. A checksum or framing failure discards the bad bytes and returns
// immediately; the caller decides about retries.
func (d *Device) ReadFrame(ctx context.Context) (Sample, error) {
	if d.cfg.MaxScan == 0 {
		d.Configure()
	}
	scanned := 0
	for {
		// Drop leading junk until a plausible frame head.
		for len(d.pend) >= 2 && !(d.pend[0] == head && d.pend[1] == cmdData) {
			d.pend = d.pend[1:]
			scanned++
			if scanned > d.cfg.MaxScan {
				d.pend = d.pend[:0]
				return Sample{}, ErrFraming
			}
		}

		if len(d.pend) >= frameLen && d.pend[0] == head && d.pend[1] == cmdData {
			copy(d.buf[:], d.pend[:frameLen])
			d.pend = d.pend[frameLen:]
			return d.decode()
		}

		n, err := d.port.RecvSomeContext(ctx, d.buf[:])
		if n > 0 {
			d.pend = append(d.pend, d.buf[:n]...)
		}
		if err != nil {
			return Sample{}, err
		}
	}
}

func (d *Device) decode() (Sample, error) {
	f := d.buf
	if f[frameLen-1] != tail {
		return Sample{}, ErrFraming
	}
	var sum byte
	for _, b := range f[2:8] {
		sum += b
	}
	if sum != f[8] {
		return Sample{}, ErrChecksum
	}
	return Sample{
		PM25x10:  uint16(f[2]) | uint16(f[3])<<8,
		PM10x10:  uint16(f[4]) | uint16(f[5])<<8,
		DeviceID: uint16(f[6]) | uint16(f[7])<<8,
	}, nil
}
