// Package me2co converts the amplified output of a Winsen ME2-CO
// electrochemical carbon monoxide cell into tenths of ppm.
//
// The cell's conditioning circuit produces a voltage that rises linearly
// with CO concentration from a clean-air baseline. The conversion stays in
// integer fixed point: with sensitivity in µV/ppm,
//
//	deci-ppm = (mv - zero_mv) * 10_000 / sens_uv_per_ppm
//
// A sample outside the electrical range of the line is a decode failure,
// not a zero reading; distinguishing the two is what keeps a broken wire
// from looking like clean air.
package me2co

import (
	"context"
	"errors"

	"altruist-go/types"
	"altruist-go/x/mathx"
)

// Errors returned by the driver.
var (
	ErrRange = errors.New("me2co: sample outside line range")
)

// Config holds the conversion curve. All fields are optional.
type Config struct {
	// ZeroMV is the clean-air output level. Default 400 mV.
	ZeroMV int32
	// SensUVPerPPM is the output slope in µV/ppm. Default 2400.
	SensUVPerPPM int32
	// FullScaleMV is the electrical ceiling of the line (ADC reference).
	// Samples above it, or below 0, fail with ErrRange. Default 3300 mV.
	FullScaleMV int32
	// MaxDeciPPM caps the converted value. Default 10000 (1000.0 ppm).
	MaxDeciPPM int32
}

// Sample is one converted measurement.
type Sample struct {
	DeciPPM    int32 // tenths of ppm
	Millivolts int32 // raw line level
}

// Device wraps an analog line connected to the ME2-CO conditioning circuit.
type Device struct {
	line types.AnalogLine
	cfg  Config
}

// New creates a new ME2-CO connection. The line must already be configured.
func New(line types.AnalogLine) Device {
	return Device{line: line}
}

// Configure applies optional config.
func (d *Device) Configure(cfgs ...Config) {
	if len(cfgs) > 0 {
		d.cfg = cfgs[0]
	}
	if d.cfg.ZeroMV <= 0 {
		d.cfg.ZeroMV = 400
	}
	if d.cfg.SensUVPerPPM <= 0 {
		d.cfg.SensUVPerPPM = 2400
	}
	if d.cfg.FullScaleMV <= 0 {
		d.cfg.FullScaleMV = 3300
	}
	if d.cfg.MaxDeciPPM <= 0 {
		d.cfg.MaxDeciPPM = 10000
	}
}

// ReadPPM samples the line once and converts. Bounded by ctx via the line.
func (d *Device) ReadPPM(ctx context.Context) (Sample, error) {
	if d.cfg.FullScaleMV == 0 {
		d.Configure()
	}
	mv, err := d.line.ReadMillivolts(ctx)
	if err != nil {
		return Sample{}, err
	}
	if !mathx.Between(mv, 0, d.cfg.FullScaleMV) {
		return Sample{}, ErrRange
	}
	// Readings below the baseline are electrical noise, not negative CO.
	delta := mathx.Max(mv-d.cfg.ZeroMV, 0)
	deci := mathx.Clamp(delta*10_000/d.cfg.SensUVPerPPM, 0, d.cfg.MaxDeciPPM)
	return Sample{DeciPPM: deci, Millivolts: mv}, nil
}
