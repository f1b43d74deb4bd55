// Package report renders snapshots and task events as tagged serial lines:
//
//	[<TAG>] <message>
//
// The tags SDS011, BME280, ME2-CO and AGGREGATOR, and the substrings
// "error", "timeout" and "backing off" are matched verbatim by the external
// log colouring tool; renaming any of them breaks it.
package report

import (
	"io"
	"strconv"
	"sync"

	"altruist-go/types"
)

// Sink accepts completed snapshots.
type Sink interface {
	Emit(snap types.Snapshot)
}

// Liner accepts free-form tagged lines (task lifecycle events).
type Liner interface {
	Line(tag, msg string)
}

// SerialSink renders onto one writer. A mutex serializes whole lines so
// concurrent tasks never interleave partial output.
type SerialSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSerialSink(w io.Writer) *SerialSink {
	return &SerialSink{w: w}
}

// Line writes one tagged line.
func (s *SerialSink) Line(tag, msg string) {
	s.mu.Lock()
	s.writeLine(tag, msg)
	s.mu.Unlock()
}

// Emit renders one line per sensor in fixed order, then the summary line.
func (s *SerialSink) Emit(snap types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	okCount := 0
	var degraded []types.SensorID
	for _, id := range types.SensorOrder {
		if r, ok := snap.Readings[id]; ok {
			okCount++
			s.writeLine(id.Tag(), renderPayload(r.Payload))
			continue
		}
		st, ok := snap.Degraded[id]
		if !ok {
			continue // sensor not part of this build
		}
		degraded = append(degraded, id)
		if st == types.StatusMissing {
			s.writeLine(id.Tag(), "no fresh reading")
		} else {
			s.writeLine(id.Tag(), "no fresh reading: "+st.String())
		}
	}

	total := okCount + len(degraded)
	msg := "cycle=" + strconv.FormatInt(snap.CycleTs, 10) +
		" ok=" + strconv.Itoa(okCount) + "/" + strconv.Itoa(total) +
		" degraded="
	if len(degraded) == 0 {
		msg += "none"
	} else {
		for i, id := range degraded {
			if i > 0 {
				msg += ","
			}
			msg += id.Tag()
		}
	}
	s.writeLine("AGGREGATOR", msg)
}

func (s *SerialSink) writeLine(tag, msg string) {
	// One Write per line keeps output whole even on unbuffered serial.
	b := make([]byte, 0, 4+len(tag)+len(msg))
	b = append(b, '[')
	b = append(b, tag...)
	b = append(b, "] "...)
	b = append(b, msg...)
	b = append(b, '\n')
	_, _ = s.w.Write(b)
}

func renderPayload(p any) string {
	switch v := p.(type) {
	case types.PMValue:
		return "pm2.5=" + Deci(int64(v.PM25x10)) + " ug/m3 pm10=" + Deci(int64(v.PM10x10)) + " ug/m3"
	case types.EnvValue:
		return "t=" + Deci(int64(v.DeciC)) + "C rh=" + Centi(int64(v.RHx100)) + "% p=" + Deci(int64(v.DeciHPa)) + "hPa"
	case types.COValue:
		return "co=" + Deci(int64(v.DeciPPM)) + "ppm"
	default:
		return "unknown payload"
	}
}
