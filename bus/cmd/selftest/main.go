//go:build rp2040 || rp2350

// On-target self-test for the acquisition pipeline's building blocks.
// Flash to a Pico: solid LED means all checks passed, slow blink means a
// failure (details on the serial console).
package main

import (
	"context"
	"strings"
	"time"

	"altruist-go/bus"
	"altruist-go/drivers/me2co"
	"altruist-go/drivers/sds011"
	"altruist-go/services/report"
	"altruist-go/services/sensors"
	"altruist-go/types"

	"machine"
)

// --- tiny logger (avoid fmt on MCU) ------------------------------------------

func logln(s string) { println(s) }

func logResult(name string, ok bool) {
	if ok {
		println("[PASS] " + name)
	} else {
		println("[FAIL] " + name)
	}
}

// --- scripted transports -------------------------------------------------------

type scriptPort struct {
	data []byte
}

func (p *scriptPort) Write(b []byte) (int, error) { return len(b), nil }

func (p *scriptPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(p.data) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	n := copy(buf, p.data)
	p.data = p.data[n:]
	return n, nil
}

type fixedLine struct{ mv int32 }

func (l fixedLine) ReadMillivolts(ctx context.Context) (int32, error) { return l.mv, nil }

type memSink struct{ b strings.Builder }

func (m *memSink) Write(p []byte) (int, error) { return m.b.Write(p) }

// --- checks --------------------------------------------------------------------

func checkRetainedReplay() bool {
	b := bus.NewBus(4)
	conn := b.NewConnection("selftest")

	conn.Publish(conn.NewMessage(bus.T("config", "aggregator"),
		types.AggregatorConfig{CycleMs: 1234}, true))

	sub := conn.Subscribe(bus.T("config", "aggregator"))
	select {
	case m := <-sub.Channel():
		cfg, ok := m.Payload.(types.AggregatorConfig)
		return ok && cfg.CycleMs == 1234
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func checkMailboxOverwrite() bool {
	b := bus.NewBus(1)
	conn := b.NewConnection("selftest")
	sub := conn.Subscribe(bus.T("state"))

	conn.Publish(conn.NewMessage(bus.T("state"), "stale", false))
	conn.Publish(conn.NewMessage(bus.T("state"), "fresh", false))

	select {
	case m := <-sub.Channel():
		return m.Payload == "fresh"
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func checkSlotFreshness() bool {
	var slot sensors.Slot
	if _, _, ok := slot.Peek(); ok {
		return false
	}
	slot.Publish(types.Reading{Sensor: types.ME2CO, Status: types.StatusOk})
	r1, seq1, ok1 := slot.Peek()
	slot.Publish(types.Reading{Sensor: types.ME2CO, Status: types.StatusTimeout})
	r2, seq2, ok2 := slot.Peek()
	return ok1 && ok2 && seq2 > seq1 &&
		r1.Status == types.StatusOk && r2.Status == types.StatusTimeout
}

func checkFrameDecode() bool {
	frame := []byte{0xAA, 0xC0, 0x7B, 0x00, 0xC9, 0x00, 0x11, 0x22, 0x00, 0xAB}
	var sum byte
	for _, b := range frame[2:8] {
		sum += b
	}
	frame[8] = sum

	dev := sds011.New(&scriptPort{data: frame})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s, err := dev.ReadFrame(ctx)
	return err == nil && s.PM25x10 == 123 && s.PM10x10 == 201
}

func checkCOConversion() bool {
	dev := me2co.New(fixedLine{mv: 424})
	s, err := dev.ReadPPM(context.Background())
	return err == nil && s.DeciPPM == 100
}

func checkSinkFormat() bool {
	out := &memSink{}
	sink := report.NewSerialSink(out)
	sink.Emit(types.Snapshot{
		CycleTs: 42,
		Readings: map[types.SensorID]types.Reading{
			types.ME2CO: {Sensor: types.ME2CO, Status: types.StatusOk,
				Payload: types.COValue{DeciPPM: 12}},
		},
		Degraded: map[types.SensorID]types.Status{
			types.SDS011: types.StatusTimeout,
			types.BME280: types.StatusMissing,
		},
	})
	got := out.b.String()
	return strings.Contains(got, "[ME2-CO] co=1.2ppm") &&
		strings.Contains(got, "[SDS011] no fresh reading: timeout") &&
		strings.Contains(got, "[AGGREGATOR] cycle=42 ok=1/3")
}

func checkBackoffSequence() bool {
	b := sensors.Backoff{Base: time.Second, Cap: 4 * time.Second}
	if b.Next() != time.Second || b.Next() != 2*time.Second {
		return false
	}
	if b.Next() != 4*time.Second || b.Next() != 4*time.Second {
		return false
	}
	b.Reset()
	return b.Next() == time.Second
}

// --- main: run all checks, report, LED status ----------------------------------

type check struct {
	name string
	fn   func() bool
}

func main() {
	// Give the USB CDC time to enumerate so logs show up reliably.
	time.Sleep(250 * time.Millisecond)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.High() // signal "running"

	checks := []check{
		{"RetainedReplay", checkRetainedReplay},
		{"MailboxOverwrite", checkMailboxOverwrite},
		{"SlotFreshness", checkSlotFreshness},
		{"FrameDecode", checkFrameDecode},
		{"COConversion", checkCOConversion},
		{"SinkFormat", checkSinkFormat},
		{"BackoffSequence", checkBackoffSequence},
	}

	passed, failed := 0, 0
	logln("== pipeline self-test starting ==")
	for _, c := range checks {
		ok := c.fn()
		logResult(c.name, ok)
		if ok {
			passed++
		} else {
			failed++
		}
		time.Sleep(10 * time.Millisecond)
	}
	if failed == 0 {
		logln("== done: all passed ==")
		for {
			led.High()
			time.Sleep(2 * time.Second)
		}
	}
	logln("== done: failures present ==")
	for {
		led.High()
		time.Sleep(250 * time.Millisecond)
		led.Low()
		time.Sleep(250 * time.Millisecond)
	}
}
