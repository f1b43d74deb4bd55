// Package aggregator produces one snapshot per fixed cycle, regardless of
// individual sensor health. Slot reads never block, so a slow or dead sensor
// costs the cycle nothing: it is marked degraded and the snapshot still goes
// out on time. Stale readings are never carried across cycles.
package aggregator

import (
	"context"
	"time"

	"altruist-go/services/report"
	"altruist-go/services/sensors"
	"altruist-go/types"
	"altruist-go/x/timex"
)

// Source is one sensor's mailbox as seen by the aggregator.
type Source struct {
	ID   types.SensorID
	Slot *sensors.Slot
}

type Aggregator struct {
	cycle time.Duration
	srcs  []Source
	sink  report.Sink

	// Per-sensor identity of the last consumed reading, for staleness.
	lastSeq map[types.SensorID]uint64
	lastTs  int64
}

func New(cfg types.AggregatorConfig, srcs []Source, sink report.Sink) *Aggregator {
	return &Aggregator{
		cycle:   cfg.Cycle(),
		srcs:    srcs,
		sink:    sink,
		lastSeq: make(map[types.SensorID]uint64, len(srcs)),
	}
}

// Start runs the cycle loop until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) {
	go a.run(ctx)
}

func (a *Aggregator) run(ctx context.Context) {
	start := time.Now()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	// Cadence is anchored to the start time, not to the end of the previous
	// cycle, so time spent collecting and emitting never accumulates drift.
	for n := 1; ; n++ {
		wait := time.Until(start.Add(time.Duration(n) * a.cycle))
		if wait < 0 {
			wait = 0
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		a.sink.Emit(a.collect())
	}
}

// collect builds one snapshot from whatever is fresh right now.
func (a *Aggregator) collect() types.Snapshot {
	ts := timex.After(a.lastTs, timex.NowMs())
	a.lastTs = ts

	snap := types.Snapshot{
		CycleTs:  ts,
		Readings: make(map[types.SensorID]types.Reading, len(a.srcs)),
		Degraded: make(map[types.SensorID]types.Status, len(a.srcs)),
	}

	for _, src := range a.srcs {
		r, seq, ok := src.Slot.Peek()
		fresh := ok && seq > a.lastSeq[src.ID]
		if fresh {
			a.lastSeq[src.ID] = seq
		}
		switch {
		case fresh && r.Status == types.StatusOk:
			snap.Readings[src.ID] = r
		case fresh:
			// The task reported this cycle, but only a failure.
			snap.Degraded[src.ID] = r.Status
		default:
			// Nothing new since last cycle; a stale value is not data.
			snap.Degraded[src.ID] = types.StatusMissing
		}
	}
	return snap
}
