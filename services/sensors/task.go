package sensors

import (
	"context"
	"strconv"
	"time"

	"altruist-go/services/report"
	"altruist-go/types"
	"altruist-go/x/timex"
)

const initRetryDelay = 5 * time.Second

// Task keeps exactly one fresh reading available for its sensor, forever.
type Task struct {
	drv  Driver
	cfg  types.SensorConfig
	slot *Slot
	log  report.Liner

	backoff Backoff
	timer   *time.Timer
}

func NewTask(drv Driver, cfg types.SensorConfig, log report.Liner) *Task {
	return &Task{
		drv:  drv,
		cfg:  cfg,
		slot: &Slot{},
		log:  log,
		backoff: Backoff{
			Base: cfg.BackoffBase(),
			Cap:  cfg.BackoffCap(),
		},
	}
}

// Slot exposes the task's mailbox for the aggregator.
func (t *Task) Slot() *Slot { return t.slot }

// Start runs the supervised loop until ctx is cancelled.
func (t *Task) Start(ctx context.Context) {
	go t.run(ctx)
}

func (t *Task) run(ctx context.Context) {
	tag := t.drv.ID().Tag()
	t.timer = time.NewTimer(time.Hour)
	stopTimer(t.timer)
	defer t.timer.Stop()

	// Init until it sticks; a sensor that will not initialise is just a
	// sensor that never reads.
	for {
		if err := t.drv.Init(ctx); err == nil {
			break
		} else {
			t.log.Line(tag, "init error: "+err.Error()+", retrying in "+report.Dur(initRetryDelay))
		}
		if !t.sleep(ctx, initRetryDelay) {
			return
		}
	}

	if w := t.drv.WarmUp(); w > 0 {
		t.log.Line(tag, "warming up for "+report.Dur(w))
		if !t.sleep(ctx, w) {
			return
		}
	}

	t.log.Line(tag, "sensor task started (interval="+report.Dur(t.cfg.Interval())+
		" read timeout="+report.Dur(t.cfg.ReadTimeout())+")")

	for {
		if ctx.Err() != nil {
			return
		}
		rctx, cancel := context.WithTimeout(ctx, t.cfg.ReadTimeout())
		payload, err := t.drv.Read(rctx)
		cancel()

		if err == nil {
			if n := t.backoff.Failures(); n > 0 {
				t.log.Line(tag, "recovered after "+strconv.Itoa(n)+" failed attempts")
			}
			t.backoff.Reset()
			t.slot.Publish(types.Reading{
				Sensor:  t.drv.ID(),
				TsMs:    timex.NowMs(),
				Status:  types.StatusOk,
				Payload: payload,
			})
			if !t.sleep(ctx, t.cfg.Interval()) {
				return
			}
			continue
		}

		if ctx.Err() != nil {
			return // shutdown, not a sensor fault
		}

		st := statusOf(err)
		t.slot.Publish(types.Reading{
			Sensor: t.drv.ID(),
			TsMs:   timex.NowMs(),
			Status: st,
		})
		delay := t.backoff.Next()
		t.log.Line(tag, "read "+st.String()+" ("+strconv.Itoa(t.backoff.Failures())+
			" consecutive), backing off "+report.Dur(delay))
		if !t.sleep(ctx, delay) {
			return
		}
	}
}

// sleep suspends for d, returning false if ctx was cancelled first.
func (t *Task) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	stopTimer(t.timer)
	t.timer.Reset(d)
	select {
	case <-ctx.Done():
		return false
	case <-t.timer.C:
		return true
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
