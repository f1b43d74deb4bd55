package sensors

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"altruist-go/errcode"
	"altruist-go/types"
)

// fakeDriver scripts read outcomes: one entry per Read call, the last entry
// repeating forever. A nil entry means success.
type fakeDriver struct {
	id       types.SensorID
	script   []error
	mu       sync.Mutex
	reads    int
	blockFor time.Duration // simulate a slow exchange
}

func (f *fakeDriver) ID() types.SensorID             { return f.id }
func (f *fakeDriver) Init(ctx context.Context) error { return ctx.Err() }
func (f *fakeDriver) WarmUp() time.Duration          { return 0 }

func (f *fakeDriver) Read(ctx context.Context) (any, error) {
	f.mu.Lock()
	i := f.reads
	f.reads++
	f.mu.Unlock()
	if f.blockFor > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.blockFor):
		}
	}
	if len(f.script) == 0 {
		return types.COValue{DeciPPM: 10}, nil
	}
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	if err := f.script[i]; err != nil {
		return nil, err
	}
	return types.COValue{DeciPPM: 10}, nil
}

func (f *fakeDriver) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// memLiner records tagged lines.
type memLiner struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLiner) Line(tag, msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, "["+tag+"] "+msg)
	l.mu.Unlock()
}

func (l *memLiner) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func cfgFast() types.SensorConfig {
	return types.SensorConfig{
		ReadTimeoutMs: 30,
		IntervalMs:    10,
		BackoffBaseMs: 10,
		BackoffCapMs:  40,
	}
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTask_PublishesOkReading(t *testing.T) {
	drv := &fakeDriver{id: types.ME2CO}
	log := &memLiner{}
	task := NewTask(drv, cfgFast(), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)

	waitFor(t, time.Second, func() bool {
		_, _, ok := task.Slot().Peek()
		return ok
	})

	r, _, _ := task.Slot().Peek()
	if r.Status != types.StatusOk || r.Sensor != types.ME2CO {
		t.Fatalf("reading = %+v, want Ok ME2-CO", r)
	}
	if r.Payload.(types.COValue).DeciPPM != 10 {
		t.Fatalf("payload = %+v", r.Payload)
	}
	if r.TsMs == 0 {
		t.Fatal("missing producer timestamp")
	}
}

func TestTask_TimeoutPublishesStatusAndBacksOff(t *testing.T) {
	// Driver blocks longer than the read timeout: every attempt times out.
	drv := &fakeDriver{id: types.SDS011, blockFor: time.Second}
	log := &memLiner{}
	task := NewTask(drv, cfgFast(), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)

	waitFor(t, 2*time.Second, func() bool {
		r, _, ok := task.Slot().Peek()
		return ok && r.Status == types.StatusTimeout
	})

	waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(log.joined(), "backing off")
	})
	if !strings.Contains(log.joined(), "read timeout") {
		t.Fatalf("log lacks timeout token:\n%s", log.joined())
	}
}

func TestTask_DecodeErrorBacksOffThenRecovers(t *testing.T) {
	decodeErr := errcode.Wrap(errcode.DecodeError, "test", errcode.DecodeError)
	drv := &fakeDriver{id: types.ME2CO, script: []error{decodeErr, decodeErr, nil}}
	log := &memLiner{}
	task := NewTask(drv, cfgFast(), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)

	waitFor(t, 2*time.Second, func() bool {
		r, _, ok := task.Slot().Peek()
		return ok && r.Status == types.StatusOk
	})

	out := log.joined()
	if !strings.Contains(out, "read decode error") {
		t.Fatalf("log lacks decode error line:\n%s", out)
	}
	if !strings.Contains(out, "recovered after 2 failed attempts") {
		t.Fatalf("log lacks recovery line:\n%s", out)
	}
}

func TestTask_BackoffSlowsAttempts(t *testing.T) {
	boom := errcode.Wrap(errcode.TransportError, "test", errcode.TransportError)
	drv := &fakeDriver{id: types.BME280, script: []error{boom}}
	cfg := types.SensorConfig{
		ReadTimeoutMs: 20,
		IntervalMs:    5,
		BackoffBaseMs: 40,
		BackoffCapMs:  160,
	}
	task := NewTask(drv, cfg, &memLiner{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)

	// With delays 40,80,160,160... at most ~6 attempts fit in 400ms.
	time.Sleep(400 * time.Millisecond)
	if n := drv.readCount(); n > 8 {
		t.Fatalf("too many attempts under backoff: %d", n)
	}
	if n := drv.readCount(); n < 2 {
		t.Fatalf("task stopped retrying: %d attempts", n)
	}
}

func TestTask_NeverTerminatesOnFault(t *testing.T) {
	boom := errcode.Wrap(errcode.TransportError, "test", errcode.TransportError)
	drv := &fakeDriver{id: types.BME280, script: []error{boom}}
	task := NewTask(drv, cfgFast(), &memLiner{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)

	before := drv.readCount()
	time.Sleep(300 * time.Millisecond)
	if drv.readCount() == before {
		t.Fatal("task stopped attempting after faults")
	}

	// Cancellation is the only way out.
	cancel()
	time.Sleep(50 * time.Millisecond)
	stopped := drv.readCount()
	time.Sleep(150 * time.Millisecond)
	if drv.readCount() != stopped {
		t.Fatal("task kept reading after cancel")
	}
}

func TestStatusOf_Classification(t *testing.T) {
	if got := statusOf(context.DeadlineExceeded); got != types.StatusTimeout {
		t.Fatalf("deadline -> %v", got)
	}
	if got := statusOf(errcode.Wrap(errcode.DecodeError, "x", nil)); got != types.StatusDecodeError {
		t.Fatalf("decode -> %v", got)
	}
	if got := statusOf(errcode.Timeout); got != types.StatusTimeout {
		t.Fatalf("timeout code -> %v", got)
	}
	if got := statusOf(errcode.Wrap(errcode.TransportError, "x", nil)); got != types.StatusTransportError {
		t.Fatalf("transport -> %v", got)
	}
}
