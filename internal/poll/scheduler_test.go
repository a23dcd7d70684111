package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/observability"
)

const interval = 10 * time.Second

func newTestScheduler() (*Scheduler, *clockwork.FakeClock, *observability.Metrics) {
	clock := clockwork.NewFakeClock()
	m := observability.NewMetricsForTesting()
	return NewScheduler(clock, m, logger.Noop()), clock, m
}

// counter returns a producer that yields 1, 2, 3... in call order.
func counter() Producer[int] {
	var n atomic.Int64
	return func(context.Context) (int, error) {
		return int(n.Add(1)), nil
	}
}

type recorder struct {
	results []int
	errs    []error
}

func (r *recorder) onResult(v int)    { r.results = append(r.results, v) }
func (r *recorder) onError(err error) { r.errs = append(r.errs, err) }
func (r *recorder) calls() int        { return len(r.results) + len(r.errs) }

// run executes cmd on a goroutine the way bubbletea would.
func run(cmd tea.Cmd) <-chan tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	return ch
}

func receive(t *testing.T, ch <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("command did not complete")
		return nil
	}
}

func apply(t *testing.T, s *Scheduler, msg tea.Msg) tea.Cmd {
	t.Helper()
	cmd, ok := s.Update(msg)
	require.True(t, ok, "scheduler should own %T", msg)
	return cmd
}

func TestStart_IssuesImmediately(t *testing.T) {
	s, _, _ := newTestScheduler()
	var rec recorder

	h, cmd := Start(s, "roster", interval, counter(), rec.onResult, rec.onError)
	require.NotNil(t, cmd)
	assert.True(t, h.Active())
	assert.Equal(t, "roster", h.Key())

	next := apply(t, s, cmd())
	assert.Equal(t, []int{1}, rec.results)
	assert.NotNil(t, next, "a current result re-arms the schedule")
}

func TestSchedule_IntervalAfterSettle(t *testing.T) {
	s, clock, _ := newTestScheduler()
	var rec recorder
	ctx := context.Background()

	_, cmd := Start(s, "roster", interval, counter(), rec.onResult, rec.onError)
	armed := apply(t, s, cmd())

	ticks := run(armed)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(interval - time.Millisecond)
	select {
	case <-ticks:
		t.Fatal("tick fired before the interval elapsed")
	default:
	}

	clock.Advance(time.Millisecond)
	issue := apply(t, s, receive(t, ticks))
	require.NotNil(t, issue)

	apply(t, s, issue())
	assert.Equal(t, []int{1, 2}, rec.results)
}

func TestSchedule_ErrorDoesNotEndSchedule(t *testing.T) {
	s, clock, m := newTestScheduler()
	var rec recorder
	ctx := context.Background()

	var calls atomic.Int64
	produce := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("backend down")
		}
		return 42, nil
	}

	_, cmd := Start(s, "summary", interval, produce, rec.onResult, rec.onError)
	armed := apply(t, s, cmd())
	require.Len(t, rec.errs, 1)
	assert.Empty(t, rec.results)
	require.NotNil(t, armed, "an error still re-arms")

	ticks := run(armed)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(interval)

	issue := apply(t, s, receive(t, ticks))
	apply(t, s, issue())
	assert.Equal(t, []int{42}, rec.results)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollCycles.WithLabelValues("summary", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollCycles.WithLabelValues("summary", "success")))
}

func TestStaleResultDiscarded(t *testing.T) {
	s, _, m := newTestScheduler()
	var rec recorder

	// A is issued, then B. B settles first, A settles last.
	_, cmdA := Start(s, "roster", interval, counter(), rec.onResult, rec.onError)
	cmdB := s.Refresh("roster")
	require.NotNil(t, cmdB)

	msgB := cmdB()
	msgA := cmdA()

	armed := apply(t, s, msgB)
	assert.NotNil(t, armed)

	assert.Nil(t, apply(t, s, msgA), "a stale result is not re-armed")
	assert.Equal(t, []int{1}, rec.results, "only B reaches the callback")
	assert.Empty(t, rec.errs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResults.WithLabelValues("roster")))
}

func TestStaleErrorDiscarded(t *testing.T) {
	s, _, _ := newTestScheduler()
	var rec recorder

	var calls atomic.Int64
	produce := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("slow failure")
		}
		return 7, nil
	}

	_, cmdA := Start(s, "roster", interval, produce, rec.onResult, rec.onError)
	msgA := cmdA()
	msgB := s.Refresh("roster")()

	apply(t, s, msgB)
	apply(t, s, msgA)
	assert.Equal(t, []int{7}, rec.results)
	assert.Empty(t, rec.errs, "onError is not invoked for a stale call either")
}

func TestStop_SilencesInFlight(t *testing.T) {
	s, _, _ := newTestScheduler()
	var rec recorder

	var sawCancel atomic.Bool
	produce := func(ctx context.Context) (int, error) {
		sawCancel.Store(ctx.Err() != nil)
		return 1, nil
	}

	h, cmd := Start(s, "streak:device-001", interval, produce, rec.onResult, rec.onError)
	h.Stop()
	assert.False(t, h.Active())
	assert.False(t, s.Active("streak:device-001"))

	msg := cmd()
	assert.True(t, sawCancel.Load(), "the producer context is cancelled by Stop")

	assert.Nil(t, apply(t, s, msg))
	assert.Equal(t, 0, rec.calls())

	assert.NotPanics(t, h.Stop, "Stop is idempotent")
}

func TestStop_CancelsArmedWait(t *testing.T) {
	s, clock, _ := newTestScheduler()
	var rec recorder

	h, cmd := Start(s, "roster", interval, counter(), rec.onResult, rec.onError)
	armed := apply(t, s, cmd())

	ticks := run(armed)
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))

	h.Stop()
	assert.Nil(t, receive(t, ticks), "a stopped subscription's timer exits without a tick")
}

func TestStop_DiscardsPendingTick(t *testing.T) {
	s, _, _ := newTestScheduler()
	var rec recorder

	h, cmd := Start(s, "roster", interval, counter(), rec.onResult, rec.onError)
	apply(t, s, cmd())

	tick := tickMsg{Key: "roster", Gen: h.gen, Seq: 1}
	h.Stop()
	assert.Nil(t, apply(t, s, tick))
}

func TestStart_SupersedesSameKey(t *testing.T) {
	s, _, _ := newTestScheduler()
	var got []string

	fetch := func(id string) Producer[string] {
		return func(context.Context) (string, error) { return id, nil }
	}
	onResult := func(v string) { got = append(got, v) }

	old, cmdOld := Start(s, "metrics", interval, fetch("device-001"), onResult, nil)
	_, cmdNew := Start(s, "metrics", interval, fetch("device-002"), onResult, nil)

	assert.False(t, old.Active(), "restart invalidates the previous subscription")
	assert.True(t, s.Active("metrics"))

	msgNew := cmdNew()
	msgOld := cmdOld()

	apply(t, s, msgOld)
	apply(t, s, msgNew)
	assert.Equal(t, []string{"device-002"}, got)

	// Stopping the superseded handle must not touch the new subscription.
	old.Stop()
	assert.True(t, s.Active("metrics"))
}

func TestStaleTickIgnoredAfterRefresh(t *testing.T) {
	s, clock, _ := newTestScheduler()
	var rec recorder

	_, cmd := Start(s, "roster", interval, counter(), rec.onResult, rec.onError)
	armed := apply(t, s, cmd())
	ticks := run(armed)
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))

	refresh := s.Refresh("roster")
	clock.Advance(interval)

	// The timer was armed before the refresh; it must not start a second chain.
	assert.Nil(t, apply(t, s, receive(t, ticks)))

	apply(t, s, refresh())
	assert.Equal(t, []int{1, 2}, rec.results)
}

func TestCallbackMayStopItsOwnSubscription(t *testing.T) {
	s, _, _ := newTestScheduler()

	var h Handle
	var seen int
	h, cmd := Start(s, "roster", interval, counter(), func(int) {
		seen++
		h.Stop()
	}, nil)

	assert.Nil(t, apply(t, s, cmd()), "no re-arm once the callback stopped the subscription")
	assert.Equal(t, 1, seen)
}

func TestStopAllAndPrefix(t *testing.T) {
	s, _, m := newTestScheduler()
	noop := func(int) {}

	Start(s, "roster", interval, counter(), noop, nil)
	Start(s, "summary", interval, counter(), noop, nil)
	Start(s, "metrics:device-001:hour", interval, counter(), noop, nil)
	Start(s, "streak:device-001", interval, counter(), noop, nil)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ActivePolls))

	s.StopPrefix("metrics:")
	assert.Equal(t, []string{"roster", "streak:device-001", "summary"}, s.Keys())

	s.StopAll()
	assert.Empty(t, s.Keys())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActivePolls))
	assert.Nil(t, s.Refresh("roster"))
}

func TestUpdate_IgnoresForeignMessages(t *testing.T) {
	s, _, _ := newTestScheduler()
	cmd, ok := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, ok)
	assert.Nil(t, cmd)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "roster", kind("roster"))
	assert.Equal(t, "metrics", kind("metrics:device-001:hour"))
}
