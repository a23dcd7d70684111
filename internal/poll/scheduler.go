package poll

import (
	"context"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/observability"
)

// Producer fetches one value. ctx is cancelled when the subscription that
// issued the call is stopped or superseded.
type Producer[T any] func(ctx context.Context) (T, error)

// Msg carries one producer result back into the update loop.
type Msg struct {
	Key   string
	Gen   uint64 // subscription generation
	Seq   uint64 // issue sequence within the subscription
	Value any
	Err   error
}

// tickMsg fires when a subscription's interval has elapsed. Seq is the last
// issued sequence at arm time; an issue in between makes the tick stale.
type tickMsg struct {
	Key string
	Gen uint64
	Seq uint64
}

type subscription struct {
	key      string
	gen      uint64
	seq      uint64
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	call     func(ctx context.Context) (any, error)
	deliver  func(value any, err error)
}

// Scheduler runs recurring fetches for any number of keyed subscriptions.
// It is not safe for concurrent use: every method, including Update, must be
// called from the one goroutine that owns it, normally a bubbletea Update.
// Producers run in tea.Cmd goroutines and never touch scheduler state.
type Scheduler struct {
	clock   clockwork.Clock
	subs    map[string]*subscription
	gen     uint64
	metrics *observability.Metrics
	log     logger.Logger
}

// NewScheduler creates a Scheduler. A nil clock means the real clock; nil
// metrics and logger are allowed.
func NewScheduler(clock clockwork.Clock, metrics *observability.Metrics, log logger.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Scheduler{
		clock:   clock,
		subs:    make(map[string]*subscription),
		metrics: metrics,
		log:     log,
	}
}

// Handle identifies one subscription. Stopping a handle whose key has since
// been restarted does nothing.
type Handle struct {
	s   *Scheduler
	key string
	gen uint64
}

// Key returns the subscription key.
func (h Handle) Key() string { return h.key }

// Active reports whether this subscription is still the current one for its key.
func (h Handle) Active() bool {
	if h.s == nil {
		return false
	}
	sub, ok := h.s.subs[h.key]
	return ok && sub.gen == h.gen
}

// Stop ends the subscription. It is idempotent. Once it returns no callback
// of this subscription runs again, whatever is still in flight.
func (h Handle) Stop() {
	if h.Active() {
		h.s.Stop(h.key)
	}
}

// Start subscribes key to produce, invoking it at once and then interval
// after each call settles. onResult or onError runs inside Update for every
// result that is still current. Starting a key that is already running
// replaces it; the old subscription is invalidated before the first new call
// is issued. The returned command must be handed to bubbletea.
func Start[T any](s *Scheduler, key string, interval time.Duration, produce Producer[T], onResult func(T), onError func(error)) (Handle, tea.Cmd) {
	s.Stop(key)

	s.gen++
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		key:      key,
		gen:      s.gen,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		call: func(ctx context.Context) (any, error) {
			return produce(ctx)
		},
		deliver: func(value any, err error) {
			if err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			v, _ := value.(T)
			if onResult != nil {
				onResult(v)
			}
		},
	}
	s.subs[key] = sub
	s.metrics.SetActive(len(s.subs))
	s.log.Debug("poll %s: start every %s", key, interval)

	return Handle{s: s, key: key, gen: sub.gen}, s.issue(sub)
}

// Stop ends the subscription for key, if any.
func (s *Scheduler) Stop(key string) {
	sub, ok := s.subs[key]
	if !ok {
		return
	}
	delete(s.subs, key)
	sub.cancel()
	s.metrics.SetActive(len(s.subs))
	s.log.Debug("poll %s: stop", key)
}

// StopAll ends every subscription.
func (s *Scheduler) StopAll() {
	for key := range s.subs {
		s.Stop(key)
	}
}

// StopPrefix ends every subscription whose key starts with prefix.
func (s *Scheduler) StopPrefix(prefix string) {
	for key := range s.subs {
		if strings.HasPrefix(key, prefix) {
			s.Stop(key)
		}
	}
}

// Refresh issues an extra call for key now. A call already in flight becomes
// stale; the schedule continues from whichever call settles last.
func (s *Scheduler) Refresh(key string) tea.Cmd {
	sub, ok := s.subs[key]
	if !ok {
		return nil
	}
	return s.issue(sub)
}

// RefreshAll refreshes every active subscription.
func (s *Scheduler) RefreshAll() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(s.subs))
	for _, key := range s.Keys() {
		cmds = append(cmds, s.Refresh(key))
	}
	return tea.Batch(cmds...)
}

// Active reports whether key has a running subscription.
func (s *Scheduler) Active(key string) bool {
	_, ok := s.subs[key]
	return ok
}

// Keys returns the active keys in sorted order.
func (s *Scheduler) Keys() []string {
	keys := make([]string, 0, len(s.subs))
	for key := range s.subs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Update consumes scheduler messages. It reports false for messages that do
// not belong to the scheduler so callers can keep routing them.
func (s *Scheduler) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case Msg:
		return s.handleResult(msg), true
	case tickMsg:
		return s.handleTick(msg), true
	}
	return nil, false
}

func (s *Scheduler) handleResult(msg Msg) tea.Cmd {
	sub, ok := s.current(msg.Key, msg.Gen)
	if !ok || msg.Seq != sub.seq {
		s.metrics.ObserveStale(kind(msg.Key))
		s.log.Debug("poll %s: discard stale result gen=%d seq=%d", msg.Key, msg.Gen, msg.Seq)
		return nil
	}

	s.metrics.ObservePoll(kind(msg.Key), msg.Err)
	if msg.Err != nil {
		s.log.Debug("poll %s: %v", msg.Key, msg.Err)
	}
	sub.deliver(msg.Value, msg.Err)

	// The callback may have stopped or replaced this subscription.
	if cur, ok := s.subs[msg.Key]; !ok || cur != sub {
		return nil
	}
	return s.arm(sub)
}

func (s *Scheduler) handleTick(msg tickMsg) tea.Cmd {
	sub, ok := s.current(msg.Key, msg.Gen)
	if !ok || msg.Seq != sub.seq {
		return nil
	}
	return s.issue(sub)
}

func (s *Scheduler) current(key string, gen uint64) (*subscription, bool) {
	sub, ok := s.subs[key]
	if !ok || sub.gen != gen {
		return nil, false
	}
	return sub, true
}

// issue tags a new call with the next sequence number.
func (s *Scheduler) issue(sub *subscription) tea.Cmd {
	sub.seq++
	key, gen, seq := sub.key, sub.gen, sub.seq
	ctx, call := sub.ctx, sub.call
	return func() tea.Msg {
		v, err := call(ctx)
		return Msg{Key: key, Gen: gen, Seq: seq, Value: v, Err: err}
	}
}

// arm waits one interval and then asks Update to issue the next call.
func (s *Scheduler) arm(sub *subscription) tea.Cmd {
	clock, ctx := s.clock, sub.ctx
	interval := sub.interval
	tick := tickMsg{Key: sub.key, Gen: sub.gen, Seq: sub.seq}
	return func() tea.Msg {
		select {
		case <-clock.After(interval):
			return tick
		case <-ctx.Done():
			return nil
		}
	}
}

// kind returns the metric label for key: the part before the first colon,
// so per-device keys do not explode label cardinality.
func kind(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
