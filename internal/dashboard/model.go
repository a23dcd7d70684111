package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/pvz-iot/pvz/internal/api"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/observability"
	"github.com/pvz-iot/pvz/internal/poll"
	"github.com/pvz-iot/pvz/internal/summary"
	"github.com/pvz-iot/pvz/internal/ui"
)

// Subscription keys. Per-device keys carry their parameters so a change of
// device or bucket is always a new subscription.
const (
	keyRoster        = "roster"
	keySummary       = "summary"
	keyMetricsPrefix = "metrics:"
	keyStreakPrefix  = "streak:"
)

func metricsKey(id string, b device.Bucket) string { return keyMetricsPrefix + id + ":" + string(b) }
func streakKey(id string) string                   { return keyStreakPrefix + id }

// Client is the backend surface the dashboard polls. *api.Client satisfies it.
type Client interface {
	summary.Source
	Devices(ctx context.Context, env, tenant string) ([]device.Snapshot, error)
	DroughtStreak(ctx context.Context, env, tenant, deviceID string) (device.DroughtStreak, error)
	Metrics(ctx context.Context, env, tenant, deviceID string, q api.MetricsQuery) (device.Metrics, error)
}

// Options configures a dashboard.
type Options struct {
	Client Client
	Env    string
	Tenant string

	DevicesInterval time.Duration
	SummaryInterval time.Duration
	MetricsInterval time.Duration
	Bucket          device.Bucket

	// Clock drives poll cadence and "updated ago" labels. Nil means real time.
	Clock   clockwork.Clock
	Metrics *observability.Metrics
	Logger  logger.Logger
}

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Layout constants
const (
	BreakpointTwoColumn = 100
	HeightShowDetail    = 30
)

// Model is the Bubble Tea model for the fleet dashboard. All poll results
// are applied here, inside Update, so the model needs no locks.
type Model struct {
	opts       Options
	clock      clockwork.Clock
	log        logger.Logger
	sched      *poll.Scheduler
	aggregator *summary.Aggregator

	tracker device.Tracker
	roster  poll.Retained[[]device.Snapshot]
	summary poll.Retained[summary.Summary]
	streak  poll.Retained[device.DroughtStreak]
	series  poll.Retained[device.Metrics]
	history *History

	bucket     device.Bucket
	streakFor  string // device the streak subscription was started for
	seriesFor  string // key of the running metrics subscription
	streakSub  poll.Handle
	seriesSub  poll.Handle
	pending    []tea.Cmd
	spinner    spinner.Model
	spinning   bool
	detailView viewport.Model

	width    int
	height   int
	viewMode ViewMode
	showHelp bool
	quitting bool
}

// New creates a dashboard model. Zero intervals fall back to 10s for the
// roster, 30s for summaries and 60s for metrics.
func New(opts Options) *Model {
	if opts.DevicesInterval <= 0 {
		opts.DevicesInterval = 10 * time.Second
	}
	if opts.SummaryInterval <= 0 {
		opts.SummaryInterval = 30 * time.Second
	}
	if opts.MetricsInterval <= 0 {
		opts.MetricsInterval = 60 * time.Second
	}
	if opts.Bucket == "" {
		opts.Bucket = device.BucketHour
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	return &Model{
		opts:       opts,
		clock:      opts.Clock,
		log:        opts.Logger,
		sched:      poll.NewScheduler(opts.Clock, opts.Metrics, opts.Logger),
		aggregator: summary.New(opts.Client),
		history:    NewHistory(DefaultHistorySize),
		bucket:     opts.Bucket,
		spinner:    ui.NewTeaSpinner(),
		detailView: viewport.New(0, 0),
	}
}

// Init starts the roster and summary subscriptions.
func (m *Model) Init() tea.Cmd {
	env, tenant := m.opts.Env, m.opts.Tenant
	client := m.opts.Client

	_, rosterCmd := poll.Start(m.sched, keyRoster, m.opts.DevicesInterval,
		func(ctx context.Context) ([]device.Snapshot, error) {
			return client.Devices(ctx, env, tenant)
		},
		m.onRoster,
		func(err error) { m.roster.Fail(err, m.clock.Now()) },
	)

	_, summaryCmd := poll.Start(m.sched, keySummary, m.opts.SummaryInterval,
		func(ctx context.Context) (summary.Summary, error) {
			return m.aggregator.Refresh(ctx, env, tenant)
		},
		func(s summary.Summary) {
			m.summary.Succeed(s, m.clock.Now())
			m.history.Push(s)
		},
		func(err error) { m.summary.Fail(err, m.clock.Now()) },
	)

	return tea.Batch(rosterCmd, summaryCmd, m.startSpinner())
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if cmd, ok := m.sched.Update(msg); ok {
		cmds = append(cmds, cmd)
	} else {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			handled, cmd := m.HandleKeyMsg(msg)
			if !handled && m.viewMode == ViewDetail {
				m.detailView, cmd = m.detailView.Update(msg)
			}
			cmds = append(cmds, cmd)

		case tea.MouseMsg:
			if m.viewMode == ViewDetail {
				var cmd tea.Cmd
				m.detailView, cmd = m.detailView.Update(msg)
				cmds = append(cmds, cmd)
			}

		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
			m.resizeDetail()

		case spinner.TickMsg:
			if !m.loading() {
				m.spinning = false
				break
			}
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.pending...)
	m.pending = nil

	if m.viewMode == ViewDetail {
		m.detailView.SetContent(m.renderDetailContent())
	}

	return m, tea.Batch(cmds...)
}

// View renders the dashboard.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// onRoster applies a roster snapshot and follows the selection with the
// per-device subscriptions.
func (m *Model) onRoster(roster []device.Snapshot) {
	m.roster.Succeed(roster, m.clock.Now())
	m.tracker.Update(roster)
	m.syncDevice()
}

// syncDevice restarts the streak and metrics subscriptions when the selected
// device or the bucket no longer matches what they were started for. The old
// subscriptions are stopped first, so nothing they still have in flight can
// reach the new device's views.
func (m *Model) syncDevice() {
	id := m.tracker.Selected()
	env, tenant := m.opts.Env, m.opts.Tenant
	client := m.opts.Client

	if id != m.streakFor {
		m.streakSub.Stop()
		m.streak.Reset()
		m.streakFor = id
		if id != "" {
			var cmd tea.Cmd
			m.streakSub, cmd = poll.Start(m.sched, streakKey(id), m.opts.SummaryInterval,
				func(ctx context.Context) (device.DroughtStreak, error) {
					return client.DroughtStreak(ctx, env, tenant, id)
				},
				func(s device.DroughtStreak) { m.streak.Succeed(s, m.clock.Now()) },
				func(err error) { m.streak.Fail(err, m.clock.Now()) },
			)
			m.queue(cmd)
		}
	}

	key := ""
	if id != "" {
		key = metricsKey(id, m.bucket)
	}
	if key != m.seriesFor {
		m.seriesSub.Stop()
		m.series.Reset()
		m.seriesFor = key
		if key != "" {
			bucket := m.bucket
			var cmd tea.Cmd
			m.seriesSub, cmd = poll.Start(m.sched, key, m.opts.MetricsInterval,
				func(ctx context.Context) (device.Metrics, error) {
					return client.Metrics(ctx, env, tenant, id, api.MetricsQuery{Bucket: bucket})
				},
				func(s device.Metrics) { m.series.Succeed(s, m.clock.Now()) },
				func(err error) { m.series.Fail(err, m.clock.Now()) },
			)
			m.queue(cmd)
			m.queue(m.startSpinner())
		}
	}
}

// queue holds a command produced inside a poll callback until Update returns.
func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

// loading reports whether any visible view is still waiting for its first result.
func (m *Model) loading() bool {
	if m.roster.State() == poll.Empty || m.summary.State() == poll.Empty {
		return true
	}
	return m.seriesFor != "" && m.series.State() == poll.Empty
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) resizeDetail() {
	// Header and footer take three rows.
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	m.detailView.Width = m.width
	m.detailView.Height = h
}

// Roster returns the latest roster and whether one has loaded.
func (m *Model) Roster() ([]device.Snapshot, bool) {
	return m.roster.Value()
}

// Selected returns the selected device id.
func (m *Model) Selected() string {
	return m.tracker.Selected()
}

// Bucket returns the bucket of the metrics series being shown.
func (m *Model) Bucket() device.Bucket {
	return m.bucket
}

// Subscriptions returns the active poll keys, sorted.
func (m *Model) Subscriptions() []string {
	return m.sched.Keys()
}

// OnlineCount returns the number of online devices in the roster.
func (m *Model) OnlineCount() int {
	roster, _ := m.roster.Value()
	n := 0
	for _, d := range roster {
		if d.Online() {
			n++
		}
	}
	return n
}

// since formats how long ago t was, relative to the model clock.
func (m *Model) since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := m.clock.Since(t)
	switch {
	case d < 2*time.Second:
		return "just now"
	case d < time.Minute:
		return formatUnit(d.Seconds(), "s") + " ago"
	case d < time.Hour:
		return formatUnit(d.Minutes(), "m") + " ago"
	case d < 48*time.Hour:
		return formatUnit(d.Hours(), "h") + " ago"
	default:
		return formatUnit(d.Hours()/24, "d") + " ago"
	}
}
