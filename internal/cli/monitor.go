package cli

import (
	"context"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/dashboard"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/observability"
)

// MonitorOptions holds the monitor command's flags.
type MonitorOptions struct {
	Scope           ScopeFlags
	Interval        string // roster cadence
	SummaryInterval string
	MetricsInterval string
	Bucket          string
	MetricsAddr     string // serve Prometheus metrics here when set
	LogFile         string // log destination while the TUI owns the terminal
}

var monitorOpts MonitorOptions

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard for the sensor fleet",
	Long: `Start an interactive dashboard showing every device of one env/tenant,
the fleet summary with its drought level, and drought and metrics detail for
the selected device.

Each view refreshes on its own cadence. When a refresh fails the last good
data stays on screen with a stale marker.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Refresh everything now
  up/k        Select previous device
  down/j      Select next device
  b           Cycle metrics bucket (hour, day, week)
  Enter       Open device detail
  Esc         Back
  ?           Show help

Examples:
  pvz monitor
  pvz monitor --env staging --tenant acme
  pvz monitor --interval 5s --metrics-addr :9090 --log-file pvz.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd.Context(), monitorOpts)
	},
}

func init() {
	AddScopeFlags(monitorCmd, &monitorOpts.Scope)
	monitorCmd.Flags().StringVar(&monitorOpts.Interval, "interval", "", "roster refresh interval (e.g. 5s, 1m)")
	monitorCmd.Flags().StringVar(&monitorOpts.SummaryInterval, "summary-interval", "", "summary and drought refresh interval")
	monitorCmd.Flags().StringVar(&monitorOpts.MetricsInterval, "metrics-interval", "", "device metrics refresh interval")
	monitorCmd.Flags().StringVar(&monitorOpts.Bucket, "bucket", "", "initial metrics bucket: hour, day, week")
	monitorCmd.Flags().StringVar(&monitorOpts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	monitorCmd.Flags().StringVar(&monitorOpts.LogFile, "log-file", "", "write logs to this file while the dashboard runs")
	rootCmd.AddCommand(monitorCmd)
}

// apply merges the flags into cfg.
func (o MonitorOptions) apply(cfg *config.Config) error {
	o.Scope.Apply(cfg)

	devices, err := ParseInterval("interval", o.Interval)
	if err != nil {
		return err
	}
	summary, err := ParseInterval("summary-interval", o.SummaryInterval)
	if err != nil {
		return err
	}
	metrics, err := ParseInterval("metrics-interval", o.MetricsInterval)
	if err != nil {
		return err
	}
	bucket, err := ParseBucketFlag(o.Bucket)
	if err != nil {
		return err
	}

	if devices > 0 {
		cfg.Poll.Devices = devices
	}
	if summary > 0 {
		cfg.Poll.Summary = summary
	}
	if metrics > 0 {
		cfg.Poll.Metrics = metrics
	}
	if bucket != "" {
		cfg.Metrics.Bucket = string(bucket)
	}
	return nil
}

// monitorCommand runs the dashboard until the user quits.
func monitorCommand(ctx context.Context, opts MonitorOptions) error {
	cfg, _, err := loadConfig(opts.apply)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The dashboard owns the terminal, so the standard logger goes to a file
	// or nowhere.
	if opts.LogFile != "" {
		f, err := tea.LogToFile(opts.LogFile, "pvz")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Can't open log file "+opts.LogFile,
				"Check the path is writable, or drop --log-file")
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	appLog := logger.NewEnvLogger("[monitor]")

	var metrics *observability.Metrics
	if opts.MetricsAddr != "" {
		metrics = observability.NewMetrics()
		go func() {
			if err := metrics.Serve(ctx, opts.MetricsAddr); err != nil {
				appLog.Error("metrics server: %v", err)
			}
		}()
		appLog.Info("serving metrics on %s/metrics", opts.MetricsAddr)
	}

	bucket, _ := device.ParseBucket(cfg.Metrics.Bucket)
	model := dashboard.New(dashboard.Options{
		Client:          newClient(cfg, metrics, logger.NewEnvLogger("[api]")),
		Env:             cfg.Env,
		Tenant:          cfg.Tenant,
		DevicesInterval: cfg.Poll.Devices,
		SummaryInterval: cfg.Poll.Summary,
		MetricsInterval: cfg.Poll.Metrics,
		Bucket:          bucket,
		Metrics:         metrics,
		Logger:          logger.NewEnvLogger("[poll]"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	// A cancelled context means a signal stopped the dashboard, not a failure.
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
