package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/summary"
	"github.com/pvz-iot/pvz/internal/ui"
)

// Snapshot output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// SnapshotOptions holds the snapshot command's flags.
type SnapshotOptions struct {
	Scope  ScopeFlags
	Format string
	Device string // preferred selection; falls back like the dashboard does
}

var snapshotOpts SnapshotOptions

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the fleet once and exit",
	Long: `Fetch the device roster and the fleet summary once and print them.

The roster is required. If only the summary fails, the roster is still
printed with a warning.

Examples:
  pvz snapshot
  pvz snapshot --format json | jq '.devices[].id'
  pvz snapshot --tenant acme --device device-003`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return snapshotCommand(ctx, snapshotOpts, os.Stdout, os.Stderr)
	},
}

func init() {
	AddScopeFlags(snapshotCmd, &snapshotOpts.Scope)
	snapshotCmd.Flags().StringVarP(&snapshotOpts.Format, "format", "o", FormatTable, "output format: table, json, yaml")
	snapshotCmd.Flags().StringVar(&snapshotOpts.Device, "device", "", "device to mark as selected")
	rootCmd.AddCommand(snapshotCmd)
}

// FleetReader is what a snapshot reads. *api.Client satisfies it.
type FleetReader interface {
	summary.Source
	Devices(ctx context.Context, env, tenant string) ([]device.Snapshot, error)
}

// SnapshotReport is the printed result of one snapshot.
type SnapshotReport struct {
	Env          string         `json:"env" yaml:"env"`
	Tenant       string         `json:"tenant" yaml:"tenant"`
	TakenAt      time.Time      `json:"taken_at" yaml:"taken_at"`
	Selected     string         `json:"selected,omitempty" yaml:"selected,omitempty"`
	Devices      []DeviceReport `json:"devices" yaml:"devices"`
	Summary      *SummaryReport `json:"summary,omitempty" yaml:"summary,omitempty"`
	SummaryError string         `json:"summary_error,omitempty" yaml:"summary_error,omitempty"`
}

// DeviceReport is one roster entry. Nil fields were not reported.
type DeviceReport struct {
	ID          string     `json:"id" yaml:"id"`
	Online      *bool      `json:"online" yaml:"online"`
	Temperature *float64   `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty" yaml:"humidity,omitempty"`
	RSSI        *float64   `json:"rssi,omitempty" yaml:"rssi,omitempty"`
	SNR         *float64   `json:"snr,omitempty" yaml:"snr,omitempty"`
	Battery     *float64   `json:"battery,omitempty" yaml:"battery,omitempty"`
	Lat         *float64   `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon         *float64   `json:"lon,omitempty" yaml:"lon,omitempty"`
	LastSeen    *time.Time `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`
}

// SummaryReport flattens the joined recent and drought summaries.
type SummaryReport struct {
	WindowSeconds    int      `json:"window_seconds" yaml:"window_seconds"`
	Total            *int     `json:"total" yaml:"total"`
	Online           *int     `json:"online" yaml:"online"`
	Offline          *int     `json:"offline" yaml:"offline"`
	AvgTemperature   *float64 `json:"avg_temperature" yaml:"avg_temperature"`
	AvgHumidity      *float64 `json:"avg_humidity" yaml:"avg_humidity"`
	DevicesInDrought int      `json:"devices_in_drought" yaml:"devices_in_drought"`
	MaxStreakDays    *float64 `json:"max_streak_days" yaml:"max_streak_days"`
	MaxDeviceID      string   `json:"max_device_id,omitempty" yaml:"max_device_id,omitempty"`
	Threshold        *float64 `json:"threshold" yaml:"threshold"`
	DroughtLevel     string   `json:"drought_level" yaml:"drought_level"`
}

func snapshotCommand(ctx context.Context, opts SnapshotOptions, stdout, stderr io.Writer) error {
	if err := validFormat(opts.Format); err != nil {
		return err
	}
	cfg, _, err := loadConfig(func(cfg *config.Config) error {
		opts.Scope.Apply(cfg)
		return nil
	})
	if err != nil {
		return err
	}

	client := newClient(cfg, nil, logger.NewEnvLogger("[api]"))

	animated := false
	if f, ok := stderr.(*os.File); ok {
		animated = term.IsTerminal(int(f.Fd()))
	}
	spinner := ui.NewSpinner(stderr, fmt.Sprintf("Fetching %s/%s", cfg.Env, cfg.Tenant), animated)
	spinner.Start()

	report, err := TakeSnapshot(ctx, client, cfg.Env, cfg.Tenant, opts.Device, time.Now())
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()

	return WriteSnapshot(stdout, stderr, report, opts.Format)
}

// TakeSnapshot fetches the roster and the summary concurrently. A roster
// failure fails the snapshot; a summary failure is recorded in the report.
// The selection follows the dashboard's rule: prefer keeps its device if it
// is in the roster, otherwise the first device is selected.
func TakeSnapshot(ctx context.Context, fleet FleetReader, env, tenant, prefer string, now time.Time) (*SnapshotReport, error) {
	var (
		roster     []device.Snapshot
		joined     summary.Summary
		summaryErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = fleet.Devices(gctx, env, tenant)
		return err
	})
	g.Go(func() error {
		// A summary failure must not cancel the roster fetch.
		joined, summaryErr = summary.New(fleet).Refresh(ctx, env, tenant)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &SnapshotReport{
		Env:      env,
		Tenant:   tenant,
		TakenAt:  now.UTC(),
		Selected: device.Reconcile(prefer, roster),
		Devices:  make([]DeviceReport, 0, len(roster)),
	}
	for _, d := range roster {
		report.Devices = append(report.Devices, deviceReport(d))
	}
	if summaryErr != nil {
		report.SummaryError = errors.Summary(summaryErr)
	} else {
		report.Summary = summaryReport(joined)
	}
	return report, nil
}

func deviceReport(d device.Snapshot) DeviceReport {
	r := DeviceReport{
		ID:          d.ID,
		Online:      d.OnlineState,
		Temperature: d.Reading.Temperature,
		Humidity:    d.Reading.Humidity,
		RSSI:        d.Reading.RSSI,
		SNR:         d.Reading.SNR,
		Battery:     d.Reading.Battery,
	}
	if d.Position != nil {
		r.Lat, r.Lon = &d.Position.Lat, &d.Position.Lon
	}
	if last, ok := d.LastSeen(); ok {
		last = last.UTC()
		r.LastSeen = &last
	}
	return r
}

func summaryReport(s summary.Summary) *SummaryReport {
	return &SummaryReport{
		WindowSeconds:    s.Recent.WindowSeconds,
		Total:            s.Recent.Total,
		Online:           s.Recent.Online,
		Offline:          s.Recent.Offline,
		AvgTemperature:   s.Recent.AvgTemperature,
		AvgHumidity:      s.Recent.AvgHumidity,
		DevicesInDrought: s.Drought.DevicesInDrought,
		MaxStreakDays:    s.Drought.MaxStreakDays,
		MaxDeviceID:      s.Drought.MaxDeviceID,
		Threshold:        s.Drought.Threshold,
		DroughtLevel:     s.Level.String(),
	}
}

func validFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown format '%s'", format),
		"Use table, json or yaml.")
}

// WriteSnapshot prints report in format. Warnings go to stderr so piped
// json and yaml stay parseable.
func WriteSnapshot(stdout, stderr io.Writer, report *SnapshotReport, format string) error {
	if report.SummaryError != "" {
		ui.PrintWarning(stderr, "Summary unavailable: "+report.SummaryError)
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		_, err := io.WriteString(stdout, renderSnapshotTable(report))
		return err
	}
	return validFormat(format)
}

func renderSnapshotTable(r *SnapshotReport) string {
	var b strings.Builder
	b.WriteString(ui.RenderHeader(ui.HeaderInfo{
		Version: formatVersion(version),
		Tagline: "fleet snapshot at " + r.TakenAt.Format(time.RFC3339),
		Scope:   r.Env + "/" + r.Tenant,
	}))
	b.WriteString("\n")

	if s := r.Summary; s != nil {
		rows := [][]string{
			{"Window", fmt.Sprintf("%ds", s.WindowSeconds)},
			{"Devices", intOrDash(s.Total)},
			{"Online", intOrDash(s.Online)},
			{"Offline", intOrDash(s.Offline)},
			{"Avg temperature", floatOrDash(s.AvgTemperature, 1, " °C")},
			{"Avg humidity", floatOrDash(s.AvgHumidity, 1, " %")},
			{"In drought", droughtLine(s)},
		}
		b.WriteString(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "SUMMARY", Width: 18},
			{Title: "", Width: 40},
		}, rows))
		b.WriteString("\n\n")
	}

	rows := make([]ui.DeviceTableRow, 0, len(r.Devices))
	for _, d := range r.Devices {
		lastSeen := "never"
		if d.LastSeen != nil {
			lastSeen = d.LastSeen.Format(time.RFC3339)
		}
		rows = append(rows, ui.DeviceTableRow{
			ID:          d.ID,
			Online:      d.Online != nil && *d.Online,
			Temperature: floatOrDash(d.Temperature, 1, "°C"),
			Humidity:    floatOrDash(d.Humidity, 0, "%"),
			LastSeen:    lastSeen,
		})
	}
	b.WriteString(ui.RenderDeviceTable(rows, r.Selected))
	b.WriteString("\n")
	return b.String()
}

func droughtLine(s *SummaryReport) string {
	line := fmt.Sprintf("%d (%s)", s.DevicesInDrought, strings.ToUpper(s.DroughtLevel))
	if s.MaxStreakDays != nil && s.DevicesInDrought > 0 {
		line += fmt.Sprintf(", longest %.0fd", *s.MaxStreakDays)
		if s.MaxDeviceID != "" {
			line += " on " + s.MaxDeviceID
		}
	}
	return line
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func floatOrDash(v *float64, prec int, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f%s", prec, *v, unit)
}
