package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/doctor"
	"github.com/pvz-iot/pvz/internal/ui"
)

// DoctorOptions holds the doctor command's flags.
type DoctorOptions struct {
	Scope   ScopeFlags
	JSON    bool
	Timeout time.Duration
}

var doctorOpts DoctorOptions

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and backend connectivity",
	Long: `Run diagnostic checks: the .env file, the config file and its values, and
one request to every backend resource the dashboard uses.

Examples:
  pvz doctor
  pvz doctor --tenant acme
  pvz doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return doctorCommand(ctx, doctorOpts, os.Stdout)
	},
}

func init() {
	AddScopeFlags(doctorCmd, &doctorOpts.Scope)
	doctorCmd.Flags().BoolVar(&doctorOpts.JSON, "json", false, "output in JSON format")
	doctorCmd.Flags().DurationVar(&doctorOpts.Timeout, "timeout", 20*time.Second, "overall time limit for the backend checks")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

func doctorCommand(ctx context.Context, opts DoctorOptions, out io.Writer) error {
	cwd, _ := os.Getwd()
	configChecks := doctor.NewConfigChecks(cfgFile, cwd)
	var backendChecks []doctor.Check
	if probe := doctorProbe(opts); probe != nil {
		backendChecks = doctor.NewBackendChecks(probe)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// Config checks touch the process environment, so they run in order; the
	// backend checks share one roster fetch and run together.
	results := doctor.RunAll(ctx, configChecks)
	results = append(results, doctor.RunAllParallel(ctx, backendChecks)...)
	checks := append(configChecks, backendChecks...)

	if opts.JSON {
		return writeDoctorJSON(out, checks, results)
	}
	return writeDoctorText(out, checks, results)
}

// doctorProbe builds the backend probe, or nil when the configuration is
// unusable. The config checks report why.
func doctorProbe(opts DoctorOptions) *doctor.Probe {
	if cwd, err := os.Getwd(); err == nil {
		if err := config.LoadDotEnv(cwd); err != nil {
			return nil
		}
	}
	cfg, _, err := config.Resolve(cfgFile)
	if err != nil {
		return nil
	}
	opts.Scope.Apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil
	}
	bucket, _ := device.ParseBucket(cfg.Metrics.Bucket)
	return &doctor.Probe{
		Fleet:  newClient(cfg, nil, nil),
		Env:    cfg.Env,
		Tenant: cfg.Tenant,
		Bucket: bucket,
	}
}

func writeDoctorJSON(out io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	order, grouped := doctor.GroupByCategory(checks)

	output := DoctorOutput{
		Categories: make([]CategoryOutput, 0, len(order)),
	}
	for _, cat := range order {
		category := CategoryOutput{Name: cat}
		for _, idx := range grouped[cat] {
			category.Results = append(category.Results, results[idx])
		}
		output.Categories = append(output.Categories, category)
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func writeDoctorText(out io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("pvz diagnostic report"))
	fmt.Fprintln(out)

	order, grouped := doctor.GroupByCategory(checks)
	for _, category := range order {
		fmt.Fprintln(out, headerStyle.Render(category))
		for _, idx := range grouped[category] {
			renderCheckResult(out, results[idx])
		}
		fmt.Fprintln(out)
	}
	if len(order) == 1 {
		fmt.Fprintln(out, ui.MutedStyle().Render("Backend checks skipped until the config is valid."))
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, strings.Repeat("━", 60))
	fmt.Fprintln(out)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(out, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(results))
	} else {
		fmt.Fprintf(out, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(results))
	}
	fmt.Fprintln(out)
	return nil
}

func renderCheckResult(out io.Writer, result doctor.CheckResult) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolComplete, ui.SuccessStyle()
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, ui.WarningStyle()
	default:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(out, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(out, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
