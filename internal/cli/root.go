package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pvz-iot/pvz/internal/api"
	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/observability"
	"github.com/pvz-iot/pvz/internal/ui"
)

// Global flags
var (
	cfgFile   string
	colorFlag string
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "pvz",
	Short: "Live monitor for a fleet of environmental sensors",
	Long: `pvz watches a fleet of temperature and humidity sensors through the
fleet backend's HTTP API.

Run 'pvz monitor' for the live dashboard, or 'pvz snapshot' to print the
current state once. Settings come from .pvz.yaml (see 'pvz init'), a .env
file, and PVZ_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			os.Setenv(logger.DebugEnv, "1")
		}
		logger.SetDefault(logger.NewEnvLogger("[pvz]"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .pvz.yaml, searched upward)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "", "color output: auto, always, never (overrides ui.color)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// Execute runs the root command and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err in the "✗ message / cause / suggestion" layout.
func printError(w io.Writer, err error) {
	if isUnknownCommandError(err) {
		msg := err.Error()
		if name := extractUnknownCommand(err); name != "" {
			msg = fmt.Sprintf("Unknown command '%s'", name)
		}
		fmt.Fprintln(w, ui.ErrorStyle().Render(ui.SymbolFail+" "+msg))
		fmt.Fprintln(w, ui.MutedStyle().Render("  Run 'pvz --help' to see the available commands."))
		return
	}

	var pvzErr *errors.Error
	if stderrors.As(err, &pvzErr) {
		fmt.Fprint(w, ui.ErrorStyle().Render(strings.TrimRight(pvzErr.Error(), "\n")))
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, ui.ErrorStyle().Render(ui.SymbolFail+" "+err.Error()))
}

// isUnknownCommandError reports whether cobra rejected the command line
// itself rather than a command failing.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "pvz"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig resolves the config for a command: .env from the working
// directory, then the file found from --config, then PVZ_* variables, then
// the command's own flag overrides. The result is validated and the color
// mode applied.
func loadConfig(override func(cfg *config.Config) error) (*config.Config, string, error) {
	if cwd, err := os.Getwd(); err == nil {
		if err := config.LoadDotEnv(cwd); err != nil {
			return nil, "", err
		}
	}

	cfg, path, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if colorFlag != "" {
		cfg.UI.Color = colorFlag
	}
	if override != nil {
		if err := override(cfg); err != nil {
			return nil, "", err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}

	ui.SetColorMode(cfg.UI.Color, os.Stdout)
	if path != "" {
		logger.Default().Debug("using config %s", path)
	} else {
		logger.Default().Debug("no config file, using defaults and environment")
	}
	return cfg, path, nil
}

// newClient builds the API client for cfg.
func newClient(cfg *config.Config, metrics *observability.Metrics, log logger.Logger) *api.Client {
	return api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
		Metrics: metrics,
		Logger:  log,
	})
}
