package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // where to write; default ./.pvz.yaml
	BaseURL        string // pre-specified API root
	Env            string
	Tenant         string
	Overwrite      bool // overwrite an existing config without asking
	NonInteractive bool // skip prompts and the connection check
}

var initOpts InitOptions

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .pvz.yaml configuration",
	Long: `Create a .pvz.yaml file in the current directory.

Asks for the API base URL, env and tenant, checks that the backend answers,
and writes the file with the default poll cadences.

Examples:
  pvz init
  pvz init --base-url http://sensors.local:8080/api --tenant acme
  pvz init --non-interactive --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(initOpts, os.Stdout)
	},
}

func init() {
	initCmd.Flags().StringVar(&initOpts.BaseURL, "base-url", "", "API base URL")
	initCmd.Flags().StringVar(&initOpts.Env, "env", "", "backend environment")
	initCmd.Flags().StringVar(&initOpts.Tenant, "tenant", "", "tenant")
	initCmd.Flags().BoolVarP(&initOpts.Overwrite, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initOpts.NonInteractive, "non-interactive", false, "use flags and defaults without prompting")
	rootCmd.AddCommand(initCmd)
}

// Init creates a new config file.
func Init(opts InitOptions, out io.Writer) error {
	path := opts.Path
	if path == "" {
		path = filepath.Join(".", config.ConfigFileName)
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := initialConfig(opts)
	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if !opts.NonInteractive {
		checkBackend(cfg, out)
	}

	if err := config.Write(path, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check directory permissions")
	}

	fmt.Fprintln(out, ui.SuccessStyle().Render(ui.SymbolSuccess+" Created "+path))
	fmt.Fprintln(out, ui.MutedStyle().Render("  Run 'pvz monitor' to open the dashboard."))
	return nil
}

// initialConfig is the default config with any flags applied.
func initialConfig(opts InitOptions) *config.Config {
	cfg := config.DefaultConfig()
	if opts.BaseURL != "" {
		cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	}
	if opts.Env != "" {
		cfg.Env = opts.Env
	}
	if opts.Tenant != "" {
		cfg.Tenant = opts.Tenant
	}
	return cfg
}

// promptConfig asks for the values a new config needs, prefilled from cfg.
func promptConfig(cfg *config.Config) error {
	bucket := cfg.Metrics.Bucket
	bucketOptions := make([]huh.Option[string], 0, len(device.Buckets))
	for _, b := range device.Buckets {
		bucketOptions = append(bucketOptions, huh.NewOption(string(b), string(b)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("Root of the sensor backend; /{env}/{tenant}/devices is appended").
				Placeholder("http://localhost:8080/api").
				Value(&cfg.API.BaseURL).
				Validate(validateBaseURL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Environment").
				Placeholder("prod").
				Value(&cfg.Env).
				Validate(requiredName("environment")),
			huh.NewInput().
				Title("Tenant").
				Placeholder("tenant-1").
				Value(&cfg.Tenant).
				Validate(requiredName("tenant")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default metrics bucket").
				Options(bucketOptions...).
				Value(&bucket),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive flag")
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	cfg.Metrics.Bucket = bucket
	return nil
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http:// or https:// URL")
	}
	return nil
}

func requiredName(field string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		if strings.ContainsAny(s, "/ \t") {
			return fmt.Errorf("%s cannot contain slashes or whitespace", field)
		}
		return nil
	}
}

// checkBackend fetches the roster once. A failure is only a warning: the
// backend may simply not be running yet.
func checkBackend(cfg *config.Config, out io.Writer) {
	fmt.Fprintln(out)
	spinner := ui.NewSpinner(out, "Checking "+cfg.API.BaseURL, true)
	spinner.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	roster, err := newClient(cfg, nil, nil).Devices(ctx, cfg.Env, cfg.Tenant)
	if err != nil {
		spinner.Fail()
		ui.PrintWarning(out, "Backend check failed: "+errors.Summary(err)+". Saving anyway.")
		return
	}
	spinner.Success()
	fmt.Fprintln(out, ui.MutedStyle().Render(fmt.Sprintf("  %d devices in %s/%s", len(roster), cfg.Env, cfg.Tenant)))
}
