package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pvz-iot/pvz/internal/api"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/mockapi"
	"github.com/pvz-iot/pvz/internal/util"
)

// MockAPIOptions holds the mock-api command's flags.
type MockAPIOptions struct {
	Addr    string
	Devices int
	Fail    []string
	Quiet   bool // no access log
}

var mockAPIOpts MockAPIOptions

// failableResources are the names --fail accepts.
var failableResources = []string{
	api.ResourceDevices,
	api.ResourceRecentSummary,
	api.ResourceDroughtSummary,
	api.ResourceDroughtStreak,
	api.ResourceMetrics,
}

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Serve a simulated sensor backend",
	Long: `Serve a simulated fleet on the same routes as the real backend, for
trying the dashboard without hardware.

Devices drift through daily temperature and humidity cycles; some sit in
drought and one never reports. --fail makes a resource answer 503 so the
stale and error states can be seen.

Examples:
  pvz mock-api
  pvz mock-api --addr :9000 --devices 12
  pvz mock-api --fail devices --fail "drought summary"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mockAPICommand(cmd.Context(), mockAPIOpts)
	},
}

func init() {
	mockAPICmd.Flags().StringVar(&mockAPIOpts.Addr, "addr", "localhost:8080", "listen address")
	mockAPICmd.Flags().IntVar(&mockAPIOpts.Devices, "devices", mockapi.DefaultDevices, "number of simulated devices")
	mockAPICmd.Flags().StringArrayVar(&mockAPIOpts.Fail, "fail", nil,
		"answer 503 for a resource: "+strings.Join(failableResources, ", "))
	mockAPICmd.Flags().BoolVarP(&mockAPIOpts.Quiet, "quiet", "q", false, "don't print the access log")
	rootCmd.AddCommand(mockAPICmd)
}

func (o MockAPIOptions) validate() error {
	if o.Devices < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--devices %d is too few", o.Devices),
			"Simulate at least one device.")
	}
	for _, r := range o.Fail {
		if !slices.Contains(failableResources, r) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("--fail '%s' isn't a resource", r),
				"Use one of: "+strings.Join(failableResources, ", "))
		}
	}
	return nil
}

func mockAPICommand(ctx context.Context, opts MockAPIOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	mockOpts := mockapi.Options{
		Devices: opts.Devices,
		Logger:  logger.New(os.Stderr, "[mock-api]", os.Getenv(logger.DebugEnv) != ""),
		Fail:    opts.Fail,
	}
	if !opts.Quiet {
		mockOpts.AccessLog = os.Stderr
	}

	fmt.Fprintf(os.Stderr, "Point pvz at http://%s/api (Ctrl+C to stop)\n", displayAddr(opts.Addr))
	fmt.Fprintf(os.Stderr, "Failing resources: %s\n", util.JoinOrDefault(opts.Fail, "none"))
	if err := mockapi.ListenAndServe(ctx, opts.Addr, mockOpts); err != nil {
		return errors.WrapWithCode(err, errors.ErrNetwork,
			"Mock API couldn't listen on "+opts.Addr,
			"Pick a free port with --addr")
	}
	return nil
}

// displayAddr fills in localhost for ":port" addresses.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
