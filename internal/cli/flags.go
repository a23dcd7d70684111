package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
)

// ScopeFlags selects the env/tenant a command reads. Empty values keep the
// configured ones.
type ScopeFlags struct {
	Env    string
	Tenant string
}

// AddScopeFlags registers --env and --tenant on a command.
func AddScopeFlags(cmd *cobra.Command, flags *ScopeFlags) {
	cmd.Flags().StringVar(&flags.Env, "env", "", "backend environment (overrides config)")
	cmd.Flags().StringVar(&flags.Tenant, "tenant", "", "tenant to show (overrides config)")
}

// Apply writes the non-empty flags into cfg.
func (f ScopeFlags) Apply(cfg *config.Config) {
	if f.Env != "" {
		cfg.Env = f.Env
	}
	if f.Tenant != "" {
		cfg.Tenant = f.Tenant
	}
}

// ParseInterval parses a poll interval flag. An empty flag returns zero so
// the configured value is kept.
func ParseInterval(name, flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid --%s", flag, name),
			"Try something like 5s, 30s, or 1m.")
	}
	if d < config.MinPollInterval {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("--%s %s is too short", name, d),
			fmt.Sprintf("Use at least %s so the backend isn't hammered.", config.MinPollInterval))
	}
	return d, nil
}

// ParseBucketFlag parses --bucket. An empty flag returns "" so the configured
// bucket is kept.
func ParseBucketFlag(flag string) (device.Bucket, error) {
	if flag == "" {
		return "", nil
	}
	b, ok := device.ParseBucket(flag)
	if !ok {
		return "", errors.New(errors.ErrConfig,
			fmt.Sprintf("--bucket '%s' isn't a bucket", flag),
			"Use hour, day or week.")
	}
	return b, nil
}
