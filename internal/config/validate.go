package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
)

// ValidColorModes lists the accepted ui.color values.
var ValidColorModes = []string{"auto", "always", "never"}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but pvz only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade pvz or lower the version field.")
	}

	if err := validateAPI(cfg.API); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'api' section in your .pvz.yaml or PVZ_API_* variables.")
	}

	if err := validateScope("env", cfg.Env); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Set 'env' in .pvz.yaml, PVZ_ENV, or pass --env.")
	}
	if err := validateScope("tenant", cfg.Tenant); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Set 'tenant' in .pvz.yaml, PVZ_TENANT, or pass --tenant.")
	}

	if err := validatePoll(cfg.Poll); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'poll' section in your .pvz.yaml.")
	}

	if _, ok := device.ParseBucket(cfg.Metrics.Bucket); !ok {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("metrics.bucket is '%s' but it needs to be hour, day or week", cfg.Metrics.Bucket),
			"Check the 'metrics' section in your .pvz.yaml.")
	}

	if !validColor(cfg.UI.Color) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("ui.color is '%s' but it needs to be %s", cfg.UI.Color, strings.Join(ValidColorModes, ", ")),
			"Check the 'ui' section in your .pvz.yaml.")
	}

	return nil
}

func validateAPI(api APIConfig) error {
	if strings.TrimSpace(api.BaseURL) == "" {
		return fmt.Errorf("api.base_url is empty - point it at the backend, like http://localhost:8080/api")
	}
	u, err := url.Parse(api.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url '%s' isn't a valid URL: %v", api.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url '%s' needs an http:// or https:// scheme", api.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url '%s' has no host", api.BaseURL)
	}
	if api.Timeout < 0 {
		return fmt.Errorf("api.timeout can't be negative (got %s)", api.Timeout)
	}
	return nil
}

func validateScope(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is empty", field)
	}
	if strings.Contains(value, "/") {
		return fmt.Errorf("%s '%s' contains a path separator", field, value)
	}
	return nil
}

func validatePoll(p PollConfig) error {
	intervals := []struct {
		key string
		d   time.Duration
	}{
		{"poll.devices_interval", p.Devices},
		{"poll.summary_interval", p.Summary},
		{"poll.metrics_interval", p.Metrics},
	}
	for _, iv := range intervals {
		if iv.d < MinPollInterval {
			return fmt.Errorf("%s is %s but it needs to be at least %s", iv.key, iv.d, MinPollInterval)
		}
	}
	return nil
}

func validColor(mode string) bool {
	for _, m := range ValidColorModes {
		if mode == m {
			return true
		}
	}
	return false
}
