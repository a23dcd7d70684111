package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/errors"
)

// ConfigFileCheck reports which config file is in use. A missing file only
// warns: defaults and PVZ_* variables are enough to run.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(_ context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Error finding config: " + errors.Summary(err),
			Suggestion: "Check file permissions or run 'pvz init' to create a config",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file, using defaults and PVZ_* variables",
			Suggestion: "Run 'pvz init' to create a .pvz.yaml config file",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Config file: " + path,
	}
}

// DotEnvCheck verifies that a .env file in Dir, if any, parses.
type DotEnvCheck struct {
	Dir string
}

func (c *DotEnvCheck) Name() string     { return "dotenv" }
func (c *DotEnvCheck) Category() string { return CategoryConfig }

func (c *DotEnvCheck) Run(_ context.Context) CheckResult {
	path := filepath.Join(c.Dir, config.DotEnvFile)
	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "No .env file",
		}
	}
	if err := config.LoadDotEnv(c.Dir); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    errors.Summary(err),
			Suggestion: "Check the KEY=value syntax in " + path,
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: ".env loaded",
	}
}

// ConfigSchemaCheck verifies that the resolved configuration is valid.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return CategoryConfig }

func (c *ConfigSchemaCheck) Run(_ context.Context) CheckResult {
	cfg, _, err := config.Resolve(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Failed to load config: " + errors.Summary(err),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}

	if err := config.Validate(cfg); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Schema error: " + errors.Summary(err),
			Suggestion: suggestionOf(err, "Fix the configuration errors in your .pvz.yaml"),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Schema valid (%s/%s at %s)", cfg.Env, cfg.Tenant, cfg.API.BaseURL),
	}
}

// NewConfigChecks creates all config-related checks.
func NewConfigChecks(configPath, dir string) []Check {
	return []Check{
		&DotEnvCheck{Dir: dir},
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigSchemaCheck{ConfigPath: configPath},
	}
}

// suggestionOf returns the structured error's suggestion, or fallback.
func suggestionOf(err error, fallback string) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Suggestion != "" {
		return e.Suggestion
	}
	return fallback
}
