package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// MinPollInterval is the shortest accepted poll interval.
const MinPollInterval = 500 * time.Millisecond

// Config represents the complete .pvz.yaml configuration file.
type Config struct {
	Version int           `yaml:"version" mapstructure:"version"`
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Env     string        `yaml:"env" mapstructure:"env"`
	Tenant  string        `yaml:"tenant" mapstructure:"tenant"`
	Poll    PollConfig    `yaml:"poll" mapstructure:"poll"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	UI      UIConfig      `yaml:"ui" mapstructure:"ui"`
}

// APIConfig says where the sensor backend lives.
type APIConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	// Resource paths /{env}/{tenant}/devices... are appended to it.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each request. Zero disables the client-side timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Token is sent as a bearer token when set. Prefer PVZ_API_TOKEN over
	// writing it to the file.
	Token string `yaml:"token" mapstructure:"token"`
}

// PollConfig controls how often each resource is refreshed. Each interval
// counts from the moment the previous fetch settled.
type PollConfig struct {
	// Devices is the roster cadence.
	Devices time.Duration `yaml:"devices_interval" mapstructure:"devices_interval"`

	// Summary is the cadence of the recent and drought summaries and of the
	// selected device's drought streak.
	Summary time.Duration `yaml:"summary_interval" mapstructure:"summary_interval"`

	// Metrics is the cadence of the selected device's series.
	Metrics time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval"`
}

// MetricsConfig controls the per-device series shown in the detail pane.
type MetricsConfig struct {
	// Bucket is the initial aggregation: "hour", "day" or "week".
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 15 * time.Second,
		},
		Env:    "prod",
		Tenant: "tenant-1",
		Poll: PollConfig{
			Devices: 10 * time.Second,
			Summary: 30 * time.Second,
			Metrics: 60 * time.Second,
		},
		Metrics: MetricsConfig{
			Bucket: "hour",
		},
		UI: UIConfig{
			Color: "auto",
		},
	}
}
