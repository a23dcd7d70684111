package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvz-iot/pvz/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"future version", func(c *Config) { c.Version = CurrentConfigVersion + 1 }, "from the future"},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url is empty"},
		{"no scheme", func(c *Config) { c.API.BaseURL = "localhost:8080/api" }, "http:// or https://"},
		{"no host", func(c *Config) { c.API.BaseURL = "http:///api" }, "has no host"},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, "can't be negative"},
		{"zero timeout is allowed", func(c *Config) { c.API.Timeout = 0 }, ""},
		{"empty env", func(c *Config) { c.Env = " " }, "env is empty"},
		{"tenant with slash", func(c *Config) { c.Tenant = "a/b" }, "path separator"},
		{"interval too short", func(c *Config) { c.Poll.Devices = 100 * time.Millisecond }, "poll.devices_interval"},
		{"interval at minimum", func(c *Config) { c.Poll.Summary = MinPollInterval }, ""},
		{"zero metrics interval", func(c *Config) { c.Poll.Metrics = 0 }, "poll.metrics_interval"},
		{"unknown bucket", func(c *Config) { c.Metrics.Bucket = "month" }, "metrics.bucket"},
		{"unknown color", func(c *Config) { c.UI.Color = "sometimes" }, "ui.color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}
