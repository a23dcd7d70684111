package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keys lists the settable dotted config keys.
var Keys = []string{
	"api.base_url",
	"api.timeout",
	"api.token",
	"env",
	"tenant",
	"poll.devices_interval",
	"poll.summary_interval",
	"poll.metrics_interval",
	"metrics.bucket",
	"ui.color",
}

// fileConfig mirrors Config with durations as strings so the written file
// reads "10s" rather than nanoseconds.
type fileConfig struct {
	Version int    `yaml:"version"`
	Env     string `yaml:"env"`
	Tenant  string `yaml:"tenant"`
	API     struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
		Token   string `yaml:"token,omitempty"`
	} `yaml:"api"`
	Poll struct {
		Devices string `yaml:"devices_interval"`
		Summary string `yaml:"summary_interval"`
		Metrics string `yaml:"metrics_interval"`
	} `yaml:"poll"`
	Metrics MetricsConfig `yaml:"metrics"`
	UI      UIConfig      `yaml:"ui"`
}

// Render encodes cfg as the YAML written by 'pvz init'.
func Render(cfg *Config) ([]byte, error) {
	var fc fileConfig
	fc.Version = cfg.Version
	fc.Env = cfg.Env
	fc.Tenant = cfg.Tenant
	fc.API.BaseURL = cfg.API.BaseURL
	fc.API.Timeout = cfg.API.Timeout.String()
	fc.API.Token = cfg.API.Token
	fc.Poll.Devices = cfg.Poll.Devices.String()
	fc.Poll.Summary = cfg.Poll.Summary.String()
	fc.Poll.Metrics = cfg.Poll.Metrics.String()
	fc.Metrics = cfg.Metrics
	fc.UI = cfg.UI

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&fc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()
	return []byte(buf.String()), nil
}

// Write renders cfg to path, creating parent directories. The file is
// private to the user because it may hold the API token.
func Write(path string, cfg *Config) error {
	data, err := Render(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetValue sets a dotted key (see Keys) in the config file at path. It
// preserves the existing YAML structure and comments, creating the section
// if it is missing.
func SetValue(path, key, value string) error {
	if !knownKey(key) {
		return fmt.Errorf("unknown config key '%s' (known keys: %s)", key, strings.Join(Keys, ", "))
	}

	// Read the existing file
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse as yaml.Node to preserve structure
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind == 0 {
		// Empty file: start a fresh document.
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	parts := strings.Split(key, ".")
	for _, section := range parts[:len(parts)-1] {
		child := findMapValue(node, section)
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalar(section), child)
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a section in config", section)
		}
		node = child
	}

	leaf := parts[len(parts)-1]
	if existing := findMapValue(node, leaf); existing != nil {
		existing.Kind = yaml.ScalarNode
		existing.Tag = "!!str"
		existing.Value = value
		existing.Content = nil
	} else {
		node.Content = append(node.Content, scalar(leaf), scalar(value))
	}

	// Write back to file
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func knownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
