// Package config loads the optional project configuration from
// .treescope/config.yaml. Every field is optional; absent values fall back
// to the built-in defaults, and CLI flags override file values.
package config

import (
	"fmt"
	"os"
	"time"

	"treescope/pkg/layout"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk project configuration.
type Config struct {
	// Document overrides the default .treescope/tree.json path.
	Document string `yaml:"document,omitempty"`

	// Layout overrides individual geometry constants.
	Layout LayoutConfig `yaml:"layout,omitempty"`

	// TransitionMS overrides the animation duration in milliseconds.
	TransitionMS int `yaml:"transition_ms,omitempty"`

	// Serve is the default preview server listen address.
	Serve string `yaml:"serve,omitempty"`
}

// LayoutConfig mirrors layout.Config with all fields optional. Zero means
// keep the default.
type LayoutConfig struct {
	LevelSpacing float64 `yaml:"level_spacing,omitempty"`
	NodeRadius   float64 `yaml:"node_radius,omitempty"`
	MinWidth     float64 `yaml:"min_width,omitempty"`
	MinHeight    float64 `yaml:"min_height,omitempty"`
	LabelBudget  float64 `yaml:"label_budget,omitempty"`
	FontSize     float64 `yaml:"font_size,omitempty"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values that would break the layout.
func (c *Config) Validate() error {
	l := c.Layout
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"level_spacing", l.LevelSpacing},
		{"node_radius", l.NodeRadius},
		{"min_width", l.MinWidth},
		{"min_height", l.MinHeight},
		{"label_budget", l.LabelBudget},
		{"font_size", l.FontSize},
	} {
		if v.value < 0 {
			return fmt.Errorf("layout.%s must not be negative", v.name)
		}
	}
	if c.TransitionMS < 0 {
		return fmt.Errorf("transition_ms must not be negative")
	}
	return nil
}

// ApplyLayout merges the file's overrides onto a layout config.
func (c *Config) ApplyLayout(base layout.Config) layout.Config {
	l := c.Layout
	if l.LevelSpacing > 0 {
		base.LevelSpacing = l.LevelSpacing
	}
	if l.NodeRadius > 0 {
		base.NodeRadius = l.NodeRadius
	}
	if l.MinWidth > 0 {
		base.MinWidth = l.MinWidth
	}
	if l.MinHeight > 0 {
		base.MinHeight = l.MinHeight
	}
	if l.LabelBudget > 0 {
		base.LabelBudgetPx = l.LabelBudget
	}
	if l.FontSize > 0 {
		base.FontSizePx = l.FontSize
	}
	return base
}

// TransitionDuration returns the configured duration, or fallback when the
// file does not set one.
func (c *Config) TransitionDuration(fallback time.Duration) time.Duration {
	if c.TransitionMS > 0 {
		return time.Duration(c.TransitionMS) * time.Millisecond
	}
	return fallback
}
