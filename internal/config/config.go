// Package config provides configuration loading and management for glyph.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "glyph.config.yml"

// Config is the root configuration.
type Config struct {
	Target       string          `json:"target"        mapstructure:"target"`
	Connection   Connection      `json:"connection"    mapstructure:"connection"`
	ScenariosDir string          `json:"scenarios_dir" mapstructure:"scenarios_dir"`
	LLM          LLM             `json:"llm"           mapstructure:"llm"`
	Build        Build           `json:"build"         mapstructure:"build"`
	Retention    RetentionPolicy `json:"retention"     mapstructure:"retention"`
}

// Connection describes the application under test. Keys besides url are kept
// verbatim and surfaced to the model as extra context.
type Connection struct {
	URL   string         `json:"url" mapstructure:"url"`
	Extra map[string]any `json:"-"   mapstructure:",remain"`
}

// LLM selects the model backend.
type LLM struct {
	Provider  string `json:"provider"              mapstructure:"provider"`
	Model     string `json:"model"                 mapstructure:"model"`
	APIKeyEnv string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	BaseURL   string `json:"base_url,omitempty"    mapstructure:"base_url"`
}

// Build defines build loop limits.
type Build struct {
	MaxIterations int           `json:"max_iterations" mapstructure:"max_iterations"`
	ExecTimeout   time.Duration `json:"exec_timeout"   mapstructure:"exec_timeout"`
}

// RetentionPolicy defines how much build history to keep.
type RetentionPolicy struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days"`
}

// Default returns the configuration written by glyph init.
func Default() Config {
	return Config{
		Target:       "playwright",
		Connection:   Connection{URL: "http://localhost:3000"},
		ScenariosDir: "scenarios",
		LLM: LLM{
			Provider:  "openai",
			Model:     "gpt-4o",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Build: Build{
			MaxIterations: 20,
			ExecTimeout:   5 * time.Minute,
		},
		Retention: RetentionPolicy{KeepLast: 20},
	}
}

// ApplyDefaults fills unset fields with the defaults.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Target == "" {
		c.Target = d.Target
	}
	if c.Connection.URL == "" {
		c.Connection.URL = d.Connection.URL
	}
	if c.ScenariosDir == "" {
		c.ScenariosDir = d.ScenariosDir
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = d.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = d.LLM.Model
	}
	if c.Build.MaxIterations <= 0 {
		c.Build.MaxIterations = d.Build.MaxIterations
	}
	if c.Build.ExecTimeout <= 0 {
		c.Build.ExecTimeout = d.Build.ExecTimeout
	}
}

// PromptContext renders the configuration lines shared with the model so
// generated scripts target the right application.
func (c Config) PromptContext() string {
	lines := []string{
		fmt.Sprintf("Target: %s", c.Target),
		fmt.Sprintf("Application URL: %s", c.Connection.URL),
	}

	keys := make([]string, 0, len(c.Connection.Extra))
	for k := range c.Connection.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("Connection %s: %v", k, c.Connection.Extra[k]))
	}

	return strings.Join(lines, "\n")
}
