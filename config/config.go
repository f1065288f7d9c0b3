package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridflex/gridflex/core/announce"
	"github.com/gridflex/gridflex/core/metrics"
	"github.com/gridflex/gridflex/core/optimizer"
	"github.com/gridflex/gridflex/core/protocol"
)

// Config is the root configuration for the scheduling service.
type Config struct {
	Optimizer optimizer.Config `json:"optimizer"`
	Protocol  protocol.Config  `json:"protocol"`
	Ledger    LedgerConfig     `json:"ledger"`
	Metrics   metrics.Config   `json:"metrics"`
	Announce  announce.Config  `json:"announce"`
	Feed      FeedConfig       `json:"feed"`
	// ForecastHorizonHours bounds the signal forecast requested per cycle.
	ForecastHorizonHours int `json:"forecast_horizon_hours"`
}

// FeedConfig points at the collaborator-supplied workload and signal data.
type FeedConfig struct {
	WorkloadsPath string `json:"workloads_path"`
	SignalsPath   string `json:"signals_path"`
}

// Validate checks mandatory fields.
func (c FeedConfig) Validate() error {
	if c.WorkloadsPath == "" {
		return fmt.Errorf("workloads_path is required")
	}
	if c.SignalsPath == "" {
		return fmt.Errorf("signals_path is required")
	}
	return nil
}

// LedgerConfig defines where and how the audit trail is exported.
type LedgerConfig struct {
	// ExportPath is the audit trail destination. Empty disables the export.
	ExportPath string `json:"export_path"`
	// Format selects the export encoding: "json" or "jsonl".
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *LedgerConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks the export format.
func (c LedgerConfig) Validate() error {
	if c.Format != "json" && c.Format != "jsonl" {
		return fmt.Errorf("unknown export format %s", c.Format)
	}
	return nil
}

// Load reads the configuration file at path, applies GF_ environment
// overrides, then validates every section. Any failure here is fatal:
// no cycle starts on a malformed configuration.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("GF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "gf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults across all sections.
func (c *Config) SetDefaults() {
	c.Optimizer.SetDefaults()
	c.Protocol.SetDefaults()
	c.Ledger.SetDefaults()
	c.Metrics.SetDefaults()
	c.Announce.SetDefaults()
	if c.ForecastHorizonHours == 0 {
		c.ForecastHorizonHours = 24
	}
}

// Validate checks all sections.
func (c Config) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	if err := c.Protocol.Validate(); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := c.Feed.Validate(); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Announce.Validate(); err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	if c.ForecastHorizonHours < 0 {
		return fmt.Errorf("forecast_horizon_hours must not be negative")
	}
	return nil
}
