// Package config loads engine configuration from HCL files.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete engine configuration: one engine block plus any
// number of table blocks.
type Config struct {
	Engine EngineSettings `hcl:"engine,block"`
	Tables []TableConfig  `hcl:"table,block"`
}

// EngineSettings contains engine-level configuration.
type EngineSettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`

	// Database is the SQLite path for the event store. Empty keeps events in
	// memory only.
	Database string `hcl:"database,optional"`

	// SnapshotEvery controls how many events accumulate between snapshots.
	// Zero disables snapshots.
	SnapshotEvery int `hcl:"snapshot_every,optional"`
}

// TableConfig defines one poker table.
type TableConfig struct {
	Name          string `hcl:"name,label"`
	SmallBlind    int    `hcl:"small_blind"`
	BigBlind      int    `hcl:"big_blind"`
	StartingChips int    `hcl:"starting_chips,optional"`
	MinPlayers    int    `hcl:"min_players,optional"`
	MaxPlayers    int    `hcl:"max_players,optional"`
	Seed          string `hcl:"seed,optional"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineSettings{
			LogLevel:      "info",
			SnapshotEvery: 20,
		},
		Tables: []TableConfig{
			{
				Name:          "main",
				SmallBlind:    1,
				BigBlind:      2,
				StartingChips: 200,
				MinPlayers:    2,
				MaxPlayers:    6,
			},
		},
	}
}

// Load reads configuration from an HCL file, falling back to defaults when
// the file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if cfg.Engine.LogLevel == "" {
		cfg.Engine.LogLevel = "info"
	}
	if cfg.Engine.SnapshotEvery == 0 {
		cfg.Engine.SnapshotEvery = 20
	}

	for i := range cfg.Tables {
		t := &cfg.Tables[i]
		if t.StartingChips == 0 {
			t.StartingChips = t.BigBlind * 100
		}
		if t.MinPlayers == 0 {
			t.MinPlayers = 2
		}
		if t.MaxPlayers == 0 {
			t.MaxPlayers = 6
		}
	}

	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Engine.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Engine.LogLevel)
	}
	if c.Engine.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot_every must not be negative")
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}
	for _, t := range c.Tables {
		if t.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", t.Name)
		}
		if t.BigBlind <= t.SmallBlind {
			return fmt.Errorf("table %s: big blind must be greater than small blind", t.Name)
		}
		if t.StartingChips < t.BigBlind {
			return fmt.Errorf("table %s: starting chips below the big blind", t.Name)
		}
		if t.MinPlayers < 2 {
			return fmt.Errorf("table %s: min players must be at least 2", t.Name)
		}
		if t.MaxPlayers < t.MinPlayers || t.MaxPlayers > 10 {
			return fmt.Errorf("table %s: max players must be between min players and 10", t.Name)
		}
	}
	return nil
}

// Table returns a table configuration by name.
func (c *Config) Table(name string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}
