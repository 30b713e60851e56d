// Package config loads shade's settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/shade/internal/decision"
	"github.com/jmylchreest/shade/internal/filter"
)

// Config is the resolved configuration.
type Config struct {
	Policy              string        `mapstructure:"policy"`
	Mode                string        `mapstructure:"mode"`
	Debounce            time.Duration `mapstructure:"debounce"`
	ThumbnailEdge       int           `mapstructure:"thumbnail_edge"`
	SampleLimit         int           `mapstructure:"sample_limit"`
	CollaboratorTimeout time.Duration `mapstructure:"collaborator_timeout"`
	ColorScheme         string        `mapstructure:"color_scheme"`
	Database            string        `mapstructure:"database"`
	LogLevel            string        `mapstructure:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Policy:              decision.PolicyA.String(),
		Mode:                filter.ModeStyleSheet.String(),
		Debounce:            500 * time.Millisecond,
		ThumbnailEdge:       96,
		SampleLimit:         20,
		CollaboratorTimeout: 2 * time.Second,
		ColorScheme:         "default",
		Database:            DefaultDatabasePath(),
		LogLevel:            "info",
	}
}

// DefaultDatabasePath returns $XDG_DATA_HOME/shade/lists.db, falling back to
// ~/.local/share.
func DefaultDatabasePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "shade", "lists.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "shade", "lists.db")
}

// PolicyValue returns the parsed decision policy.
func (c *Config) PolicyValue() decision.Policy {
	p, _ := decision.ParsePolicy(c.Policy)
	return p
}

// ModeValue returns the parsed filter mode.
func (c *Config) ModeValue() filter.Mode {
	m, _ := filter.ParseMode(c.Mode)
	return m
}

// Validate checks every field.
func (c *Config) Validate() error {
	var errs []error
	if _, err := decision.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := filter.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("debounce must be positive, got %s", c.Debounce))
	}
	if c.ThumbnailEdge < 1 {
		errs = append(errs, fmt.Errorf("thumbnail_edge must be at least 1, got %d", c.ThumbnailEdge))
	}
	if c.SampleLimit < 1 {
		errs = append(errs, fmt.Errorf("sample_limit must be at least 1, got %d", c.SampleLimit))
	}
	if c.CollaboratorTimeout <= 0 {
		errs = append(errs, fmt.Errorf("collaborator_timeout must be positive, got %s", c.CollaboratorTimeout))
	}
	switch strings.ToLower(c.ColorScheme) {
	case "", "default", "light", "dark", "prefer-light", "prefer-dark":
	default:
		errs = append(errs, fmt.Errorf("unknown color_scheme %q (want default|light|dark)", c.ColorScheme))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
