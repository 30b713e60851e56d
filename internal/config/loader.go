package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHADE"

// Keys lists every configuration key.
var Keys = []string{
	"policy",
	"mode",
	"debounce",
	"thumbnail_edge",
	"sample_limit",
	"collaborator_timeout",
	"color_scheme",
	"database",
	"log_level",
}

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
	configDirs []string
}

// NewLoader creates a loader searching the XDG config directory.
func NewLoader() *Loader {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "shade"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "shade"))
	}
	return &Loader{v: viper.New(), configDirs: dirs}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// SetConfigDirs replaces the search path.
func (l *Loader) SetConfigDirs(dirs ...string) {
	l.configDirs = dirs
}

// BindFlags binds any flag in fs whose name matches a key, with dashes
// standing in for underscores.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for _, key := range Keys {
		f := fs.Lookup(strings.ReplaceAll(key, "_", "-"))
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// Load loads configuration with precedence
// defaults < config file < env vars < flags.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setup(cfg)

	if err := l.readConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database = expandTilde(cfg.Database)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the config file that was loaded, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setup(cfg *Config) {
	v := l.v
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range l.configDirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("policy", cfg.Policy)
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("debounce", cfg.Debounce)
	v.SetDefault("thumbnail_edge", cfg.ThumbnailEdge)
	v.SetDefault("sample_limit", cfg.SampleLimit)
	v.SetDefault("collaborator_timeout", cfg.CollaboratorTimeout)
	v.SetDefault("color_scheme", cfg.ColorScheme)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("log_level", cfg.LogLevel)

	for _, key := range Keys {
		_ = v.BindEnv(key)
	}
}

// readConfigFile is lenient about a missing file unless one was named.
func (l *Loader) readConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}
	err := l.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && l.configFile == "" && errors.As(err, &notFound) {
		return nil
	}
	return err
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
