// Package cli provides the command-line interface for shade.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/shade/internal/colour"
	"github.com/jmylchreest/shade/internal/config"
	"github.com/jmylchreest/shade/internal/logging"
	"github.com/jmylchreest/shade/internal/systheme"
	"github.com/jmylchreest/shade/internal/urllist"
	"github.com/jmylchreest/shade/internal/version"
)

// app is the state shared by every command of one invocation.
type app struct {
	configFile string
	verbose    bool
	quiet      bool
	jsonLogs   bool

	cfg    *config.Config
	logger hclog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "shade",
		Short: "Adaptive dark-mode inversion for HTML pages",
		Long: `Shade decides whether a page should be shown inverted for a dark desktop,
and applies or removes a reversible inversion that leaves images and video
untouched.

The decision combines the page's own theme (from a screenshot or its styles),
the system colour-scheme preference and your allow and deny lists.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: ~/.config/shade/config.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	pf.BoolVar(&a.jsonLogs, "log-json", false, "write logs as JSON")
	pf.String("database", config.DefaultDatabasePath(), "path to the list database")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.String("color-scheme", "default", "system colour-scheme override (default, light, dark)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newDetectCmd(a),
		newApplyCmd(a),
		newRemoveCmd(a),
		newListCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.New(logging.Options{
		Name:   "shade",
		Level:  logging.Level(a.verbose, a.quiet, cfg.LogLevel),
		Output: cmd.ErrOrStderr(),
		JSON:   a.jsonLogs,
	})
	if used := loader.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded config", "file", used)
	}
	return nil
}

// openStore opens the list database, creating its directory.
func (a *app) openStore() (urllist.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.Database), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := urllist.NewSQLiteStore(a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open list database: %w", err)
	}
	return store, nil
}

// systemReader returns a fixed preference when system is set, otherwise the
// detector chain with the configured override.
func (a *app) systemReader(system string) (systheme.Reader, error) {
	if system != "" {
		dark, ok := systheme.ParseScheme(system)
		if !ok {
			return nil, fmt.Errorf("invalid --system %q (want light|dark)", system)
		}
		if dark {
			return systheme.Static(colour.ThemeDark), nil
		}
		return systheme.Static(colour.ThemeLight), nil
	}
	return systheme.NewResolver(a.cfg.ColorScheme, systheme.DefaultDetectors()...), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
