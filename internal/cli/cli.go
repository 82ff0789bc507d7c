// Package cli implements the analemma command-line interface.
//
// This package provides commands for computing the Sun's yearly path,
// detecting the Sun in photographs, drawing analemma overlays and charts,
// and serving the same pipeline over HTTP. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - calculate: Compute the analemma for an observer and print statistics
//   - detect: Find the Sun in a photograph
//   - overlay: Draw the year's analemma onto a photograph
//   - chart: Render standalone analemma charts as PNG
//   - compare: Compare the approximate model against the JPL Horizons ephemeris
//   - inspect: Browse the computed year interactively
//   - serve: Expose the pipeline as a JSON API
//   - cache: Manage the computation cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/pkg/buildinfo"
	"github.com/mvermeulen/analemma/pkg/cache"
	"github.com/mvermeulen/analemma/pkg/ephemeris/horizons"
	"github.com/mvermeulen/analemma/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "analemma"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// config holds defaults from ~/.config/analemma/config.toml, if present.
	config fileConfig
}

// New creates a new CLI instance with a default logger. The optional
// config file supplies flag defaults; a malformed one is ignored with a
// warning rather than blocking every command.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}
	cfg, err := loadConfig()
	if err != nil {
		c.Logger.Warn("ignoring config file", "err", err)
	}
	c.config = cfg
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Analemma computes and photographs the Sun's yearly path",
		Long:         `Analemma computes the position of the Sun at a fixed clock time for every day of a year, projects the resulting figure-eight for an observer, and can draw it onto a photograph or render it as standalone charts.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.calculateCommand())
	root.AddCommand(c.detectCommand())
	root.AddCommand(c.overlayCommand())
	root.AddCommand(c.chartCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use. The Horizons provider is
// always wired in; it only fires when a command asks for horizons mode.
func (c *CLI) newRunner(noCache bool, redisAddr string) (*pipeline.Runner, error) {
	store, err := newCache(noCache, redisAddr)
	if err != nil {
		return nil, err
	}
	provider := horizons.New(store)
	return pipeline.NewRunner(store, provider, c.Logger), nil
}

func newCache(noCache bool, redisAddr string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		return cache.NewRedisCache(context.Background(), redisAddr, appName)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/analemma/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
