// Package cli implements the stepgraph command-line interface.
//
// This package provides commands for computing layouts from execution graph
// files, rendering them as visualizations, exploring a layout interactively,
// serving the layout engine over HTTP, and managing the local cache. The CLI
// is built using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - layout: Compute a plot layout from a graph file
//   - render: Generate SVG, PNG, PDF, DOT, or JSON outputs
//   - view: Explore a graph interactively in the terminal
//   - serve: Run the HTTP server
//   - cache: Manage the local layout and artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stepgraph/stepgraph/pkg/buildinfo"
	"github.com/stepgraph/stepgraph/pkg/cache"
	"github.com/stepgraph/stepgraph/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "stepgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and the user's config
// file applied (if one exists).
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: loadConfigOrDefault(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stepgraph plots execution graphs as navigable node charts",
		Long:         `Stepgraph is a tool for visualizing execution and dependency graphs: it lays nodes out by depth and rank, plots them as a zoomable chart, and serves the result over HTTP or in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stepgraph/).
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

// configDir returns the config directory using XDG standard (~/.config/stepgraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// pipelineOptions builds pipeline options seeded from the config file.
// Flags bound to the returned struct override the config values.
func (c *CLI) pipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		Head:     c.Config.Head,
		Width:    c.Config.Width,
		Height:   c.Config.Height,
		Margin:   c.Config.Margin,
		Softness: c.Config.Softness,
		Squeeze:  c.Config.Squeeze,
		Seed:     c.Config.Seed,
	}
	opts.SetLayoutDefaults()
	opts.Logger = c.Logger
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
