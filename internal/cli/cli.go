// Package cli implements the pixelstack command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelstack/pkg/buildinfo"
	"github.com/matzehuels/pixelstack/pkg/cache"
	"github.com/matzehuels/pixelstack/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pixelstack"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and the user's
// config file applied (missing config files are fine).
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}
	cfg, err := LoadConfig()
	if err != nil {
		c.Logger.Warn("ignoring config file", "error", err)
		cfg = &Config{}
	}
	c.Config = cfg
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pixelstack",
		Short:        "Pixelstack converts 2D images into sparse 3D voxel fields",
		Long:         `Pixelstack is a CLI tool that converts a single 2D image into a sparse 3D voxel field using brightness, hue, or edge structure, and renders the result as JSON, VXG, interactive HTML, or PNG slice montages.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The cache backend comes
// from the config file unless noCache forces it off.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case CacheBackendNone:
		return cache.NewNullCache(), nil
	case CacheBackendRedis:
		return cache.NewRedisCache(context.Background(), cache.RedisConfig{
			Addr:     c.Config.Cache.Redis.Addr,
			Password: c.Config.Cache.Redis.Password,
			DB:       c.Config.Cache.Redis.DB,
		})
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pixelstack/).
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

// configDir returns the config directory using XDG standard (~/.config/pixelstack/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	return strings.Split(s, ",")
}
