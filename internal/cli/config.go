package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/pipeline"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the user configuration loaded from
// ~/.config/pixelstack/config.toml. All fields are optional; zero values
// fall back to built-in defaults.
//
// Example:
//
//	[convert]
//	resolution = 128
//	max_height = 48
//
//	[cache]
//	backend = "redis"
//
//	[cache.redis]
//	addr = "localhost:6379"
type Config struct {
	Convert ConvertConfig `toml:"convert"`
	Cache   CacheConfig   `toml:"cache"`
}

// ConvertConfig holds default conversion options.
type ConvertConfig struct {
	Resolution    int  `toml:"resolution"`
	MaxHeight     int  `toml:"max_height"`
	Layers        int  `toml:"layers"`
	DepthLevels   int  `toml:"depth_levels"`
	EdgeThreshold int  `toml:"edge_threshold"`
	Shell         bool `toml:"shell"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig holds Redis connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LoadConfig reads the user's config file. A missing file yields an empty
// config; a malformed file or unknown backend is an error.
func LoadConfig() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return &Config{}, nil
	}
	return loadConfigFile(filepath.Join(dir, "config.toml"))
}

func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	switch cfg.Cache.Backend {
	case "", CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (must be file, redis, or none)", cfg.Cache.Backend)
	}
	return &cfg, nil
}

// applyDefaults fills unset pipeline options from the config file.
// Explicit command-line flags always win.
func (c *Config) applyDefaults(opts *pipeline.Options) {
	if opts.Resolution == 0 {
		opts.Resolution = c.Convert.Resolution
	}
	if opts.MaxHeight == 0 {
		opts.MaxHeight = c.Convert.MaxHeight
	}
	if opts.Layers == 0 {
		opts.Layers = c.Convert.Layers
	}
	if opts.DepthLevels == 0 {
		opts.DepthLevels = c.Convert.DepthLevels
	}
	if opts.EdgeThreshold == 0 {
		opts.EdgeThreshold = c.Convert.EdgeThreshold
	}
	if !opts.Shell {
		opts.Shell = c.Convert.Shell
	}
}
