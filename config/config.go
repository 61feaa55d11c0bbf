// Package config holds the settings of a floodsim run. Values come from the
// defaults, then an optional YAML file, then FLOODSIM_* environment
// variables (optionally loaded from a .env file), then command-line flags.
package config

import (
	"io"
	"os"
	"time"

	"github.com/gologme/log"
	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/monitoring"
	"github.com/sarchlab/floodsim/sim/timing"
	"github.com/sarchlab/floodsim/simulation"
	"github.com/sarchlab/floodsim/topology"
	"github.com/sarchlab/floodsim/tracing"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// TopologyConfig controls graph generation.
type TopologyConfig struct {
	Nodes       int           `yaml:"nodes"`
	MaxDegree   int           `yaml:"max_degree"`
	Area        topology.Area `yaml:"area"`
	Seed        int64         `yaml:"seed"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// FloodConfig controls the broadcast.
type FloodConfig struct {
	TTL     int    `yaml:"ttl"`
	Message string `yaml:"message"`
	Source  int    `yaml:"source"`
}

// DriverConfig controls how often the flood is stepped.
type DriverConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxSteps int           `yaml:"max_steps"`
}

// MonitorConfig controls the web monitor.
type MonitorConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Port      int     `yaml:"port"`
	HitRadius float64 `yaml:"hit_radius"`
}

// RecordConfig controls the SQLite trace.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RedisConfig controls the live delivery feed. An empty address disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Channel  string `yaml:"channel"`
}

// Config is the full set of settings.
type Config struct {
	Topology TopologyConfig `yaml:"topology"`
	Flood    FloodConfig    `yaml:"flood"`
	Driver   DriverConfig   `yaml:"driver"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Record   RecordConfig   `yaml:"record"`
	Redis    RedisConfig    `yaml:"redis"`
	LogLevel string         `yaml:"log_level"`
}

// Default returns the settings of the original visualization.
func Default() *Config {
	return &Config{
		Topology: TopologyConfig{
			Nodes:     topology.DefaultNumNodes,
			MaxDegree: topology.DefaultMaxDegree,
			Area:      topology.DefaultArea,
		},
		Flood: FloodConfig{
			TTL:     simulation.DefaultTTL,
			Message: simulation.DefaultMessage,
			Source:  0,
		},
		Driver: DriverConfig{
			Interval: timing.DefaultInterval,
		},
		Monitor: MonitorConfig{
			HitRadius: monitoring.DefaultHitRadius,
		},
		Redis: RedisConfig{
			Channel: tracing.DefaultFeedChannel,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	return os.WriteFile(path, data, 0o644)
}

var logLevels = []string{"error", "warn", "info", "debug", "trace"}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Topology.Nodes < 0:
		return errors.Wrapf(ErrInvalidConfig,
			"negative node count %d", c.Topology.Nodes)
	case c.Topology.MaxDegree < 0:
		return errors.Wrapf(ErrInvalidConfig,
			"negative max degree %d", c.Topology.MaxDegree)
	case c.Topology.Area.Width <= 0 || c.Topology.Area.Height <= 0:
		return errors.Wrapf(ErrInvalidConfig,
			"area %gx%g is empty",
			c.Topology.Area.Width, c.Topology.Area.Height)
	case c.Flood.TTL < 1:
		return errors.Wrapf(ErrInvalidConfig, "ttl %d below 1", c.Flood.TTL)
	case c.Flood.Source < 0 || c.Flood.Source >= c.Topology.Nodes:
		return errors.Wrapf(ErrInvalidConfig,
			"source %d not in a graph of %d nodes",
			c.Flood.Source, c.Topology.Nodes)
	case c.Driver.Interval < 0:
		return errors.Wrapf(ErrInvalidConfig,
			"negative interval %s", c.Driver.Interval)
	case c.Monitor.HitRadius < 0:
		return errors.Wrapf(ErrInvalidConfig,
			"negative hit radius %g", c.Monitor.HitRadius)
	}

	if levelIndex(c.LogLevel) < 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"unknown log level %q", c.LogLevel)
	}

	return nil
}

func levelIndex(level string) int {
	for i, l := range logLevels {
		if l == level {
			return i
		}
	}

	return -1
}

// TopologyBuilder returns a generator configured from the topology section.
// A zero seed draws a random one.
func (c *Config) TopologyBuilder() topology.Builder {
	b := topology.MakeBuilder().
		WithNumNodes(c.Topology.Nodes).
		WithMaxDegree(c.Topology.MaxDegree).
		WithArea(c.Topology.Area).
		WithMaxAttempts(c.Topology.MaxAttempts)

	if c.Topology.Seed != 0 {
		b = b.WithSeed(c.Topology.Seed)
	}

	return b
}

// NewLogger creates a logger writing to w with every level up to LogLevel
// enabled.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	logger := log.New(w, "", log.LstdFlags)

	for i := 0; i <= levelIndex(c.LogLevel); i++ {
		logger.EnableLevel(logLevels[i])
	}

	return logger
}
