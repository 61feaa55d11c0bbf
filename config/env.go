package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// EnvPrefix starts the name of every variable ApplyEnv reads.
const EnvPrefix = "FLOODSIM_"

// ApplyEnv loads envFile into the environment if it exists, then overrides
// settings from FLOODSIM_* variables. Variables already set in the
// environment win over the file. An empty envFile skips the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "load %s", envFile)
		}
	}

	e := envReader{}

	e.readInt("NODES", &c.Topology.Nodes)
	e.readInt("MAX_DEGREE", &c.Topology.MaxDegree)
	e.readInt64("SEED", &c.Topology.Seed)
	e.readInt("TTL", &c.Flood.TTL)
	e.readString("MESSAGE", &c.Flood.Message)
	e.readInt("SOURCE", &c.Flood.Source)
	e.readDuration("INTERVAL", &c.Driver.Interval)
	e.readInt("MAX_STEPS", &c.Driver.MaxSteps)
	e.readBool("MONITOR", &c.Monitor.Enabled)
	e.readInt("MONITOR_PORT", &c.Monitor.Port)
	e.readString("RECORD", &c.Record.Path)
	e.readString("REDIS_ADDR", &c.Redis.Addr)
	e.readString("REDIS_PASSWORD", &c.Redis.Password)
	e.readString("REDIS_CHANNEL", &c.Redis.Channel)
	e.readString("LOG_LEVEL", &c.LogLevel)

	if c.Record.Path != "" {
		c.Record.Enabled = true
	}

	return e.err
}

// envReader keeps the first parse error so that the calls above stay flat.
type envReader struct {
	err error
}

func (e *envReader) lookup(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}

	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

func (e *envReader) fail(name string, err error) {
	e.err = errors.Wrapf(ErrInvalidConfig, "%s%s: %v", EnvPrefix, name, err)
}

func (e *envReader) readString(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) readInt(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, err)
		return
	}

	*dst = n
}

func (e *envReader) readInt64(name string, dst *int64) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.fail(name, err)
		return
	}

	*dst = n
}

func (e *envReader) readBool(name string, dst *bool) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, err)
		return
	}

	*dst = b
}

func (e *envReader) readDuration(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, err)
		return
	}

	*dst = d
}
