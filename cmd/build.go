package cmd

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/config"
	"github.com/sarchlab/floodsim/simulation"
	"github.com/sarchlab/floodsim/tracing"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// addFloodFlags adds the flags of commands that run a broadcast.
func addFloodFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("ttl", 0, "hop budget of the broadcast")
	flags.String("message", "", "message to broadcast")
	flags.Int("source", 0, "node the broadcast starts from")
	flags.Duration("interval", 0, "time between two steps, 0 to run at once")
	flags.Int("max-steps", 0, "give up after this many steps, 0 for no limit")
	flags.String("record", "", "record the flood into this SQLite file")
	flags.Bool("monitor", false, "serve the web monitor")
	flags.Int("port", 0, "port of the web monitor")
	flags.String("redis-addr", "", "publish deliveries to this Redis server")
	flags.String("redis-channel", "", "Redis channel of the delivery feed")
}

// buildSimulation wires a simulation from the config. The logger writes to
// logOut.
func buildSimulation(
	cfg *config.Config,
	logOut io.Writer,
) (*simulation.Simulation, error) {
	logger := cfg.NewLogger(logOut)

	b := simulation.MakeBuilder().
		WithTopology(cfg.TopologyBuilder()).
		WithInitialTTL(cfg.Flood.TTL).
		WithHitRadius(cfg.Monitor.HitRadius).
		WithLogger(logger)

	if cfg.Record.Enabled {
		b = b.WithRecording(cfg.Record.Path)
	}

	if cfg.Monitor.Enabled {
		b = b.WithMonitor()
		if cfg.Monitor.Port != 0 {
			b = b.WithMonitorPort(cfg.Monitor.Port)
		}
	}

	if cfg.Redis.Addr != "" {
		publisher := tracing.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := publisher.Ping(ctx); err != nil {
			return nil, errors.Wrapf(err, "redis at %s", cfg.Redis.Addr)
		}

		atexit.Register(func() { publisher.Close() })

		b = b.WithFeed(publisher, cfg.Redis.Channel)
	}

	s, err := b.Build()
	if err != nil {
		return nil, err
	}

	if s.GetMonitor() != nil {
		s.GetMonitor().WithMessage(cfg.Flood.Message)

		if err := s.GetMonitor().StartServer(); err != nil {
			s.Terminate()
			return nil, err
		}
	}

	return s, nil
}
