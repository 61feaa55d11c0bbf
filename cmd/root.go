// Package cmd provides the command-line interface of floodsim.
package cmd

import (
	"github.com/sarchlab/floodsim/config"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "floodsim",
		Short: "floodsim simulates controlled flooding over a random network.",
		Long: `floodsim generates a random network with bounded node degree, ` +
			`injects a message at a source node and floods it to every node ` +
			`within the hop budget, one packet per step.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	flags.String("env-file", ".env", "file of FLOODSIM_* variables to load")
	flags.String("log-level", "", "error, warn, info, debug or trace")
	flags.Int("nodes", 0, "number of nodes")
	flags.Int("degree", 0, "maximum number of edges per node")
	flags.Int64("seed", 0, "random seed of the topology, 0 for a random one")

	root.AddCommand(
		newRunCommand(),
		newTopologyCommand(),
		newServeCommand(),
		newHistoryCommand(),
	)

	return root
}

// loadConfig merges the defaults, the config file, the environment and the
// flags the user set, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error

		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}

	f := flagReader{cmd: cmd}
	f.readString("log-level", &cfg.LogLevel)
	f.readInt("nodes", &cfg.Topology.Nodes)
	f.readInt("degree", &cfg.Topology.MaxDegree)
	f.readInt64("seed", &cfg.Topology.Seed)
	f.readInt("ttl", &cfg.Flood.TTL)
	f.readString("message", &cfg.Flood.Message)
	f.readInt("source", &cfg.Flood.Source)
	f.readDuration("interval", &cfg.Driver.Interval)
	f.readInt("max-steps", &cfg.Driver.MaxSteps)
	f.readInt("port", &cfg.Monitor.Port)
	f.readString("redis-addr", &cfg.Redis.Addr)
	f.readString("redis-channel", &cfg.Redis.Channel)

	if f.changed("record") {
		f.readString("record", &cfg.Record.Path)
		cfg.Record.Enabled = true
	}

	if f.changed("monitor") {
		f.readBool("monitor", &cfg.Monitor.Enabled)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
