package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/sim/timing"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web monitor and step floods as they are started.",
		Long: `serve starts the web monitor and keeps stepping the flood at ` +
			`the configured interval. Clicking a node on the page starts a ` +
			`new broadcast from it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			cfg.Monitor.Enabled = true

			s, err := buildSimulation(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Terminate()

			idle, _ := cmd.Flags().GetBool("idle")
			if !idle {
				_, err = s.Controller().StartBroadcast(
					cfg.Flood.Source, cfg.Flood.Message)
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "serving %s\n", s.GetMonitor().URL())

			open, _ := cmd.Flags().GetBool("open")
			if open {
				if err := s.GetMonitor().OpenBrowser(); err != nil {
					s.Logger().Warnf("cannot open browser: %v", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = timing.NewTicker(s.Controller(), cfg.Driver.Interval).Loop(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		},
	}

	addFloodFlags(cmd)
	cmd.Flags().Bool("open", false, "open the monitor in a browser")
	cmd.Flags().Bool("idle", false, "wait for a broadcast from the page")

	return cmd
}
