package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sarchlab/floodsim/config"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/sim/timing"
	"github.com/sarchlab/floodsim/simulation"
	"github.com/sarchlab/floodsim/topology"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Flood one message and print every delivery.",
		Long: `run generates a topology, starts a broadcast at the source ` +
			`node and steps the flood until no packet is left, then prints ` +
			`the transfer log and the number of steps per outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			s, err := buildSimulation(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Terminate()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runFlood(ctx, cmd.OutOrStdout(), s, cfg)
		},
	}

	addFloodFlags(cmd)

	return cmd
}

func runFlood(
	ctx context.Context,
	out io.Writer,
	s *simulation.Simulation,
	cfg *config.Config,
) error {
	ctrl := s.Controller()

	seq, err := ctrl.StartBroadcast(cfg.Flood.Source, cfg.Flood.Message)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "broadcast %d from node %d, ttl %d\n",
		seq, cfg.Flood.Source, ctrl.InitialTTL())

	steps, err := timing.NewTicker(ctrl, cfg.Driver.Interval).
		WithMaxSteps(cfg.Driver.MaxSteps).
		Run(ctx)

	if err != nil {
		return err
	}

	printTransfers(out, ctrl.Transfers())
	printOutcomes(out, s, steps)

	return nil
}

func printTransfers(out io.Writer, transfers []flooding.Transfer) {
	for _, t := range transfers {
		if t.Sender == topology.NoNode {
			fmt.Fprintf(out, "  -> %d\n", t.Receiver)
			continue
		}

		fmt.Fprintf(out, "  %d -> %d\n", t.Sender, t.Receiver)
	}
}

func printOutcomes(out io.Writer, s *simulation.Simulation, steps int) {
	counter := s.GetOutcomeCounter()

	fmt.Fprintf(out, "%d steps:", steps)

	outcomes := []flooding.Outcome{
		flooding.OutcomeForwarded,
		flooding.OutcomeExpired,
		flooding.OutcomeDuplicate,
		flooding.OutcomeInvalid,
	}
	for _, o := range outcomes {
		fmt.Fprintf(out, " %s %d", o, counter.GetCount(o))
	}

	fmt.Fprintln(out)
}
