package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/floodsim/datarecording"
	"github.com/sarchlab/floodsim/tracing"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history FILE",
		Short: "Print the broadcasts recorded in a trace file.",
		Long: `history reads a SQLite file written with --record. Without ` +
			`--seq it lists the broadcasts; with --seq it lists the ` +
			`deliveries of one broadcast.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			reader.MapTable(tracing.BroadcastTable, tracing.BroadcastEntry{})
			reader.MapTable(tracing.TransferTable, tracing.TransferEntry{})
			reader.MapTable(tracing.SummaryTable, tracing.SummaryEntry{})

			seq, _ := cmd.Flags().GetUint64("seq")
			if seq == 0 {
				return listBroadcasts(cmd.Context(), cmd.OutOrStdout(), reader)
			}

			return listDeliveries(cmd.Context(), cmd.OutOrStdout(), reader, seq)
		},
	}

	cmd.Flags().Uint64("seq", 0, "sequence number of the broadcast to show")

	return cmd
}

func listBroadcasts(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
) error {
	broadcasts, _, err := reader.Query(ctx, tracing.BroadcastTable,
		datarecording.QueryParams{OrderBy: "RunID, Sequence"})
	if err != nil {
		return err
	}

	summaries, _, err := reader.Query(ctx, tracing.SummaryTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	type key struct {
		runID string
		seq   uint64
	}

	byKey := make(map[key]*tracing.SummaryEntry)
	for _, row := range summaries {
		s := row.(*tracing.SummaryEntry)
		byKey[key{s.RunID, s.Sequence}] = s
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSEQ\tSOURCE\tTTL\tDELIVERED\tDISCARDED\tSTATE\tMESSAGE")

	for _, row := range broadcasts {
		b := row.(*tracing.BroadcastEntry)
		s, ok := byKey[key{b.RunID, b.Sequence}]

		state := "open"
		delivered, discarded := "-", "-"

		if ok {
			state = "reset"
			if s.Completed {
				state = "drained"
			}

			delivered = fmt.Sprint(s.Deliveries)
			discarded = fmt.Sprint(s.Discarded)
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\t%q\n",
			b.RunID, b.Sequence, b.Source, b.TTL,
			delivered, discarded, state, b.Message)
	}

	return w.Flush()
}

func listDeliveries(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
	seq uint64,
) error {
	rows, total, err := reader.Query(ctx, tracing.TransferTable,
		datarecording.QueryParams{
			Where:   "Sequence = ?",
			Args:    []any{seq},
			OrderBy: "RunID, Step",
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d deliveries of broadcast %d\n", total, seq)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTEP\tSENDER\tRECEIVER\tTTL\tOUTCOME")

	for _, row := range rows {
		t := row.(*tracing.TransferEntry)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			t.RunID, t.Step, t.Sender, t.Receiver, t.TTL, t.Outcome)
	}

	return w.Flush()
}
