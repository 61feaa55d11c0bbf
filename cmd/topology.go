package cmd

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/topology"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type nodeDoc struct {
	ID        int               `yaml:"id"`
	Position  topology.Position `yaml:"position"`
	Neighbors []int             `yaml:"neighbors,flow"`
}

type topologyDoc struct {
	Nodes []nodeDoc `yaml:"nodes"`
	Edges [][2]int  `yaml:"edges,flow"`
}

func newTopologyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Generate a topology and print it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			g, err := cfg.TopologyBuilder().Build()
			if err != nil {
				return err
			}

			asYAML, _ := cmd.Flags().GetBool("yaml")
			if asYAML {
				return writeTopologyYAML(cmd.OutOrStdout(), g)
			}

			writeTopology(cmd.OutOrStdout(), g)

			return nil
		},
	}

	cmd.Flags().Bool("yaml", false, "print the topology as YAML")

	return cmd
}

func writeTopology(out io.Writer, g *topology.Graph) {
	fmt.Fprintf(out, "%d nodes, %d edges\n", g.NumNodes(), g.NumEdges())

	for _, n := range g.Nodes() {
		pos := n.Position()
		fmt.Fprintf(out, "node %d (%.1f, %.1f): %v\n",
			n.ID(), pos.X, pos.Y, n.Neighbors())
	}
}

func writeTopologyYAML(out io.Writer, g *topology.Graph) error {
	doc := topologyDoc{}

	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, nodeDoc{
			ID:        n.ID(),
			Position:  n.Position(),
			Neighbors: n.Neighbors(),
		})
	}

	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, [2]int{e.A, e.B})
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode topology")
	}

	return enc.Close()
}
