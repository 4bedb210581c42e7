package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var topologyCmd = &cobra.Command{
	Use:     "topology",
	Short:   "Inspect and grow the connection network",
	GroupID: "network",
}

var topologyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show connectivity statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := fpClient.Topology(context.Background())
		if err != nil {
			return fmt.Errorf("getting topology: %w", err)
		}
		if jsonOutput {
			printJSON(topo)
			return nil
		}
		printTopologyStats(os.Stdout, topo.Stats)
		return nil
	},
}

var topologySynthesizeCmd = &cobra.Command{
	Use:   "synthesize [<airport-id>...]",
	Short: "Add connections until every airport reaches its target degree",
	Long: `Synthesize grows the network among the given airports, or among every
airport when none are given. Existing connections are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, a := range args {
			id, err := parseAirportID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		resp, err := fpClient.Synthesize(context.Background(), ids)
		if err != nil {
			return fmt.Errorf("synthesizing topology: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printSynthesis(os.Stdout, resp)
		return nil
	},
}

func init() {
	topologyCmd.AddCommand(topologyShowCmd)
	topologyCmd.AddCommand(topologySynthesizeCmd)
}
