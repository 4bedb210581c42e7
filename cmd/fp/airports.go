package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var airportsCmd = &cobra.Command{
	Use:     "airports",
	Short:   "Browse airports",
	GroupID: "network",
}

var airportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List airports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, _ := cmd.Flags().GetInt("skip")
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := fpClient.ListAirports(context.Background(), skip, limit)
		if err != nil {
			return fmt.Errorf("listing airports: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printAirportList(os.Stdout, resp.Airports)
		fmt.Printf("\n%d airports (skip %d, limit %d)\n", len(resp.Airports), resp.Skip, resp.Limit)
		return nil
	},
}

var airportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an airport",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseAirportID(args[0])
		if err != nil {
			return err
		}
		a, err := fpClient.GetAirport(context.Background(), id)
		if err != nil {
			return fmt.Errorf("getting airport: %w", err)
		}
		if jsonOutput {
			printJSON(a)
			return nil
		}
		printAirport(os.Stdout, a)
		return nil
	},
}

func parseAirportID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid airport id %q", s)
	}
	return id, nil
}

func init() {
	airportsListCmd.Flags().Int("skip", 0, "number of airports to skip")
	airportsListCmd.Flags().Int("limit", 100, "maximum number of airports to list")

	airportsCmd.AddCommand(airportsListCmd)
	airportsCmd.AddCommand(airportsShowCmd)
}
