package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flightpath/internal/client"
)

var routeCmd = &cobra.Command{
	Use:     "route",
	Short:   "Plan routes and browse your route history",
	GroupID: "routes",
}

var routePlanCmd = &cobra.Command{
	Use:   "plan <origin-id> <destination-id>",
	Short: "Plan the shortest route between two airports",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, err := parseAirportID(args[0])
		if err != nil {
			return err
		}
		dest, err := parseAirportID(args[1])
		if err != nil {
			return err
		}
		criterion, _ := cmd.Flags().GetString("by")

		req := &client.PlanRouteRequest{
			OriginID:      origin,
			DestinationID: dest,
			Criterion:     criterion,
		}
		if cmd.Flags().Changed("max-stops") {
			v, _ := cmd.Flags().GetInt("max-stops")
			req.MaxStops = &v
		}
		if cmd.Flags().Changed("max-concurrency") {
			v, _ := cmd.Flags().GetInt("max-concurrency")
			req.MaxConcurrency = &v
		}
		if cmd.Flags().Changed("max-nodes") {
			v, _ := cmd.Flags().GetInt("max-nodes")
			req.MaxNodes = &v
		}

		ctx := context.Background()
		resp, err := fpClient.PlanRoute(ctx, req)
		if err != nil {
			return fmt.Errorf("planning route: %w", err)
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printSynthesis(os.Stdout, resp.Synthesis)
		printRoute(os.Stdout, resp.Route, airportNames(ctx, resp.Route.Stops))
		return nil
	},
}

var routeHistoryCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"list"},
	Short:   "List your planned routes, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		routes, err := fpClient.ListRoutes(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("listing routes: %w", err)
		}
		if jsonOutput {
			printJSON(routes)
			return nil
		}
		printRouteList(os.Stdout, routes)
		return nil
	},
}

var routeShowCmd = &cobra.Command{
	Use:   "show <route-id>",
	Short: "Show one of your routes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		route, err := fpClient.GetRoute(ctx, args[0])
		if err != nil {
			return fmt.Errorf("getting route: %w", err)
		}
		if jsonOutput {
			printJSON(route)
			return nil
		}
		printRoute(os.Stdout, route, airportNames(ctx, route.Stops))
		return nil
	},
}

var routeDeleteCmd = &cobra.Command{
	Use:   "delete <route-id>",
	Short: "Delete one of your routes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := fpClient.DeleteRoute(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting route: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// airportNames looks up the name of every stop. Lookups that fail leave the
// stop unnamed.
func airportNames(ctx context.Context, stops []int64) map[int64]string {
	names := make(map[int64]string, len(stops))
	for _, id := range stops {
		if a, err := fpClient.GetAirport(ctx, id); err == nil {
			names[id] = a.Name
		}
	}
	return names
}

func init() {
	routePlanCmd.Flags().String("by", "distance", "optimise for distance or cost")
	routePlanCmd.Flags().Int("max-stops", 0, "maximum number of intermediate airports")
	routePlanCmd.Flags().Int("max-concurrency", 0, "avoid intermediate airports above this concurrency")
	routePlanCmd.Flags().Int("max-nodes", 0, "neighbourhood size to search (0 searches the whole network)")

	routeHistoryCmd.Flags().Int("limit", 20, "maximum number of routes to list (0 for all)")

	routeCmd.AddCommand(routePlanCmd)
	routeCmd.AddCommand(routeHistoryCmd)
	routeCmd.AddCommand(routeShowCmd)
	routeCmd.AddCommand(routeDeleteCmd)
}
