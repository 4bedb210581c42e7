package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flightpath/internal/config"
	"github.com/alfredjeanlab/flightpath/internal/importer"
	"github.com/alfredjeanlab/flightpath/internal/store/postgres"
)

var importCmd = &cobra.Command{
	Use:     "import <airports.csv>",
	Short:   "Load airports from a CSV file into the database",
	GroupID: "data",
	Long: `Import reads airports from a CSV file with a header row (id, name,
city, country, lat, lon) or in the OpenFlights airports.dat layout, and
upserts them into the database named by FP_DATABASE_URL.`,
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := importer.Parse(f)
		if err != nil {
			return err
		}
		for _, rowErr := range res.Skipped {
			fmt.Fprintf(os.Stderr, "skipped %v\n", rowErr)
		}

		if !dryRun {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := importer.Load(context.Background(), store, res.Airports); err != nil {
				return err
			}
		}

		if jsonOutput {
			printJSON(map[string]any{
				"imported": len(res.Airports),
				"skipped":  len(res.Skipped),
				"dry_run":  dryRun,
			})
			return nil
		}
		verb := "Imported"
		if dryRun {
			verb = "Parsed"
		}
		fmt.Printf("%s %d airports (%d rows skipped)\n", verb, len(res.Airports), len(res.Skipped))
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "parse and validate without writing to the database")
}
