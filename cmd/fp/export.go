package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flightpath/internal/config"
	"github.com/alfredjeanlab/flightpath/internal/export"
	"github.com/alfredjeanlab/flightpath/internal/store/postgres"
)

var exportCmd = &cobra.Command{
	Use:     "export [<file>]",
	Short:   "Write a JSONL snapshot of airports, connections and routes",
	GroupID: "data",
	Long: `Export reads the database named by FP_DATABASE_URL and writes one JSONL
snapshot to the given file, or to stdout when no file is given. The file is
replaced atomically.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		if len(args) == 0 {
			return export.WriteJSONL(ctx, store, os.Stdout)
		}

		var buf bytes.Buffer
		if err := export.WriteJSONL(ctx, store, &buf); err != nil {
			return err
		}
		dest := &export.FileDestination{Path: args[0]}
		if err := dest.Write(ctx, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", buf.Len(), dest.Name())
		return nil
	},
}
