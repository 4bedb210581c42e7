package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flightpath/internal/client"
	"github.com/alfredjeanlab/flightpath/internal/ui"
)

var (
	httpURL    string
	token      string
	user       string
	jsonOutput bool
	noColor    bool

	fpClient client.Client
)

func defaultHTTPURL() string {
	if s := os.Getenv("FP_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("FP_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

func defaultUser() string {
	if s := os.Getenv("FP_USER"); s != "" {
		return s
	}
	if u := activeRemoteUser(); u != "" {
		return u
	}
	return os.Getenv("USER")
}

// skipClient replaces the root PersistentPreRunE for commands that work on
// the database or local files directly.
func skipClient(cmd *cobra.Command, args []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:   "fp <command>",
	Short: "Plan routes across the airport network",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		}
		fpClient = client.NewHTTPClient(httpURL, token).WithUser(user)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if fpClient != nil {
			fpClient.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().StringVar(&user, "user", defaultUser(), "user ID sent with shared-token requests")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "routes", Title: "Routes:"},
		&cobra.Group{ID: "network", Title: "Network:"},
		&cobra.Group{ID: "data", Title: "Data:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	// Routes
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(watchCmd)

	// Network
	rootCmd.AddCommand(airportsCmd)
	rootCmd.AddCommand(topologyCmd)

	// Data
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
