package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	endpoint   string
	logPath    string
	verbose    bool
)

// rootCmd runs the interactive listing search
var rootCmd = &cobra.Command{
	Use:   "carlist",
	Short: "Search car listings from a JSON endpoint",
	Long: `carlist fetches a collection of car listings and narrows it by model
as you type. Matching is a case-insensitive substring match; clearing the
query fetches the full collection again.

Run without arguments to start the interactive view.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runInteractive,
}

// searchCmd runs one load and filter without the terminal UI
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Print the listings matching a query",
	Long: `Fetches the collection, applies the query and prints every matching
listing, one per line. An empty or missing query prints the full collection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

// serveCmd serves a JSON file as the listing endpoint
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a JSON array of listings over HTTP",
	Long: `Serves the listings in --data as a read-only collection endpoint.
--latency delays every collection response and --fail answers with 503,
which makes slow and failing sources easy to reproduce.

Example:
  carlist serve --data cars.json --latency 2s`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CARLIST_CONFIG"), "config file (.toml or .yaml); defaults to the user config dir")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", os.Getenv("CARLIST_ENDPOINT"), "collection endpoint URL")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "log file path, - for stderr (default carlist.log)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	serveCmd.Flags().String("data", "", "JSON file holding the listing array")
	serveCmd.Flags().String("addr", "", "listen address")
	serveCmd.Flags().String("path", "", "collection route")
	serveCmd.Flags().Duration("latency", 0, "delay before each collection response")
	serveCmd.Flags().Bool("fail", false, "answer collection requests with 503")

	rootCmd.AddCommand(searchCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
