// Package main provides market-cli, which pulls one snapshot of the job market
// from the API and refines it locally.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	defaultAPIURL  = "http://localhost:8080"
	defaultTimeout = 30 * time.Second
	// EnvAPIURL overrides the default --api value
	EnvAPIURL = "MARKET_API_URL"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	apiURL       string
	timeout      time.Duration
	query        string
	location     string
	snapshotFile string
	output       string
}

var opts globalOptions

var rootCmd = &cobra.Command{
	Use:   "market-cli",
	Short: "Explore the job market from the command line",
	Long: `market-cli fetches one snapshot of job offers for a search text and location,
then filters, paginates and aggregates it locally without calling the API again.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		switch opts.output {
		case outputTable, outputJSON:
			return nil
		default:
			return fmt.Errorf("invalid output %q (must be %s or %s)", opts.output, outputTable, outputJSON)
		}
	},
}

func init() {
	apiURL := os.Getenv(EnvAPIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", apiURL, "Base URL of the market API")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Timeout of API calls")
	flags.StringVarP(&opts.query, "query", "q", "", "Search text")
	flags.StringVarP(&opts.location, "location", "l", "", "Search location")
	flags.StringVar(&opts.snapshotFile, "snapshot-file", "", "Read the snapshot from a JSON file instead of the API")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or json")

	rootCmd.AddCommand(newRefineCmd(), newSalariesCmd(), newRefreshCmd())
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
