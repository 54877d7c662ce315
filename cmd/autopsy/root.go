// autopsy is the measurement scan CLI: register, overview, pass1, scan,
// report, status, and an MCP server (serve).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autopsy/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	cacheDir  string
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "autopsy",
	Short: "First-pass anomaly scans over time-series measurement files",
	Long: "Autopsy registers measurement captures (CSV, MDF), condenses them into\n" +
		"bucketed overview tables, and runs deterministic missing-data, flatline,\n" +
		"and spike detection to rank anomaly windows for investigation.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logging.Init(logging.ParseLevel(rootFlags.logLevel), rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.cacheDir, "cache-dir", ".autopsy", "Cache root for the registry DB and artifacts")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(pass1Cmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
