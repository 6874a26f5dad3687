package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	logLevel        string
	delaySeconds    float64
	quiet           bool
	outputPath      string
	maxPages        int
	metricsTextfile string
	profile         string
)

var rootCmd = &cobra.Command{
	Use:   "fbscraper",
	Short: "Extract posts and videos from public m.facebook.com pages",
	Long: `fbscraper walks the paginated mobile feed of a public page and writes one
JSON record per line to stdout.

Commands:
  posts     every post of a page, with its own and reshared text
  videos    every video of a page's video grid, optionally with details
  details   publish time and text for videos collected earlier

Status and logs go to stderr, so the output can be piped directly.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is .fbscraper.yaml or ~/.config/fbscraper/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.Float64Var(&delaySeconds, "delay", 0, "seconds to pause after each record")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	flags.StringVarP(&outputPath, "output", "o", "", "write records to this file instead of stdout")
	flags.IntVar(&maxPages, "max-pages", 0, "stop after this many feed pages (0 means all)")
	flags.StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when the run ends")
	flags.StringVar(&profile, "profile", "", "stored session profile to use (default \"default\")")

	rootCmd.SetVersionTemplate(`fbscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the persistent flags the user actually set, keyed the
// way config.MergeCommandLineFlags expects.
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	if changed("delay") {
		flags["delay"] = time.Duration(delaySeconds * float64(time.Second))
	}
	if changed("max-pages") {
		flags["max-pages"] = maxPages
	}
	if changed("metrics-textfile") {
		flags["metrics-textfile"] = metricsTextfile
	}
	if quiet && !changed("log-level") {
		flags["log-level"] = "error"
	}
	return flags
}
