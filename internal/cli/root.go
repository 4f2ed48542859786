// Package cli implements the runtimectl command-line interface: start,
// stop, status, and configure subcommands over a cobra root command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "runtimectl",
	Short: "Control the agent execution runtime host",
	Long:  "runtimectl starts, stops, and configures an agent execution runtime host process.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default ~/.runtime/runtime.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// Execute runs the CLI. host supplies the actual wiring the start
// command invokes once configuration has been loaded and validated.
func Execute(host Host) error {
	runner = host
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// GetRootCmd returns the root cobra command, for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the CLI's semantic version.
func GetVersion() string {
	return version
}
