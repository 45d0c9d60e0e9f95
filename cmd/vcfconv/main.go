package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vcf-converter/backend/internal/logging"
	"go.uber.org/zap"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	// Global flags
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vcfconv",
	Short: "Convert phone number lists to vCard files",
	Long: `vcfconv turns plain-text phone lists into vCard (.vcf) contact files.

Each line is cleaned (the "AAA" marker is removed and whitespace trimmed) and
kept only when it is a phone number. Every kept number becomes one contact
named "<contact name> <n>".

Run "vcfconv serve" for the web form or "vcfconv convert" for local files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New("info", verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vcfconv %s (built %s)\n", Version, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd, convertCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
