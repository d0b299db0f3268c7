// =============================================================================
// sheet2csv - Root Command
// =============================================================================
//
// This file defines the root command. The root command is the extractor
// itself: it takes the document path as its only argument.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sheet2csv <document>)
//   └── versionCmd (sheet2csv version)
//
// FLAGS:
//   -o, --output   : Destination CSV (default: document path with .csv)
//   --config       : Optional YAML configuration file
//   -v, --verbose  : Debug logging
//   --log-format   : "text" or "json"
//   --sheet        : Sheet index to read (0-based, default 0)
//   --table        : Table index to export (0-based, default 0)
//   --dry-run      : Run all checks without writing the output
//
// EXIT STATUS:
//   0 on success, 1 on any failure (missing input, unreadable document,
//   missing sheet or table, failed check, write error).
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the optional configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// logFormat overrides the configured log format.
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "sheet2csv <document>",
	Short: "Extract the first table of a spreadsheet document to CSV",
	Long: `sheet2csv extracts the first table of the first sheet of a spreadsheet
document and writes it as CSV.

Before anything is written the table is checked:
  - One of its first two rows must contain "week number" or "week ending"
  - Formulas may only appear in its bottom row

If a check fails nothing is written.

Example Usage:
  sheet2csv "2025 harvest.xlsx"                 # writes "2025 harvest.csv"
  sheet2csv log.xlsx -o weekly.csv              # custom destination
  sheet2csv log.xlsx --dry-run                  # checks only
  sheet2csv log.xlsx --sheet 1 --table 0        # another sheet`,

	Args: cobra.ExactArgs(1),

	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args[0])
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to a YAML configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Progress output format: text or json (default from config, text)",
	)

	registerExtractFlags(rootCmd)
}
