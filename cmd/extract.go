// =============================================================================
// sheet2csv - Extract Command
// =============================================================================
//
// This file wires the command line to the extraction pipeline.
//
// PROCESSING PIPELINE:
//   1. Check that the document exists (before any parsing)
//   2. Load configuration and apply flag overrides
//   3. Set up progress logging
//   4. Run the converter (load, select, check, serialize, write)
//   5. Report the number of rows written
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/ginjaninja78/sheet2csv/internal/config"
	"github.com/ginjaninja78/sheet2csv/internal/converter"
	"github.com/ginjaninja78/sheet2csv/internal/logging"
	"github.com/ginjaninja78/sheet2csv/internal/xlsxparser"
	"github.com/ginjaninja78/sheet2csv/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// outputPath is the destination CSV file.
var outputPath string

// sheetIndex and tableIndex override the configured selection.
var sheetIndex int
var tableIndex int

// dryRun runs the checks without writing output.
var dryRun bool

func registerExtractFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(
		&outputPath,
		"output",
		"o",
		"",
		"Output CSV file path (default: same as input with .csv extension)",
	)

	cmd.Flags().IntVar(
		&sheetIndex,
		"sheet",
		0,
		"Index of the sheet to read, starting at 0",
	)

	cmd.Flags().IntVar(
		&tableIndex,
		"table",
		0,
		"Index of the table to export within the sheet, starting at 0",
	)

	cmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run all checks without writing the output file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runExtract extracts the selected table of inputPath.
func runExtract(cmd *cobra.Command, inputPath string) error {
	// A missing document is reported before a bad config file.
	if err := converter.CheckInput(inputPath); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.Setup(cmd.OutOrStdout(), cfg.Logging.Level, cfg.Logging.Format)

	destination := outputPath
	if destination == "" {
		destination = utils.DefaultOutputPath(inputPath)
	}

	options := converter.OptionsFromConfig(cfg)
	options.DryRun = dryRun

	loader := xlsxparser.New(xlsxparser.Options{RawValues: cfg.Reader.RawValues})
	conv := converter.New(loader, options, logger)

	result, err := conv.Run(inputPath, destination)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Written {
		fmt.Fprintf(out, "Successfully extracted %d rows to %s\n", result.RowCount, result.OutputPath)
	} else {
		fmt.Fprintf(out, "Dry run: %d rows of table %q would be written to %s\n",
			result.RowCount, result.TableName, result.OutputPath)
	}

	return nil
}

// applyFlagOverrides copies explicitly set flags over the configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("sheet") {
		cfg.Selection.SheetIndex = sheetIndex
	}
	if cmd.Flags().Changed("table") {
		cfg.Selection.TableIndex = tableIndex
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
}
